// Package postgres implements PostgreSQL persistence layer for Qarzhy Learning Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE USER PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create user_progress table
-- Version: 001

-- Progression ledger: one row per learner, optimistic locking via version.
CREATE TABLE IF NOT EXISTS user_progress (
    user_id VARCHAR(64) PRIMARY KEY,
    display_name VARCHAR(100) NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL DEFAULT '',
    total_coins INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    completed_lesson_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
    current_streak INTEGER NOT NULL DEFAULT 0,
    badges JSONB NOT NULL DEFAULT '[]'::jsonb,
    last_active_date TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    version BIGINT NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Constraints for data integrity
    CONSTRAINT valid_coins CHECK (total_coins >= 0),
    CONSTRAINT valid_level CHECK (level >= 1),
    CONSTRAINT valid_version CHECK (version >= 1)
);

-- Leaderboard snapshot reads order by coins
CREATE INDEX IF NOT EXISTS idx_user_progress_coins ON user_progress(total_coins DESC, user_id ASC);
CREATE INDEX IF NOT EXISTS idx_user_progress_last_active ON user_progress(last_active_date DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS user_progress;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE JOURNALS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create quiz_attempts and loan_simulations journals
-- Version: 002

-- Append-only audit log of quiz attempts, passed or not.
CREATE TABLE IF NOT EXISTS quiz_attempts (
    id UUID PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL,
    lesson_id VARCHAR(64) NOT NULL,
    score INTEGER NOT NULL,
    total_questions INTEGER NOT NULL,
    passed BOOLEAN NOT NULL,
    coins_earned INTEGER NOT NULL DEFAULT 0,
    time_spent_ms BIGINT NOT NULL DEFAULT 0,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_score CHECK (score >= 0 AND score <= total_questions),
    CONSTRAINT valid_total CHECK (total_questions >= 1),
    CONSTRAINT valid_coins_earned CHECK (coins_earned >= 0)
);

CREATE INDEX IF NOT EXISTS idx_quiz_attempts_user ON quiz_attempts(user_id, recorded_at DESC);
CREATE INDEX IF NOT EXISTS idx_quiz_attempts_lesson ON quiz_attempts(lesson_id);

-- Append-only journal of loan simulator runs.
CREATE TABLE IF NOT EXISTS loan_simulations (
    id UUID PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL,
    principal DECIMAL(14,2) NOT NULL,
    annual_rate_percent DECIMAL(7,4) NOT NULL,
    term_months INTEGER NOT NULL,
    installment_amount DECIMAL(14,2) NOT NULL,
    total_interest DECIMAL(14,2) NOT NULL,
    total_paid DECIMAL(14,2) NOT NULL,
    loan_type VARCHAR(20) NOT NULL DEFAULT 'personal',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_principal CHECK (principal >= 0),
    CONSTRAINT valid_rate CHECK (annual_rate_percent >= 0),
    CONSTRAINT valid_term CHECK (term_months >= 1)
);

CREATE INDEX IF NOT EXISTS idx_loan_simulations_user ON loan_simulations(user_id, created_at DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS loan_simulations;
DROP TABLE IF EXISTS quiz_attempts;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE LESSONS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create lessons catalog
-- Version: 003

CREATE TABLE IF NOT EXISTS lessons (
    id VARCHAR(64) PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category VARCHAR(30) NOT NULL,
    difficulty VARCHAR(20) NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    coin_reward INTEGER NOT NULL,
    estimated_time INTEGER NOT NULL DEFAULT 0,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    position INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_coin_reward CHECK (coin_reward >= 0)
);

CREATE INDEX IF NOT EXISTS idx_lessons_active ON lessons(position ASC) WHERE active = TRUE;
CREATE INDEX IF NOT EXISTS idx_lessons_category ON lessons(category);
`

const migration003Down = `
DROP TABLE IF EXISTS lessons;
`
