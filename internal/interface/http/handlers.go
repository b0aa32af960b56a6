package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/application/command"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/application/query"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/loan"
	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
	"github.com/qarzhy-hub/qarzhy-learning-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// Доменные ошибки переводятся в HTTP-статусы в одном месте, чтобы хендлеры
// не дублировали таксономию ошибок.
// ══════════════════════════════════════════════════════════════════════════════

// mapDomainError translates a domain error into an HTTP status and error code.
func mapDomainError(err error) (int, string) {
	switch {
	case shared.IsValidation(err):
		return http.StatusBadRequest, "invalid_argument"
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsUnauthorized(err):
		return http.StatusUnauthorized, "unauthorized"
	case shared.IsAlreadyExists(err):
		return http.StatusConflict, "already_exists"
	case shared.IsConflict(err), shared.IsUnavailable(err):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// handleDomainError writes the mapped error response and logs server-side failures.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := mapDomainError(err)

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			logger.String("operation", op),
			logger.Err(err),
			logger.String("request_id", getRequestID(r.Context())),
		)
	} else {
		s.logger.Debug("request rejected",
			logger.String("operation", op),
			logger.Int("status", status),
			logger.Err(err),
		)
	}

	writeJSONError(w, status, code, err.Error())
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ROOT & HEALTH ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot returns basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Endpoint not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "Qarzhy Learning Hub API",
		"version": "v1",
		"status":  "operational",
		"endpoints": map[string]string{
			"health":       "GET /health",
			"register":     "POST /api/v1/users",
			"progress":     "GET /api/v1/users/{id}/progress",
			"stats":        "GET /api/v1/users/{id}/stats",
			"leaderboard":  "GET /api/v1/leaderboard",
			"amortization": "POST /api/v1/loans/amortization",
			"compare":      "POST /api/v1/loans/compare",
			"simulations":  "POST /api/v1/loans/simulations",
			"quiz_results": "POST /api/v1/quizzes/results",
		},
	})
}

// handleHealth returns the full health status of the service.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"healthy": true,
			"uptime":  s.Uptime().String(),
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())

	httpStatus := http.StatusOK
	if !status.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, status)
}

// handleReady returns 200 when the service can serve traffic.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSONError(w, http.StatusServiceUnavailable, "not_ready", "Service is not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive returns 200 as long as the process is alive.
func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// LOAN CALCULATOR ENDPOINTS
// Калькулятор не имеет состояния: расчёты не сохраняются и монеты
// не начисляются. Бонус за симуляцию выдаёт отдельная команда записи.
// ══════════════════════════════════════════════════════════════════════════════

type amortizationRequest struct {
	Principal         float64 `json:"principal"`
	AnnualRatePercent float64 `json:"annual_rate_percent"`
	TermMonths        int     `json:"term_months"`
}

// handleComputeAmortization computes an annuity payment schedule.
// POST /api/v1/loans/amortization
func (s *Server) handleComputeAmortization(w http.ResponseWriter, r *http.Request) {
	var req amortizationRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	result, err := s.deps.ComputeAmortizationHandler.Handle(r.Context(), query.ComputeAmortizationQuery{
		Principal:         req.Principal,
		AnnualRatePercent: req.AnnualRatePercent,
		TermMonths:        req.TermMonths,
	})
	if err != nil {
		s.handleDomainError(w, r, "compute_amortization", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type compareOffersRequest struct {
	Principal float64      `json:"principal"`
	Offers    []loan.Offer `json:"offers"`
}

// handleCompareOffers compares bank offers for a single principal.
// POST /api/v1/loans/compare
func (s *Server) handleCompareOffers(w http.ResponseWriter, r *http.Request) {
	var req compareOffersRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	result, err := s.deps.CompareOffersHandler.Handle(r.Context(), query.CompareOffersQuery{
		Principal: req.Principal,
		Offers:    req.Offers,
	})
	if err != nil {
		s.handleDomainError(w, r, "compare_offers", err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, map[string]interface{}{
		"comparisons": result,
	}, &ResponseMeta{TotalCount: len(result)})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

type registerLearnerRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// handleRegisterLearner creates a learner profile.
// POST /api/v1/users
func (s *Server) handleRegisterLearner(w http.ResponseWriter, r *http.Request) {
	var req registerLearnerRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	result, err := s.deps.RegisterLearnerHandler.Handle(r.Context(), command.RegisterLearnerCommand{
		UserID:        req.UserID,
		DisplayName:   req.DisplayName,
		Password:      req.Password,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.handleDomainError(w, r, "register_learner", err)
		return
	}

	// Registration is idempotent: a repeated call for an existing
	// profile returns 200 instead of 201.
	status := http.StatusCreated
	if result.AlreadyRegistered {
		status = http.StatusOK
	}

	writeJSON(w, status, result)
}

// handleGetProgress returns a learner's full progress.
// GET /api/v1/users/{id}/progress
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	result, err := s.deps.GetProgressHandler.Handle(r.Context(), query.GetProgressQuery{
		UserID: userID,
	})
	if err != nil {
		s.handleDomainError(w, r, "get_progress", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetProfileStats returns aggregated profile statistics.
// GET /api/v1/users/{id}/stats
func (s *Server) handleGetProfileStats(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	result, err := s.deps.GetProfileStatsHandler.Handle(r.Context(), query.GetProfileStatsQuery{
		UserID: userID,
	})
	if err != nil {
		s.handleDomainError(w, r, "get_profile_stats", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetLeaderboard returns the coin leaderboard.
// GET /api/v1/leaderboard?limit=20&with_stats=true
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := query.GetLeaderboardQuery{
		Limit:     getQueryParamInt(r, "limit", 0),
		WithStats: getQueryParamBool(r, "with_stats"),
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, r, "get_leaderboard", err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, &ResponseMeta{
		TotalCount: result.TotalCount,
		FromCache:  result.FromCache,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION LEDGER ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

type quizResultRequest struct {
	UserID         string `json:"user_id"`
	LessonID       string `json:"lesson_id"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"total_questions"`
	TimeSpentMs    int64  `json:"time_spent_ms,omitempty"`
}

// handleRecordQuizResult records a quiz attempt and awards coins.
// POST /api/v1/quizzes/results
func (s *Server) handleRecordQuizResult(w http.ResponseWriter, r *http.Request) {
	var req quizResultRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	result, err := s.deps.RecordQuizResultHandler.Handle(r.Context(), command.RecordQuizResultCommand{
		UserID:         req.UserID,
		LessonID:       req.LessonID,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		TimeSpent:      time.Duration(req.TimeSpentMs) * time.Millisecond,
		CorrelationID:  getRequestID(r.Context()),
	})
	if err != nil {
		s.handleDomainError(w, r, "record_quiz_result", err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type simulationRunRequest struct {
	UserID            string  `json:"user_id"`
	Principal         float64 `json:"principal"`
	AnnualRatePercent float64 `json:"annual_rate_percent"`
	TermMonths        int     `json:"term_months"`
	Type              string  `json:"type,omitempty"`
}

// handleRecordSimulationRun persists a simulator run and awards the flat bonus.
// POST /api/v1/loans/simulations
func (s *Server) handleRecordSimulationRun(w http.ResponseWriter, r *http.Request) {
	var req simulationRunRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	result, err := s.deps.RecordSimulationRunHandler.Handle(r.Context(), command.RecordSimulationRunCommand{
		UserID:            req.UserID,
		Principal:         req.Principal,
		AnnualRatePercent: req.AnnualRatePercent,
		TermMonths:        req.TermMonths,
		Type:              loan.SimulationType(req.Type),
		CorrelationID:     getRequestID(r.Context()),
	})
	if err != nil {
		s.handleDomainError(w, r, "record_simulation_run", err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
