package eventhandler

import (
	"fmt"
	"log/slog"

	"github.com/qarzhy-hub/qarzhy-learning-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON LEVEL UP HANDLER
// Обрабатывает событие повышения уровня ученика.
//
// Уровни — это вехи финансовой грамотности. Сейчас обработчик пишет
// структурированный лог для аналитики; канал поздравлений (push,
// email) подключается здесь же, когда появится.
// ═══════════════════════════════════════════════════════════════════════════

// OnLevelUpHandler обрабатывает событие повышения уровня.
type OnLevelUpHandler struct {
	logger *slog.Logger

	// Milestones — уровни, достижение которых логируется как веха.
	milestones map[int]bool
}

// NewOnLevelUpHandler создаёт обработчик повышения уровня.
// milestones — список уровней-вех, например [5, 10, 25].
func NewOnLevelUpHandler(logger *slog.Logger, milestones []int) *OnLevelUpHandler {
	if logger == nil {
		logger = slog.Default()
	}

	ms := make(map[int]bool, len(milestones))
	for _, m := range milestones {
		ms[m] = true
	}

	return &OnLevelUpHandler{
		logger:     logger.With("handler", "on_level_up"),
		milestones: ms,
	}
}

// Handle реализует shared.EventHandler.
func (h *OnLevelUpHandler) Handle(event shared.Event) error {
	levelUp, ok := event.(shared.LevelUpEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	attrs := []any{
		"user_id", levelUp.UserID,
		"old_level", levelUp.OldLevel,
		"new_level", levelUp.NewLevel,
	}

	if h.milestones[levelUp.NewLevel] {
		h.logger.Info("learner reached milestone level", attrs...)
	} else {
		h.logger.Info("learner leveled up", attrs...)
	}

	return nil
}
