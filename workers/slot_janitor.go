package workers

import (
	"context"
	"time"

	"corretor/logging"
	"corretor/models"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

// JanitorResult conta o que uma passada do janitor alterou.
type JanitorResult struct {
	SlotsDeleted           int64
	AgendamentosRealizados int64
}

// StartSlotJanitor roda CleanupSlots a cada interval até ctx ser cancelado.
// O canal retornado fecha quando o loop termina.
func StartSlotJanitor(ctx context.Context, db *gorm.DB, interval time.Duration, retention time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logging.L().Info("slot janitor stopped")
				return
			case <-ticker.C:
				res, err := CleanupSlots(db, time.Now(), retention)
				if err != nil {
					logging.L().Error("slot janitor failed", zap.Error(err))
					continue
				}
				if res.SlotsDeleted > 0 || res.AgendamentosRealizados > 0 {
					logging.L().Info("slot janitor",
						zap.Int64("slots_deleted", res.SlotsDeleted),
						zap.Int64("agendamentos_realizados", res.AgendamentosRealizados),
					)
				}
			}
		}
	}()
	return done
}

// CleanupSlots apaga slots livres que terminaram há mais de retention
// e marca como REALIZADO os agendamentos confirmados de mais de um dia atrás.
func CleanupSlots(db *gorm.DB, now time.Time, retention time.Duration) (JanitorResult, error) {
	var out JanitorResult

	res := db.Where("is_booked = ? AND end_time < ?", false, now.Add(-retention)).
		Delete(&models.AvailabilitySlot{})
	if res.Error != nil {
		return out, res.Error
	}
	out.SlotsDeleted = res.RowsAffected

	res = db.Model(&models.Agendamento{}).
		Where("status = ? AND data_hora < ?", models.AGENDAMENTO_STATUS_CONFIRMADO, now.Add(-24*time.Hour)).
		Update("status", models.AGENDAMENTO_STATUS_REALIZADO)
	if res.Error != nil {
		return out, res.Error
	}
	out.AgendamentosRealizados = res.RowsAffected
	return out, nil
}
