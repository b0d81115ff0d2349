package consumer

import (
	"context"
	"encoding/json"
	"go-expensio/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeExpenseDecided drains decision events and records a notification
// log line per decision. Mail or webhook delivery hangs off this loop later;
// the commit discipline stays the same either way.
func ConsumeExpenseDecided(
	ctx context.Context,
	reader *kafkago.Reader,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.expense_decided")
	log.Info("expense decision consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("expense decision consumer stopped")
				return
			}
			log.Error("fetch expense decision message failed", zap.Error(err))
			continue
		}

		var event events.ExpenseDecidedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode expense_decided event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		log.Info("expense decision notification",
			zap.String("expense_id", event.ExpenseID),
			zap.String("ref_number", event.RefNumber),
			zap.String("employee_id", event.EmployeeID),
			zap.String("company_id", event.CompanyID),
			zap.String("actor_id", event.ActorID),
			zap.String("decision", event.Decision),
			zap.String("status", event.Status),
		)

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit expense decision message failed", zap.Error(err))
			continue
		}
	}
}
