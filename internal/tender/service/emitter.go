package service

import (
	"context"
	"log/slog"

	"gare/internal/notify"
	"gare/internal/tender/models"
)

// changeEmitter hands applied state changes to the notification dispatcher.
// Delivery is fail-open: the state change has already been persisted, so a
// dispatch failure is logged and the operation still succeeds.
type changeEmitter struct {
	logger     *slog.Logger
	dispatcher notify.Dispatcher
}

func newChangeEmitter(logger *slog.Logger, dispatcher notify.Dispatcher) *changeEmitter {
	return &changeEmitter{logger: logger, dispatcher: dispatcher}
}

func (e *changeEmitter) emit(ctx context.Context, rec models.StateChangeRecord) {
	if e.dispatcher == nil {
		return
	}
	if err := e.dispatcher.Dispatch(ctx, []models.StateChangeRecord{rec}); err != nil && e.logger != nil {
		e.logger.WarnContext(ctx, "state change dispatch failed",
			"lot_id", rec.LotID.String(),
			"from", rec.From,
			"to", rec.To,
			"error", err,
		)
	}
}
