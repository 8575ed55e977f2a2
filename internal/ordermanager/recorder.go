package ordermanager

import (
	"context"
	"time"

	"go.uber.org/zap"

	"obench/internal/matching"
	"obench/pkg/logger"
)

// WorkerRecorder adapts a Manager to worker.OrderRecorder, so a worker can
// populate external bookkeeping directly from the OrderMsg it already has
// in hand, without the matching engine ever being involved.
type WorkerRecorder struct {
	mgr Manager
}

// NewWorkerRecorder wraps mgr for use as a worker.OrderRecorder.
func NewWorkerRecorder(mgr Manager) *WorkerRecorder {
	return &WorkerRecorder{mgr: mgr}
}

// Record stores the order behind a newly-resting handle. A backend error
// (e.g. an unreachable Redis-backed manager) is logged rather than
// propagated: the OrderManager is external bookkeeping the worker's hot
// loop does not depend on, but a silent drop would leave no trace of lost
// bookkeeping.
func (w *WorkerRecorder) Record(workerID int, handle uint32, msg matching.OrderMsg) {
	err := w.mgr.Record(Record{
		ClientID:        msg.ClientID,
		Handle:          handle,
		Side:            msg.Side,
		OriginalQty:     msg.Qty,
		PriceTick:       msg.PriceTick,
		SubmitTimestamp: time.Now().UnixNano(),
	})
	if err != nil {
		logger.Error(context.Background(), "order manager record failed",
			zap.Int("worker_id", workerID), zap.Uint32("handle", handle), zap.Error(err))
	}
}

// Forget releases a cancelled handle's bookkeeping.
func (w *WorkerRecorder) Forget(handle uint32) {
	if err := w.mgr.Forget(handle); err != nil {
		logger.Error(context.Background(), "order manager forget failed",
			zap.Uint32("handle", handle), zap.Error(err))
	}
}
