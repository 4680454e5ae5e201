package api

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/chxlky/trello-adpiler-sync/internal/metrics"
	"github.com/chxlky/trello-adpiler-sync/internal/pipeline"
)

type CardSyncer interface {
	Run(ctx context.Context, cardID string) (pipeline.SyncSummary, error)
}

// SyncQueue feeds card ids to a single worker so webhook-triggered syncs
// run one card at a time, in arrival order.
type SyncQueue struct {
	syncer CardSyncer
	cards  chan string

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewSyncQueue(syncer CardSyncer, size int) *SyncQueue {
	if size <= 0 {
		size = 1
	}
	return &SyncQueue{syncer: syncer, cards: make(chan string, size)}
}

// Start runs the worker until Close is called. ctx is passed to each sync.
func (q *SyncQueue) Start(ctx context.Context) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for cardID := range q.cards {
			metrics.QueueDepth.Dec()
			sum, err := q.syncer.Run(ctx, cardID)
			if err != nil {
				zap.L().Error("Webhook sync failed", zap.String("cardID", cardID), zap.Error(err))
				continue
			}
			zap.L().Info("Webhook sync finished", zap.String("cardID", cardID),
				zap.Int("published", sum.Published), zap.Int("publishFailed", sum.PublishFailed), zap.Int("skipped", sum.Skipped))
		}
	}()
}

// Enqueue reports false when the queue is full or closed.
func (q *SyncQueue) Enqueue(cardID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.cards <- cardID:
		metrics.QueueDepth.Inc()
		return true
	default:
		return false
	}
}

// Close stops accepting work and waits for queued cards to finish.
func (q *SyncQueue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.cards)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
