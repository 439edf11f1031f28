package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReconcile = "jobs:reconcile"

	JobReconcile = "reconcile"

	maxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// ReconcilePayload names the items a committed write touched.
type ReconcilePayload struct {
	ShopID  uuid.UUID   `json:"shop_id"`
	ItemIDs []uuid.UUID `json:"item_ids"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP. A nil Dispatcher drops jobs.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReconcile pushes a ledger check for itemIDs.
func (d *Dispatcher) EnqueueReconcile(ctx context.Context, shopID uuid.UUID, itemIDs []uuid.UUID) error {
	if d == nil || d.rdb == nil || len(itemIDs) == 0 {
		return nil
	}
	return enqueue(ctx, d.rdb, QueueReconcile, JobReconcile, ReconcilePayload{ShopID: shopID, ItemIDs: itemIDs})
}

func enqueue(ctx context.Context, rdb *redis.Client, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// ReconcileFunc checks the given items and returns an error only when the
// check itself could not run. Drift is reported by the function, not here.
type ReconcileFunc func(ctx context.Context, shopID uuid.UUID, itemIDs []uuid.UUID) error

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb       *redis.Client
	reconcile ReconcileFunc
}

func NewPool(rdb *redis.Client, reconcile ReconcileFunc) *Pool {
	return &Pool{rdb: rdb, reconcile: reconcile}
}

// Start launches numWorkers goroutines. Each blocks on BRPOP, so idle
// workers cost nothing. They exit when ctx is cancelled.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	queues := []string{QueueReconcile}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.processJob(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	if err := p.handle(ctx, job); err != nil {
		p.retry(ctx, queue, job, err)
		return
	}
	log.Debug().Str("type", job.Type).Str("queue", queue).Msg("job processed")
}

func (p *Pool) handle(ctx context.Context, job Job) error {
	switch job.Type {
	case JobReconcile:
		var payload ReconcilePayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("decode reconcile payload: %w", errPermanent)
		}
		return p.reconcile(ctx, payload.ShopID, payload.ItemIDs)
	}
	return fmt.Errorf("unknown job type %q: %w", job.Type, errPermanent)
}
