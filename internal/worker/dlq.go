package worker

// Jobs that fail permanently or exceed maxAttempts land in dlq:{original_queue}
// for manual inspection.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// errPermanent marks failures that retrying cannot fix.
var errPermanent = errors.New("permanent job failure")

// DLQEntry wraps a failed job with metadata for debugging.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // RFC 3339
	Attempts      int             `json:"attempts"`
}

// retry re-enqueues a failed job, or parks it in the DLQ once it is out of
// attempts or the failure is permanent.
func (p *Pool) retry(ctx context.Context, queue string, job Job, cause error) {
	job.Attempts++
	if p.rdb == nil {
		log.Error().Err(cause).Str("type", job.Type).Msg("job failed; no queue to retry on")
		return
	}
	if job.Attempts < maxAttempts && !errors.Is(cause, errPermanent) {
		if err := push(ctx, p.rdb, queue, job); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("job requeue failed")
		}
		log.Warn().Err(cause).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, requeued")
		return
	}
	SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, cause.Error(), job.Attempts)
}

// SendToDLQ pushes a failed job to the dead letter queue.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength returns the number of entries in a DLQ for monitoring.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
