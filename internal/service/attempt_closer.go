package service

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const closeQueueKey = "testing:attempt_close_queue"

// PassingCloser is the engine-side hook the closer fires when a
// deadline comes due.
type PassingCloser interface {
	ForceClose(passingID uint) error
}

// AttemptCloser enforces the time budget of open attempts. Deadlines
// live in a redis sorted set keyed by fire time, so they survive
// restarts; a poller drains the due entries and force-closes each
// passing. It implements AttemptScheduler.
type AttemptCloser struct {
	rdb      *redis.Client
	engine   PassingCloser
	interval time.Duration
	log      *zap.Logger
}

func NewAttemptCloser(rdb *redis.Client, interval time.Duration, log *zap.Logger) *AttemptCloser {
	if interval <= 0 {
		interval = time.Second
	}
	return &AttemptCloser{
		rdb:      rdb,
		interval: interval,
		log:      log,
	}
}

// BindEngine wires the evaluation engine in after construction; the
// engine itself schedules through the closer, so the two are built in
// sequence.
func (c *AttemptCloser) BindEngine(engine PassingCloser) {
	c.engine = engine
}

func (c *AttemptCloser) Schedule(passingID uint, delay time.Duration) error {
	fireAt := time.Now().Add(delay)
	return c.rdb.ZAdd(context.Background(), closeQueueKey, &redis.Z{
		Score:  float64(fireAt.Unix()),
		Member: formatPassingID(passingID),
	}).Err()
}

func (c *AttemptCloser) Cancel(passingID uint) error {
	return c.rdb.ZRem(context.Background(), closeQueueKey, formatPassingID(passingID)).Err()
}

// Run polls until the context is cancelled. Safe to run on several
// instances at once: the ZREM below hands each due entry to exactly one
// poller, and ForceClose is idempotent anyway.
func (c *AttemptCloser) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.log.Info("attempt closer started", zap.Duration("interval", c.interval))
	for {
		select {
		case <-ctx.Done():
			c.log.Info("attempt closer stopped")
			return
		case <-ticker.C:
			if err := c.Drain(ctx); err != nil {
				c.log.Error("attempt closer drain failed", zap.Error(err))
			}
		}
	}
}

// Drain closes every attempt whose deadline has passed.
func (c *AttemptCloser) Drain(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	due, err := c.rdb.ZRangeByScore(ctx, closeQueueKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return err
	}

	for _, member := range due {
		removed, err := c.rdb.ZRem(ctx, closeQueueKey, member).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			// Another poller claimed it first.
			continue
		}
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			c.log.Error("malformed entry in close queue", zap.String("member", member))
			continue
		}
		if err := c.engine.ForceClose(uint(id)); err != nil {
			c.log.Error("force close failed",
				zap.Uint64("passingId", id),
				zap.Error(err))
		}
	}
	return nil
}

func formatPassingID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
