package workers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Mangale12/cunsultancy-management-sub000/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// BlobCleanupPool deletes orphaned blobs in the background. Deletions are
// queued on a Redis stream and consumed by a consumer group, so a blob
// removal that fails (bucket outage, throttling) is retried instead of
// leaving the object behind.
type BlobCleanupPool struct {
	Redis      redis.UniversalClient
	Store      storage.BlobStore
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
	MaxAttempts    int
}

func (p *BlobCleanupPool) defaults() {
	if p.Stream == "" {
		p.Stream = "blobs:cleanup"
	}
	if p.Group == "" {
		p.Group = "blob-cleaners"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}
}

func (p *BlobCleanupPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Store == nil {
		return errors.New("BlobCleanupPool missing dependency: Redis/Store must be set")
	}
	p.defaults()

	if err := p.ensureGroup(ctx); err != nil {
		return err
	}
	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *BlobCleanupPool) ensureGroup(ctx context.Context) error {
	err := p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// Enqueue schedules paths for deletion.
func (p *BlobCleanupPool) Enqueue(ctx context.Context, paths ...string) error {
	p.defaults()
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := p.add(ctx, path, 1); err != nil {
			return err
		}
	}
	return nil
}

func (p *BlobCleanupPool) add(ctx context.Context, path string, attempt int) error {
	return p.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: p.Stream,
		Values: map[string]any{"path": path, "attempt": attempt},
	}).Err()
}

func (p *BlobCleanupPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if _, err := p.readOnce(ctx, consumer, 5*time.Second); err != nil && ctx.Err() == nil {
			time.Sleep(500 * time.Millisecond)
		}
	}
}

// readOnce consumes one batch. A negative block returns immediately when
// the stream is empty.
func (p *BlobCleanupPool) readOnce(ctx context.Context, consumer string, block time.Duration) (int, error) {
	res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    p.Group,
		Consumer: consumer,
		Streams:  []string{p.Stream, ">"},
		Count:    20,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	n := 0
	for _, stream := range res {
		for _, msg := range stream.Messages {
			p.handleMsg(ctx, msg)
			_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			n++
		}
	}
	return n, nil
}

func (p *BlobCleanupPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	path, _ := msg.Values["path"].(string)
	if path == "" {
		return
	}
	attempt := 1
	if s, ok := msg.Values["attempt"].(string); ok {
		if n, err := strconv.Atoi(s); err == nil {
			attempt = n
		}
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id": msg.ID,
		"path":     path,
		"attempt":  attempt,
	})

	err := p.Store.Delete(ctx, path)
	if err == nil || errors.Is(err, storage.ErrObjectNotFound) {
		log.Debug("blob removed")
		return
	}
	if attempt >= p.MaxAttempts {
		log.WithError(err).Error("giving up on blob removal")
		return
	}
	log.WithError(err).Warn("blob removal failed, requeueing")
	if err := p.add(ctx, path, attempt+1); err != nil {
		log.WithError(err).Error("requeue failed")
	}
}

// DeferredStore returns a BlobStore whose Delete only queues the removal.
func (p *BlobCleanupPool) DeferredStore() storage.BlobStore {
	return &deferredDeletes{BlobStore: p.Store, pool: p}
}

type deferredDeletes struct {
	storage.BlobStore
	pool *BlobCleanupPool
}

func (d *deferredDeletes) Delete(ctx context.Context, storedPath string) error {
	if err := d.pool.Enqueue(ctx, storedPath); err != nil {
		// Redis is down; fall back to removing it now.
		return d.BlobStore.Delete(ctx, storedPath)
	}
	return nil
}
