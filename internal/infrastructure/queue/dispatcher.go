package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/classmates/content-api/internal/api/metrics"
	"github.com/classmates/content-api/internal/core/domain"
	"github.com/classmates/content-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	deleteTimeout  = 30 * time.Second
)

// Deleter is the part of the media store the janitor needs.
type Deleter interface {
	Delete(ctx context.Context, name string) error
}

// Janitor removes unreferenced media objects in the background. Names are
// sharded across a fixed set of workers by hash, so repeated requests for the
// same object are handled in order by one worker.
type Janitor struct {
	workers []chan string
	store   Deleter
	log     zerolog.Logger
	wg      sync.WaitGroup
}

var _ ports.MediaJanitor = (*Janitor)(nil)

// NewJanitor creates a Janitor with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewJanitor(numWorkers int, store Deleter, log zerolog.Logger) *Janitor {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	j := &Janitor{
		workers: make([]chan string, numWorkers),
		store:   store,
		log:     log,
	}
	for i := range j.workers {
		j.workers[i] = make(chan string, channelBuffer)
	}
	return j
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	for i, ch := range j.workers {
		j.wg.Add(1)
		go j.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (j *Janitor) Wait() {
	j.wg.Wait()
}

// Enqueue schedules names for deletion. It never blocks: when a worker's
// buffer is full the name is dropped and logged, leaving an orphaned object
// rather than stalling the request that triggered it.
func (j *Janitor) Enqueue(names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		idx := j.shardIndex(name)
		select {
		case j.workers[idx] <- name:
			metrics.MediaCleanupQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		default:
			metrics.MediaCleanupErrorsTotal.Inc()
			j.log.Warn().Str("name", name).Int("worker_id", idx).Msg("media cleanup queue full, dropping")
		}
	}
}

// shardIndex maps a name deterministically to a worker index.
func (j *Janitor) shardIndex(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int(h.Sum32() % uint32(len(j.workers)))
}

func (j *Janitor) runWorker(ctx context.Context, id int, ch <-chan string) {
	defer j.wg.Done()
	depth := metrics.MediaCleanupQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case name, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			j.remove(ctx, id, name)
		}
	}
}

func (j *Janitor) remove(ctx context.Context, worker int, name string) {
	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	err := j.store.Delete(ctx, name)
	switch {
	case err == nil:
		j.log.Debug().Str("name", name).Int("worker_id", worker).Msg("media removed")
	case errors.Is(err, domain.ErrMediaNotFound):
		j.log.Debug().Str("name", name).Msg("media already gone")
	default:
		metrics.MediaCleanupErrorsTotal.Inc()
		j.log.Error().Err(err).
			Str("name", name).
			Int("worker_id", worker).
			Msg("media removal failed")
	}
}
