// internal/historian/historian.go pulls simulation results off the Redis queue and
// persists them to PostgreSQL in batches.
package historian

import (
	"context"
	"errors"
	"time"

	"github.com/jason-s-yu/card-roulette/internal/cache"
	"github.com/jason-s-yu/card-roulette/internal/models"
	"github.com/sirupsen/logrus"
)

// Source yields queued records; Pop returns false when nothing arrived before timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (cache.Record, bool, error)
}

// Writer persists a batch of records in one transaction.
type Writer interface {
	RecordBatch(ctx context.Context, games []models.GameRecord, sums []models.SimulationSummary) error
}

// Service accumulates records and flushes them when the batch is full or the flush delay elapses.
type Service struct {
	source     Source
	writer     Writer
	batchSize  int
	flushDelay time.Duration

	// PopTimeout bounds each blocking read so the flush timer and cancellation are honoured.
	PopTimeout time.Duration

	logger logrus.FieldLogger

	games []models.GameRecord
	sums  []models.SimulationSummary
}

// NewService builds a historian. Non-positive sizes fall back to 20 records and 500ms.
func NewService(source Source, writer Writer, batchSize int, flushDelay time.Duration, logger logrus.FieldLogger) *Service {
	if batchSize <= 0 {
		batchSize = 20
	}
	if flushDelay <= 0 {
		flushDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		source:     source,
		writer:     writer,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		PopTimeout: time.Second,
		logger:     logger,
	}
}

// Run consumes the queue until ctx is done, then flushes whatever is pending.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.flushDelay)
	defer ticker.Stop()

	s.logger.Info("roulette-historian service started")
	for {
		select {
		case <-ctx.Done():
			// the run context is gone, give the last flush its own deadline
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			s.Flush(flushCtx)
			cancel()
			s.logger.Info("roulette-historian shutting down")
			return nil

		case <-ticker.C:
			s.Flush(ctx)

		default:
			rec, ok, err := s.source.Pop(ctx, s.PopTimeout)
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
					s.logger.WithError(err).Error("pop result record")
				}
				continue
			}
			if ok {
				s.add(ctx, rec)
			}
		}
	}
}

// add queues a record and flushes once the batch is full.
func (s *Service) add(ctx context.Context, rec cache.Record) {
	switch rec.Kind {
	case cache.KindGame:
		if rec.Game == nil {
			s.logger.Warn("game record without payload")
			return
		}
		s.games = append(s.games, *rec.Game)
	case cache.KindSimulation:
		sum, ok := rec.Summary()
		if !ok {
			s.logger.Warn("simulation record without payload")
			return
		}
		s.sums = append(s.sums, sum)
	default:
		s.logger.WithField("kind", rec.Kind).Warn("unknown record kind")
		return
	}

	if len(s.games)+len(s.sums) >= s.batchSize {
		s.Flush(ctx)
	}
}

// Flush writes the pending batch. A failed batch is logged and dropped.
func (s *Service) Flush(ctx context.Context) {
	if len(s.games) == 0 && len(s.sums) == 0 {
		return
	}
	games, sums := s.games, s.sums
	s.games, s.sums = nil, nil

	if err := s.writer.RecordBatch(ctx, games, sums); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"games":       len(games),
			"simulations": len(sums),
		}).Error("flush batch to DB")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"games":       len(games),
		"simulations": len(sums),
	}).Info("flushed results to DB")
}
