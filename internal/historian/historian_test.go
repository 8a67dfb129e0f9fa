// internal/historian/historian_test.go
package historian

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jason-s-yu/card-roulette/internal/cache"
	"github.com/jason-s-yu/card-roulette/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource hands out records in order and cancels the run once drained.
type scriptedSource struct {
	records []cache.Record
	cancel  context.CancelFunc
}

func (s *scriptedSource) Pop(ctx context.Context, _ time.Duration) (cache.Record, bool, error) {
	if len(s.records) == 0 {
		s.cancel()
		return cache.Record{}, false, nil
	}
	rec := s.records[0]
	s.records = s.records[1:]
	return rec, true, nil
}

type batch struct {
	games []models.GameRecord
	sums  []models.SimulationSummary
}

type fakeWriter struct {
	batches []batch
	err     error
}

func (w *fakeWriter) RecordBatch(_ context.Context, games []models.GameRecord, sums []models.SimulationSummary) error {
	if w.err != nil {
		return w.err
	}
	w.batches = append(w.batches, batch{games: games, sums: sums})
	return nil
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func gameRecord(id uuid.UUID, n int) cache.Record {
	return cache.Record{Kind: cache.KindGame, Players: 2, Rounds: 1, Game: &models.GameRecord{SimulationID: id, GameNumber: n, Players: 2, Rounds: 1, Scores: []int{1, 0}}}
}

func TestServiceBatchesRecords(t *testing.T) {
	id := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &scriptedSource{cancel: cancel, records: []cache.Record{
		gameRecord(id, 1),
		gameRecord(id, 2),
		gameRecord(id, 3),
		{Kind: cache.KindSimulation, Players: 2, Rounds: 1, Simulation: &models.SimulationMessage{SimulationID: id, Players: 2, Rounds: 1, NumGames: 3, Scores: []int{3, 0}}},
		{Kind: "bogus"},
		{Kind: cache.KindGame},
		gameRecord(id, 4),
	}}
	w := &fakeWriter{}
	svc := NewService(src, w, 2, time.Hour, quietLogger())

	require.NoError(t, svc.Run(ctx))

	require.Len(t, w.batches, 3)
	assert.Len(t, w.batches[0].games, 2)
	assert.Empty(t, w.batches[0].sums)

	assert.Len(t, w.batches[1].games, 1)
	require.Len(t, w.batches[1].sums, 1)
	assert.Equal(t, 2, w.batches[1].sums[0].Players, "player count carried by the message")
	assert.Equal(t, 1, w.batches[1].sums[0].Rounds)

	require.Len(t, w.batches[2].games, 1, "pending records are flushed on shutdown")
	assert.Equal(t, 4, w.batches[2].games[0].GameNumber)
}

func TestServiceDropsFailedBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id := uuid.New()
	src := &scriptedSource{cancel: cancel, records: []cache.Record{gameRecord(id, 1), gameRecord(id, 2)}}
	w := &fakeWriter{err: errors.New("db down")}
	svc := NewService(src, w, 2, time.Hour, quietLogger())

	require.NoError(t, svc.Run(ctx))
	assert.Empty(t, w.batches)
	assert.Empty(t, svc.games)
}

func TestServiceReadsFromRedisQueue(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	q := cache.NewQueue(rdb, "", quietLogger())

	id := uuid.New()
	bg := context.Background()
	require.NoError(t, q.RecordGame(bg, models.GameRecord{SimulationID: id, GameNumber: 1, Players: 3, Rounds: 1, Scores: []int{1, 1, 1}}))
	require.NoError(t, q.RecordSimulation(bg, models.SimulationSummary{SimulationID: id, NumGames: 1, Scores: []int{1, 1, 1}, Players: 3, Rounds: 1}))

	w := &fakeWriter{}
	svc := NewService(q, w, 2, time.Hour, quietLogger())
	svc.PopTimeout = time.Second

	ctx, cancel := context.WithTimeout(bg, 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool {
		items, _ := mr.List(q.Name())
		return len(items) == 0
	}, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	require.Len(t, w.batches, 1)
	require.Len(t, w.batches[0].games, 1)
	require.Len(t, w.batches[0].sums, 1)
	assert.Equal(t, id, w.batches[0].sums[0].SimulationID)
	assert.Equal(t, 3, w.batches[0].sums[0].Players)
}
