package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jason-s-yu/card-roulette/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewQueue(rdb, "", nil), mr
}

func TestQueueRecordGame(t *testing.T) {
	q, mr := setupQueue(t)
	id := uuid.New()

	err := q.RecordGame(context.Background(), models.GameRecord{SimulationID: id, GameNumber: 4, Players: 2, Rounds: 3, Scores: []int{3, 3}})
	require.NoError(t, err)

	items, err := mr.List(DefaultQueueName)
	require.NoError(t, err)
	require.Len(t, items, 1)

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(items[0]), &rec))
	assert.Equal(t, KindGame, rec.Kind)
	assert.Equal(t, 2, rec.Players)
	assert.Equal(t, 3, rec.Rounds)
	require.NotNil(t, rec.Game)
	assert.Equal(t, id, rec.Game.SimulationID)
	assert.Equal(t, 4, rec.Game.GameNumber)
	assert.Positive(t, rec.Timestamp)
}

func TestQueueRoundTrip(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, q.RecordGame(ctx, models.GameRecord{SimulationID: id, GameNumber: 1, Players: 3, Rounds: 1, Scores: []int{1, 1, 1}}))
	require.NoError(t, q.RecordSimulation(ctx, models.SimulationSummary{SimulationID: id, NumGames: 1, Scores: []int{1, 1, 1}, Players: 3, Rounds: 1}))

	rec, ok, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, KindGame, rec.Kind)
	_, isSummary := rec.Summary()
	assert.False(t, isSummary)

	rec, ok, err = q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	sum, isSummary := rec.Summary()
	require.True(t, isSummary)
	assert.Equal(t, id, sum.SimulationID)
	assert.Equal(t, 3, sum.Players)
	assert.Equal(t, 1, sum.Rounds)
	assert.Equal(t, []int{1, 1, 1}, sum.Scores)
}

func TestQueueSimulationPayloadIsSelfContained(t *testing.T) {
	q, mr := setupQueue(t)
	id := uuid.New()
	require.NoError(t, q.RecordSimulation(context.Background(), models.SimulationSummary{SimulationID: id, NumGames: 2, Scores: []int{4, 1, 1}, Players: 3, Rounds: 2}))

	items, err := mr.List(DefaultQueueName)
	require.NoError(t, err)
	require.Len(t, items, 1)

	var envelope struct {
		Simulation models.SimulationMessage `json:"simulation"`
	}
	require.NoError(t, json.Unmarshal([]byte(items[0]), &envelope))
	assert.Equal(t, id, envelope.Simulation.SimulationID)
	assert.Equal(t, 3, envelope.Simulation.Players)
	assert.Equal(t, 2, envelope.Simulation.Rounds)
	assert.Equal(t, []int{4, 1, 1}, envelope.Simulation.Scores)
}

func TestQueuePopDropsInvalidPayload(t *testing.T) {
	q, mr := setupQueue(t)
	_, err := mr.RPush(q.Name(), "not json")
	require.NoError(t, err)

	_, ok, err := q.Pop(context.Background(), time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueueCustomName(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	q := NewQueue(rdb, "custom", nil)
	assert.Equal(t, "custom", q.Name())
	require.NoError(t, q.RecordSimulation(context.Background(), models.SimulationSummary{SimulationID: uuid.New(), NumGames: 1, Scores: []int{0}, Players: 1, Rounds: 1}))
	assert.True(t, mr.Exists("custom"))
}

func TestConnectFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(addr, 0)
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := Connect(mr.Addr(), 0)
	require.NoError(t, err)
	rdb.Close()
}
