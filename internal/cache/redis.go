// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/card-roulette/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list (queue) name for simulation results.
const DefaultQueueName = "roulette_results"

// RecordKind tells the historian how to persist a queued record.
type RecordKind string

const (
	KindGame       RecordKind = "game"
	KindSimulation RecordKind = "simulation"
)

// Record is the JSON envelope pushed onto the historian queue.
type Record struct {
	Kind       RecordKind                `json:"kind"`
	Players    int                       `json:"players"`
	Rounds     int                       `json:"rounds"`
	Game       *models.GameRecord        `json:"game,omitempty"`
	Simulation *models.SimulationMessage `json:"simulation,omitempty"`
	Timestamp  int64                     `json:"timestamp"` // epoch millis
}

// Summary returns the simulation summary carried by a KindSimulation record.
func (r Record) Summary() (models.SimulationSummary, bool) {
	if r.Kind != KindSimulation || r.Simulation == nil {
		return models.SimulationSummary{}, false
	}
	return r.Simulation.Summary(), true
}

// Connect opens a Redis client and checks it answers within five seconds.
func Connect(addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Queue pushes simulation results onto a Redis list and pops them back for the historian.
type Queue struct {
	rdb    *redis.Client
	name   string
	logger logrus.FieldLogger
}

// NewQueue wraps rdb. An empty name falls back to DefaultQueueName.
func NewQueue(rdb *redis.Client, name string, logger logrus.FieldLogger) *Queue {
	if name == "" {
		name = DefaultQueueName
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Queue{rdb: rdb, name: name, logger: logger}
}

// Name returns the Redis list the queue uses.
func (q *Queue) Name() string {
	return q.name
}

// RecordGame publishes the scores of a single game.
func (q *Queue) RecordGame(ctx context.Context, rec models.GameRecord) error {
	return q.push(ctx, Record{
		Kind:    KindGame,
		Players: rec.Players,
		Rounds:  rec.Rounds,
		Game:    &rec,
	})
}

// RecordSimulation publishes the accumulated scores of a simulation.
func (q *Queue) RecordSimulation(ctx context.Context, sum models.SimulationSummary) error {
	msg := sum.Message()
	return q.push(ctx, Record{
		Kind:       KindSimulation,
		Players:    sum.Players,
		Rounds:     sum.Rounds,
		Simulation: &msg,
	})
}

func (q *Queue) push(ctx context.Context, rec Record) error {
	rec.Timestamp = time.Now().UnixMilli()
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", rec.Kind, err)
	}
	if err := q.rdb.RPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.name, err)
	}
	return nil
}

// Pop blocks up to timeout for the next record. It returns false when nothing
// arrived in time. Payloads that are not valid records are logged and dropped.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (Record, bool, error) {
	res, err := q.rdb.BLPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("BLPop %s: %w", q.name, err)
	}
	if len(res) < 2 {
		return Record{}, false, nil
	}

	// res[0] is the queue name and res[1] the payload.
	var rec Record
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		q.logger.WithError(err).Warn("invalid result record")
		return Record{}, false, nil
	}
	return rec, true, nil
}
