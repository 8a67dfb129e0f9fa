// internal/database/simulation.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/card-roulette/internal/models"
)

// Store persists simulation results to PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an open pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// RecordGame stores the scores of one game, creating the simulation row if needed.
func (s *Store) RecordGame(ctx context.Context, rec models.GameRecord) error {
	return s.RecordBatch(ctx, []models.GameRecord{rec}, nil)
}

// RecordSimulation marks a simulation completed with its accumulated scores.
func (s *Store) RecordSimulation(ctx context.Context, sum models.SimulationSummary) error {
	return s.RecordBatch(ctx, nil, []models.SimulationSummary{sum})
}

// RecordBatch writes games, then summaries, in a single transaction.
func (s *Store) RecordBatch(ctx context.Context, games []models.GameRecord, sums []models.SimulationSummary) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range games {
			if err := insertGameTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert game %d of %s: %w", rec.GameNumber, rec.SimulationID, err)
			}
		}
		for _, sum := range sums {
			if err := finalizeSimulationTx(ctx, tx, sum); err != nil {
				return fmt.Errorf("finalize simulation %s: %w", sum.SimulationID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx record results: %w", err)
	}
	return nil
}

// Simulation loads the stored summary of a simulation.
func (s *Store) Simulation(ctx context.Context, id uuid.UUID) (models.SimulationSummary, error) {
	var sum models.SimulationSummary
	q := `SELECT id, players, rounds, num_games, COALESCE(scores, '{}') FROM simulations WHERE id = $1`
	err := s.pool.QueryRow(ctx, q, id).Scan(&sum.SimulationID, &sum.Players, &sum.Rounds, &sum.NumGames, &sum.Scores)
	if err != nil {
		return sum, fmt.Errorf("load simulation: %w", err)
	}
	return sum, nil
}

// GameScores loads the per-game scores of a simulation ordered by game number.
func (s *Store) GameScores(ctx context.Context, id uuid.UUID) ([][]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT scores FROM simulation_games WHERE simulation_id = $1 ORDER BY game_number`, id)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	scores, err := pgx.CollectRows(rows, pgx.RowTo[[]int])
	if err != nil {
		return nil, fmt.Errorf("scan games: %w", err)
	}
	return scores, nil
}

func insertGameTx(ctx context.Context, tx pgx.Tx, rec models.GameRecord) error {
	upsertSimulationQ := `
		INSERT INTO simulations (id, players, rounds, status)
		VALUES ($1, $2, $3, 'running')
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertSimulationQ, rec.SimulationID, rec.Players, rec.Rounds); err != nil {
		return err
	}

	insertGameQ := `
		INSERT INTO simulation_games (simulation_id, game_number, scores)
		VALUES ($1, $2, $3)
		ON CONFLICT (simulation_id, game_number)
		DO UPDATE SET scores = EXCLUDED.scores
	`
	_, err := tx.Exec(ctx, insertGameQ, rec.SimulationID, rec.GameNumber, rec.Scores)
	return err
}

func finalizeSimulationTx(ctx context.Context, tx pgx.Tx, sum models.SimulationSummary) error {
	q := `
		INSERT INTO simulations (id, players, rounds, status, num_games, scores, end_time)
		VALUES ($1, $2, $3, 'completed', $4, $5, NOW())
		ON CONFLICT (id)
		DO UPDATE SET status = 'completed', num_games = $4, scores = $5, end_time = NOW()
	`
	_, err := tx.Exec(ctx, q, sum.SimulationID, sum.Players, sum.Rounds, sum.NumGames, sum.Scores)
	return err
}
