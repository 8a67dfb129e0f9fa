// internal/results/store.go
package results

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/jason-s-yu/card-roulette/internal/game"
	"github.com/jason-s-yu/card-roulette/internal/models"
	"github.com/sirupsen/logrus"
)

// TotalsFileName is the aggregate file kept at the root of the results directory.
const TotalsFileName = "total_results.json"

// ErrMalformedResults is returned when a results file exists but cannot be parsed.
var ErrMalformedResults = errors.New("malformed results file")

// Totals maps "<N>_players" -> "<R>_rounds" -> every simulation run with that configuration.
type Totals map[string]map[string][]models.SimulationSummary

// FileStore persists simulation results under a results directory:
//
//	<dir>/<N>_players/<R>_rounds/<simulation-id>.csv
//	<dir>/total_results.json
type FileStore struct {
	Dir    string
	logger logrus.FieldLogger
}

// NewFileStore returns a store rooted at dir. Directories are created on first write.
func NewFileStore(dir string, logger logrus.FieldLogger) *FileStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FileStore{Dir: dir, logger: logger}
}

// RoundsDir returns the directory holding the CSV files of a configuration.
func (s *FileStore) RoundsDir(players, rounds int) string {
	return filepath.Join(s.Dir, models.PlayersKey(players), models.RoundsKey(rounds))
}

// CSVPath returns the per-game CSV file of a simulation.
func (s *FileStore) CSVPath(players, rounds int, id uuid.UUID) string {
	return filepath.Join(s.RoundsDir(players, rounds), id.String()+".csv")
}

// TotalsPath returns the aggregate JSON file.
func (s *FileStore) TotalsPath() string {
	return filepath.Join(s.Dir, TotalsFileName)
}

// RecordGame appends a row "game_number,score_0,score_1,..." to the simulation CSV.
func (s *FileStore) RecordGame(_ context.Context, rec models.GameRecord) error {
	dir := s.RoundsDir(rec.Players, rec.Rounds)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create results directory: %w", err)
	}

	path := s.CSVPath(rec.Players, rec.Rounds, rec.SimulationID)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	row := make([]string, 0, len(rec.Scores)+1)
	row = append(row, strconv.Itoa(rec.GameNumber))
	for _, score := range rec.Scores {
		row = append(row, strconv.Itoa(score))
	}

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// RecordSimulation adds the summary to the aggregate JSON file. An entry with the
// same simulation id is replaced in place; other entries are kept. An unreadable
// aggregate is reported and left untouched.
func (s *FileStore) RecordSimulation(_ context.Context, sum models.SimulationSummary) error {
	totals, err := s.LoadTotals()
	if err != nil {
		return err
	}

	playersKey := models.PlayersKey(sum.Players)
	roundsKey := models.RoundsKey(sum.Rounds)
	if totals[playersKey] == nil {
		totals[playersKey] = map[string][]models.SimulationSummary{}
	}
	totals[playersKey][roundsKey] = upsertSummary(totals[playersKey][roundsKey], sum)

	if err := s.writeTotals(totals); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"simulation": sum.SimulationID,
		"players":    sum.Players,
		"rounds":     sum.Rounds,
		"games":      sum.NumGames,
	}).Info("aggregate results written")
	return nil
}

// LoadTotals reads the aggregate JSON file. A missing file yields empty totals.
func (s *FileStore) LoadTotals() (Totals, error) {
	path := s.TotalsPath()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Totals{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	totals := Totals{}
	if err := json.Unmarshal(data, &totals); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResults, path, err)
	}
	return totals, nil
}

// ReadSimulation rebuilds a simulation summary from its per-game CSV file.
func (s *FileStore) ReadSimulation(players, rounds int, id uuid.UUID) (models.SimulationSummary, error) {
	if err := game.ValidateConfig(players, rounds); err != nil {
		return models.SimulationSummary{}, err
	}
	sum := models.SimulationSummary{
		SimulationID: id,
		Scores:       make([]int, players),
		Players:      players,
		Rounds:       rounds,
	}

	path := s.CSVPath(players, rounds, id)
	f, err := os.Open(path)
	if err != nil {
		return sum, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = players + 1
	for line := 1; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, fmt.Errorf("%w: %s: %v", ErrMalformedResults, path, err)
		}
		for i, field := range row[1:] {
			score, err := strconv.Atoi(field)
			if err != nil || score < 0 {
				return sum, fmt.Errorf("%w: %s line %d: bad score %q", ErrMalformedResults, path, line, field)
			}
			sum.Scores[i] += score
		}
		sum.NumGames++
	}
	return sum, nil
}

func upsertSummary(entries []models.SimulationSummary, sum models.SimulationSummary) []models.SimulationSummary {
	for i, e := range entries {
		if e.SimulationID == sum.SimulationID {
			entries[i] = sum
			return entries
		}
	}
	return append(entries, sum)
}

// writeTotals replaces the aggregate file through a temporary file in the same directory.
func (s *FileStore) writeTotals(totals Totals) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create results directory: %w", err)
	}
	data, err := json.MarshalIndent(totals, "", "    ")
	if err != nil {
		return fmt.Errorf("encode totals: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, ".total_results-*.json")
	if err != nil {
		return fmt.Errorf("create temp totals: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("chmod temp totals: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp totals: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp totals: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.TotalsPath()); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", s.TotalsPath(), err)
	}
	return nil
}
