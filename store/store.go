package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"gonum.org/v1/gonum/mat"
	_ "modernc.org/sqlite"

	"github.com/bobonovski/ldagibbs/model"
)

var ErrRunNotFound = errors.New("store: run not found")

// Store keeps fitted models in a SQLite database. A stored run holds
// the configuration, the vocabulary size, the log-likelihood and phi,
// which is all inference needs.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// RunInfo describes a stored run without its matrix.
type RunInfo struct {
	ID            string
	CreatedAt     time.Time
	Topics        int
	VocabSize     int
	LogLikelihood float64
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:      db,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	topics INTEGER NOT NULL,
	vocab_size INTEGER NOT NULL,
	alpha REAL NOT NULL,
	beta REAL NOT NULL,
	iterations INTEGER NOT NULL,
	burn_in INTEGER NOT NULL,
	thin_interval INTEGER NOT NULL,
	sample_lag INTEGER NOT NULL,
	log_likelihood REAL
);

CREATE TABLE IF NOT EXISTS phi (
	run_id TEXT NOT NULL,
	topic INTEGER NOT NULL,
	word INTEGER NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY(run_id, topic, word),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *Store) newID(now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(now), s.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Save stores a fitted model and returns its run id. Run ids sort by
// creation time.
func (s *Store) Save(ctx context.Context, f *model.Fitted) (string, error) {
	if f == nil || f.Phi == nil {
		return "", fmt.Errorf("store: nothing to save")
	}
	topics, vocabSize := f.Phi.Dims()
	if topics != f.Config.Topics || vocabSize != f.VocabSize {
		return "", fmt.Errorf("store: phi is %dx%d, run has %d topics over %d words",
			topics, vocabSize, f.Config.Topics, f.VocabSize)
	}

	now := time.Now().UTC()
	id, err := s.newID(now)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var ll sql.NullFloat64
	if !math.IsNaN(f.LogLikelihood) && !math.IsInf(f.LogLikelihood, 0) {
		ll = sql.NullFloat64{Float64: f.LogLikelihood, Valid: true}
	}
	cfg := f.Config
	if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (id, created_at, topics, vocab_size, alpha, beta,
	iterations, burn_in, thin_interval, sample_lag, log_likelihood)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, now.Format(time.RFC3339Nano), cfg.Topics, f.VocabSize, cfg.Alpha, cfg.Beta,
		cfg.Iterations, cfg.BurnIn, cfg.ThinInterval, cfg.SampleLag, ll); err != nil {
		return "", err
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO phi (run_id, topic, word, value) VALUES (?, ?, ?, ?)")
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for k := 0; k < topics; k += 1 {
		for w := 0; w < vocabSize; w += 1 {
			v := f.Phi.At(k, w)
			if v == 0 {
				continue
			}
			if _, err := stmt.ExecContext(ctx, id, k, w, v); err != nil {
				return "", err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// Load returns the stored model with the given id. Theta is not kept
// by the store and is nil.
func (s *Store) Load(ctx context.Context, id string) (*model.Fitted, error) {
	f := &model.Fitted{}
	var ll sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
SELECT topics, vocab_size, alpha, beta, iterations, burn_in,
	thin_interval, sample_lag, log_likelihood
FROM runs WHERE id = ?`, id).Scan(
		&f.Config.Topics, &f.VocabSize, &f.Config.Alpha, &f.Config.Beta,
		&f.Config.Iterations, &f.Config.BurnIn, &f.Config.ThinInterval,
		&f.Config.SampleLag, &ll)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	f.LogLikelihood = math.NaN()
	if ll.Valid {
		f.LogLikelihood = ll.Float64
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT topic, word, value FROM phi WHERE run_id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	f.Phi = mat.NewDense(f.Config.Topics, f.VocabSize, nil)
	for rows.Next() {
		var k, w int
		var v float64
		if err := rows.Scan(&k, &w, &v); err != nil {
			return nil, err
		}
		if k < 0 || k >= f.Config.Topics || w < 0 || w >= f.VocabSize {
			return nil, fmt.Errorf("store: run %s has phi entry [%d, %d] outside %dx%d",
				id, k, w, f.Config.Topics, f.VocabSize)
		}
		f.Phi.Set(k, w, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// List returns the stored runs, newest first.
func (s *Store) List(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, created_at, topics, vocab_size, log_likelihood
FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var info RunInfo
		var created string
		var ll sql.NullFloat64
		if err := rows.Scan(&info.ID, &created, &info.Topics, &info.VocabSize, &ll); err != nil {
			return nil, err
		}
		info.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, err
		}
		info.LogLikelihood = math.NaN()
		if ll.Valid {
			info.LogLikelihood = ll.Float64
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// Delete removes a run and its matrix.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// pragmas are per connection, so the cascade is not relied on
	if _, err := tx.ExecContext(ctx, "DELETE FROM phi WHERE run_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return tx.Commit()
}
