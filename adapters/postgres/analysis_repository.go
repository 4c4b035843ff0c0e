package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"prevalence/domain/prevalence"
	"prevalence/internal/errors"
	"prevalence/ports"
)

// analysisRepository implements ports.AnalysisRepository on postgres.
type analysisRepository struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *sqlx.DB) ports.AnalysisRepository {
	return &analysisRepository{db: db}
}

// Migrate creates the analyses table if it does not exist.
func Migrate(db *sqlx.DB) error {
	schema := `CREATE TABLE IF NOT EXISTS analyses (
		id UUID PRIMARY KEY,
		study_name TEXT NOT NULL DEFAULT '',
		positive_count INTEGER NOT NULL,
		total_count INTEGER NOT NULL,
		test_config JSONB NOT NULL,
		bayes_config JSONB NOT NULL,
		frequentist JSONB NOT NULL,
		bayes JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return errors.Wrap(err, "failed to create analyses table")
	}
	return nil
}

// Store inserts a completed analysis
func (r *analysisRepository) Store(ctx context.Context, a *prevalence.Analysis) error {
	testConfig, err := json.Marshal(a.TestConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal test config: %w", err)
	}
	bayesConfig, err := json.Marshal(a.BayesConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal bayes config: %w", err)
	}
	frequentist, err := json.Marshal(a.Frequentist)
	if err != nil {
		return fmt.Errorf("failed to marshal frequentist result: %w", err)
	}
	bayes, err := json.Marshal(a.Bayes)
	if err != nil {
		return fmt.Errorf("failed to marshal bayes summary: %w", err)
	}

	query := `INSERT INTO analyses (
		id, study_name, positive_count, total_count,
		test_config, bayes_config, frequentist, bayes, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.ExecContext(ctx, query,
		a.ID, a.StudyName, a.K, a.N,
		testConfig, bayesConfig, frequentist, bayes, a.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to store analysis")
	}
	return nil
}

// GetByID retrieves an analysis by its ID
func (r *analysisRepository) GetByID(ctx context.Context, id uuid.UUID) (*prevalence.Analysis, error) {
	query := `SELECT
		id, study_name, positive_count, total_count,
		test_config, bayes_config, frequentist, bayes, created_at
	FROM analyses WHERE id = $1`

	a, err := r.scanAnalysis(r.db.QueryRowxContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("analysis")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get analysis")
	}
	return a, nil
}

// List returns the most recent analyses, newest first
func (r *analysisRepository) List(ctx context.Context, limit int) ([]*prevalence.Analysis, error) {
	query := `SELECT
		id, study_name, positive_count, total_count,
		test_config, bayes_config, frequentist, bayes, created_at
	FROM analyses ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list analyses")
	}
	defer rows.Close()

	var analyses []*prevalence.Analysis
	for rows.Next() {
		a, err := r.scanAnalysis(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan analysis row")
		}
		analyses = append(analyses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate analyses")
	}
	return analyses, nil
}

// rowScanner covers both *sqlx.Row and *sqlx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *analysisRepository) scanAnalysis(row rowScanner) (*prevalence.Analysis, error) {
	var a prevalence.Analysis
	var testConfig, bayesConfig, frequentist, bayes []byte

	err := row.Scan(
		&a.ID, &a.StudyName, &a.K, &a.N,
		&testConfig, &bayesConfig, &frequentist, &bayes, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(testConfig, &a.TestConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal test config: %w", err)
	}
	if err := json.Unmarshal(bayesConfig, &a.BayesConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bayes config: %w", err)
	}
	if err := json.Unmarshal(frequentist, &a.Frequentist); err != nil {
		return nil, fmt.Errorf("failed to unmarshal frequentist result: %w", err)
	}
	if err := json.Unmarshal(bayes, &a.Bayes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bayes summary: %w", err)
	}
	return &a, nil
}
