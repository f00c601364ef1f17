package postgres

import (
	"context"
	"database/sql"

	"github.com/osmanasaf/reindecar-sub001/internal/logger"
	"github.com/osmanasaf/reindecar-sub001/internal/repository"
)

type sequenceRepository struct {
	db *sql.DB
}

func NewSequenceRepository(db *sql.DB) repository.SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next increments the counter for (scope, year). The upsert holds the row
// lock until the surrounding transaction ends, so numbers are gap-free only
// when called inside RunInTx.
func (r *sequenceRepository) Next(ctx context.Context, scope string, year int) (int64, error) {
	query := `INSERT INTO document_sequences (scope, year, last_value) VALUES ($1, $2, 1)
	          ON CONFLICT (scope, year) DO UPDATE SET last_value = document_sequences.last_value + 1
	          RETURNING last_value`
	logger.DatabaseCall(ctx, "UPSERT", "document_sequences", "scope", scope, "year", year)
	var next int64
	if err := conn(ctx, r.db).QueryRowContext(ctx, query, scope, year).Scan(&next); err != nil {
		err = mapError(err)
		logger.DatabaseResult(ctx, "UPSERT", 0, err)
		return 0, err
	}
	return next, nil
}
