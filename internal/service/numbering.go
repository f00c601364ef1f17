package service

import (
	"context"
	"fmt"
	"time"

	"github.com/osmanasaf/reindecar-sub001/internal/repository"
)

const (
	rentalSequence  = "rental"
	invoiceSequence = "invoice"
)

// nextNumber allocates a document number such as RNT-2026-000042. Numbers
// restart every year.
func nextNumber(ctx context.Context, seq repository.SequenceRepository, scope, prefix string, at time.Time) (string, error) {
	year := at.UTC().Year()
	n, err := seq.Next(ctx, scope, year)
	if err != nil {
		return "", fmt.Errorf("allocate %s number: %w", scope, err)
	}
	return fmt.Sprintf("%s-%d-%06d", prefix, year, n), nil
}
