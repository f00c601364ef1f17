// Package validation holds the business rules a booking request must pass
// before a rental is created.
package validation

import (
	"context"
	"fmt"

	"github.com/osmanasaf/reindecar-sub001/internal/domain"
	"github.com/osmanasaf/reindecar-sub001/internal/logger"
)

// Rule vetoes a request by returning an error.
type Rule interface {
	Name() string
	Validate(ctx context.Context, req *domain.RentalRequest) error
}

// RuleError names the rule that rejected a request.
type RuleError struct {
	Rule string
	Err  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s: %v", e.Rule, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// Pipeline runs its rules one after another in registration order and stops
// at the first failure.
type Pipeline struct {
	rules []Rule
}

func NewPipeline(rules ...Rule) *Pipeline {
	return &Pipeline{rules: rules}
}

func (p *Pipeline) Register(rule Rule) {
	p.rules = append(p.rules, rule)
}

func (p *Pipeline) RuleNames() []string {
	names := make([]string, len(p.rules))
	for i, r := range p.rules {
		names[i] = r.Name()
	}
	return names
}

func (p *Pipeline) Validate(ctx context.Context, req *domain.RentalRequest) error {
	for _, rule := range p.rules {
		if err := rule.Validate(ctx, req); err != nil {
			logger.InfoContext(ctx, "Rental request rejected", "rule", rule.Name(), "error", err)
			return &RuleError{Rule: rule.Name(), Err: err}
		}
	}
	return nil
}
