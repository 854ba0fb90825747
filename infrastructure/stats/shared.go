// Package stats provides the significance machinery behind system
// rankings: the Wilcoxon signed-rank test, Stouffer's p-value combination,
// and a pairwise tester that fills a domain.PValueMatrix for one language
// pair.
package stats

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Alternative selects the alternative hypothesis of the signed-rank test.
type Alternative string

// Supported alternative hypotheses.
const (
	// AlternativeGreater tests whether the differences are shifted above
	// zero, i.e. whether A scores higher than B for diffs A-B.
	AlternativeGreater Alternative = "greater"

	// AlternativeLess tests whether the differences are shifted below zero.
	AlternativeLess Alternative = "less"

	// AlternativeTwoSided tests for a shift in either direction.
	AlternativeTwoSided Alternative = "two-sided"
)

// Mode selects how paired samples are tested.
type Mode string

// Supported testing modes.
const (
	// ModeMacro tests each domain separately and combines the per-domain
	// p-values with Stouffer's method.
	ModeMacro Mode = "macro"

	// ModeMicro tests the pooled paired sample once.
	ModeMicro Mode = "micro"
)

// Common errors returned by the statistics functions.
var (
	// ErrDegenerateSample is returned when a difference vector has no
	// non-zero entries, which leaves the signed-rank statistic undefined.
	ErrDegenerateSample = errors.New("degenerate sample: no non-zero differences")

	// ErrNoPValues is returned when Stouffer's method receives no inputs.
	ErrNoPValues = errors.New("no p-values to combine")

	// ErrWeightMismatch is returned when weights and p-values differ in length.
	ErrWeightMismatch = errors.New("weights and p-values length mismatch")

	// ErrInvalidWeight is returned for negative, NaN, or all-zero weights.
	ErrInvalidWeight = errors.New("invalid Stouffer weight")

	// ErrUnknownAlternative is returned for an unsupported alternative.
	ErrUnknownAlternative = errors.New("unknown alternative hypothesis")

	// ErrEmptyTesterName is returned when a tester is created without a name.
	ErrEmptyTesterName = errors.New("tester name cannot be empty")
)

// Package-level validator instance for configuration validation.
var validate = validator.New()
