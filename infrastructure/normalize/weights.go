package normalize

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategoryWeight indicates an MQM severity/category combination
// with no defined weight. It is fatal for the file being read.
var ErrUnknownCategoryWeight = errors.New("unknown MQM category weight")

// MQM severities.
const (
	SeverityNoError  = "No-error"
	SeverityMinor    = "minor"
	SeverityMajor    = "major"
	SeverityCritical = "critical"
)

// categoryWeights override the severity weight for whole categories.
var categoryWeights = map[string]float64{
	"Non-translation!": -25,
	"Source issue":     0,
}

// MQMWeight returns the penalty of one MQM error annotation. Rules apply in
// order:
//
//	No-error severity or a Reinterpretation category  0
//	Non-translation!                                  -25
//	Source issue                                      0
//	minor Fluency/Punctuation                         -0.1
//	minor                                             -1
//	major or critical                                 -5
//
// Anything else fails with ErrUnknownCategoryWeight.
func MQMWeight(severity, category string) (float64, error) {
	if severity == SeverityNoError || strings.Contains(category, "Reinterpretation") {
		return 0, nil
	}
	if w, ok := categoryWeights[category]; ok {
		return w, nil
	}
	switch severity {
	case SeverityMinor:
		if strings.Contains(category, "Fluency/Punctuation") {
			return -0.1, nil
		}
		return -1, nil
	case SeverityMajor, SeverityCritical:
		return -5, nil
	}
	return 0, fmt.Errorf("%w: severity=%q category=%q", ErrUnknownCategoryWeight, severity, category)
}
