package domain

import dErrors "lexaudit/pkg/domain-errors"

// EvaluationStatus is the compliance judgement assigned to a requirement.
// The wire values are kept from the upstream system, French included.
type EvaluationStatus string

const (
	EvaluationApplicable     EvaluationStatus = "applicable"
	EvaluationNonApplicable  EvaluationStatus = "non-applicable"
	EvaluationToVerify       EvaluationStatus = "à vérifier"
	EvaluationForInformation EvaluationStatus = "pour information"
)

var validEvaluationStatuses = map[EvaluationStatus]bool{
	EvaluationApplicable:     true,
	EvaluationNonApplicable:  true,
	EvaluationToVerify:       true,
	EvaluationForInformation: true,
}

// DefaultEvaluationStatus is what a requirement reports before anyone has
// evaluated it.
const DefaultEvaluationStatus = EvaluationToVerify

// ParseEvaluationStatus constructs an EvaluationStatus from external input.
func ParseEvaluationStatus(s string) (EvaluationStatus, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status is required")
	}
	st := EvaluationStatus(s)
	if !validEvaluationStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput,
			"invalid status, must be one of: applicable, non-applicable, à vérifier, pour information")
	}
	return st, nil
}

// IsValid reports whether the status is one of the supported values.
func (s EvaluationStatus) IsValid() bool { return validEvaluationStatuses[s] }

func (s EvaluationStatus) String() string { return string(s) }
