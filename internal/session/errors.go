package session

import "errors"

var (
	ErrNoDocument           = errors.New("no active document")
	ErrUploadInProgress     = errors.New("upload already in progress")
	ErrAnalysisInProgress   = errors.New("analysis already in progress")
	ErrSuperseded           = errors.New("session changed while request was in flight")
	ErrInvalidMode          = errors.New("invalid mode")
	ErrInvalidDifficulty    = errors.New("invalid difficulty")
	ErrInvalidQuestionCount = errors.New("invalid question count")
)

// IsValidation reports whether err was rejected locally without a network call.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNoDocument) ||
		errors.Is(err, ErrInvalidMode) ||
		errors.Is(err, ErrInvalidDifficulty) ||
		errors.Is(err, ErrInvalidQuestionCount)
}
