package session

import (
	"fmt"
	"strings"
)

// Mode selects the kind of analysis the service runs.
type Mode string

const (
	ModeSummarize Mode = "summarize"
	ModeExplain   Mode = "explain"
	ModeQuiz      Mode = "quiz"
)

// Difficulty applies to quiz requests only.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question count bounds accepted by the service.
const (
	MinQuestions = 1
	MaxQuestions = 50
)

// ParseMode accepts a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeSummarize, ModeExplain, ModeQuiz:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// ParseDifficulty accepts a difficulty name case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
}

// Request is one analysis variant. Each variant carries only the fields its
// mode uses, so a serialized request can never include another mode's
// parameters.
type Request interface {
	Mode() Mode
	payload(docID string) any
}

// Summarize asks for a summary of the whole document.
type Summarize struct{}

// Explain asks for an explanation, optionally narrowed to Focus.
type Explain struct {
	Focus string
}

// Quiz asks for NumQuestions questions at the given difficulty.
type Quiz struct {
	NumQuestions int
	Difficulty   Difficulty
}

func (Summarize) Mode() Mode { return ModeSummarize }
func (Explain) Mode() Mode   { return ModeExplain }
func (Quiz) Mode() Mode      { return ModeQuiz }

type summarizePayload struct {
	DocID string `json:"doc_id"`
	Mode  Mode   `json:"mode"`
}

type explainPayload struct {
	DocID string `json:"doc_id"`
	Mode  Mode   `json:"mode"`
	Focus string `json:"focus,omitempty"`
}

type quizPayload struct {
	DocID        string     `json:"doc_id"`
	Mode         Mode       `json:"mode"`
	NumQuestions int        `json:"num_questions"`
	Difficulty   Difficulty `json:"difficulty"`
}

func (Summarize) payload(docID string) any {
	return summarizePayload{DocID: docID, Mode: ModeSummarize}
}

func (r Explain) payload(docID string) any {
	return explainPayload{DocID: docID, Mode: ModeExplain, Focus: strings.TrimSpace(r.Focus)}
}

func (r Quiz) payload(docID string) any {
	return quizPayload{DocID: docID, Mode: ModeQuiz, NumQuestions: r.NumQuestions, Difficulty: r.Difficulty}
}

// Payload returns the JSON body for req against docID.
func Payload(docID string, req Request) any {
	return req.payload(docID)
}

func validateRequest(req Request) error {
	switch r := req.(type) {
	case Summarize, Explain:
		return nil
	case Quiz:
		if r.NumQuestions < MinQuestions || r.NumQuestions > MaxQuestions {
			return fmt.Errorf("%w: %d (want %d-%d)", ErrInvalidQuestionCount, r.NumQuestions, MinQuestions, MaxQuestions)
		}
		switch r.Difficulty {
		case DifficultyEasy, DifficultyMedium, DifficultyHard:
			return nil
		}
		return fmt.Errorf("%w: %q", ErrInvalidDifficulty, r.Difficulty)
	case nil:
		return fmt.Errorf("%w: no request", ErrInvalidMode)
	default:
		return fmt.Errorf("%w: %T", ErrInvalidMode, req)
	}
}

// Form holds the user's analysis inputs across submissions. Fields not used
// by the current mode are kept so switching modes back restores them.
type Form struct {
	Mode         Mode
	Focus        string
	NumQuestions int
	Difficulty   Difficulty
}

// DefaultForm is the state a fresh or reset session starts with.
func DefaultForm() Form {
	return Form{
		Mode:         ModeSummarize,
		Focus:        "",
		NumQuestions: 5,
		Difficulty:   DifficultyMedium,
	}
}

// Request builds the variant for the form's current mode.
func (f Form) Request() (Request, error) {
	var req Request
	switch f.Mode {
	case ModeSummarize:
		req = Summarize{}
	case ModeExplain:
		req = Explain{Focus: f.Focus}
	case ModeQuiz:
		req = Quiz{NumQuestions: f.NumQuestions, Difficulty: f.Difficulty}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, f.Mode)
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}
