package chunker

import (
	"fmt"
	"regexp"
	"strings"
)

// Config controls chunking behavior. Sizes are in characters.
type Config struct {
	MaxChars int // Target max characters per chunk.
	Overlap  int // Characters repeated between consecutive chunks.
}

// DefaultConfig returns the window the study service uses.
func DefaultConfig() Config {
	return Config{
		MaxChars: 1200,
		Overlap:  150,
	}
}

// Validate rejects windows that cannot make progress.
func (c Config) Validate() error {
	if c.MaxChars <= 0 {
		return fmt.Errorf("max chars must be > 0, got %d", c.MaxChars)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("overlap must be >= 0, got %d", c.Overlap)
	}
	if c.Overlap >= c.MaxChars {
		return fmt.Errorf("overlap (%d) must be smaller than max chars (%d)", c.Overlap, c.MaxChars)
	}
	return nil
}

var (
	manyNewlines = regexp.MustCompile(`\n{3,}`)
	manySpaces   = regexp.MustCompile(`[ \t]{2,}`)
)

// Normalize unifies line endings, collapses runs of blank lines to one and
// runs of spaces or tabs to a single space.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = manyNewlines.ReplaceAllString(text, "\n\n")
	text = manySpaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Split normalizes text and cuts it into overlapping windows of at most
// cfg.MaxChars characters. Empty windows are dropped.
func Split(text string, cfg Config) ([]string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runes := []rune(Normalize(text))
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	step := cfg.MaxChars - cfg.Overlap
	var chunks []string
	for start := 0; start < n; start += step {
		end := min(start+cfg.MaxChars, n)
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= n {
			break
		}
	}
	return chunks, nil
}
