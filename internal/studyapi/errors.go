package studyapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StatusError is a non-2xx response. Message is the human-readable part of
// the body, or empty when the body carried nothing usable.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// TransportError covers failures before a response was received: request
// construction and network errors.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: could not complete request: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is a 2xx response whose body could not be understood.
type DecodeError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response (status %d): %v", e.Op, e.StatusCode, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// errorMessage pulls a readable message out of a failure body. JSON bodies
// with a detail, error or message field yield that field; anything else is
// returned as trimmed text.
func errorMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return text
	}
	for _, key := range []string{"detail", "error", "message"} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		if msg := rawMessage(raw); msg != "" {
			return msg
		}
	}
	return text
}

func rawMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	// Validation failures report a list of {loc, msg, type} entries.
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		var msgs []string
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
