package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/dgallion1/studybuddy/internal/studyapi"
)

// API is the subset of the study service the controller calls.
type API interface {
	Upload(ctx context.Context, filename string, content io.Reader) (*studyapi.UploadResponse, error)
	Study(ctx context.Context, payload any) (*studyapi.StudyResponse, int, error)
}

// Session is an accepted document. It exists only after a successful
// upload; a nil *Session means no document is active.
type Session struct {
	DocID      string
	ChunkCount int
	Preview    string
}

// Result is the outcome of one successful analysis call.
type Result struct {
	Mode       string
	DocID      string
	Output     string
	UsedChunks int
	Warnings   []string
}

// File is a document selected for upload.
type File struct {
	Name    string
	Content io.Reader
}

// Messages recorded in the per-operation error slots.
const (
	msgNoDocument     = "Upload a document first"
	msgUploadFailed   = "Upload failed"
	msgTransport      = "could not complete request"
	msgUnexpectedBody = "unexpected response from service"
)

// Controller is the client-side workflow state machine: one document
// session, the analysis form, the latest result and the busy state of the
// two operation classes. All methods are safe for concurrent use; network
// calls run without holding the lock.
type Controller struct {
	api API
	log *slog.Logger

	mu          sync.Mutex
	epoch       Epoch
	session     *Session
	result      *Result
	form        Form
	uploadErr   string
	analysisErr string
	lastStatus  int
	uploading   bool
	analyzing   bool
}

// New returns a controller with the default form and no session.
func New(api API, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		api:  api,
		log:  log,
		form: DefaultForm(),
	}
}

// Upload sends f to the intake endpoint and, on success, replaces the
// active session. A nil file is a no-op. Starting an intake clears the
// displayed analysis; only a successful intake advances the generation, so
// an analysis in flight for a session that survives a failed intake still
// commits.
func (c *Controller) Upload(ctx context.Context, f *File) error {
	if f == nil || f.Content == nil {
		return nil
	}

	c.mu.Lock()
	if c.uploading {
		c.mu.Unlock()
		return ErrUploadInProgress
	}
	c.uploading = true
	c.uploadErr = ""
	c.clearAnalysisLocked()
	tok := c.epoch.Current()
	c.mu.Unlock()

	log := c.log.With("op", "upload", "filename", f.Name, "token", tok)
	log.Debug("upload started")

	resp, err := c.api.Upload(ctx, f.Name, f.Content)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.uploading = false

	if !c.epoch.Valid(tok) {
		log.Info("discarding stale upload completion", "error", err)
		return ErrSuperseded
	}
	if err != nil {
		c.uploadErr = uploadMessage(err)
		log.Warn("upload failed", "error", err)
		return err
	}

	c.session = &Session{
		DocID:      resp.DocID,
		ChunkCount: valueOr(resp.ChunkCount, 0),
		Preview:    valueOr(resp.Preview, ""),
	}
	c.clearAnalysisLocked()
	c.epoch.Advance()
	log.Info("document accepted", "doc_id", resp.DocID, "chunks", c.session.ChunkCount)
	return nil
}

// Analyze submits the current form against the active session.
func (c *Controller) Analyze(ctx context.Context) error {
	c.mu.Lock()
	form := c.form
	c.mu.Unlock()

	req, err := form.Request()
	if err != nil {
		c.mu.Lock()
		// A missing document takes precedence over form problems.
		if c.session == nil {
			err = ErrNoDocument
		}
		if !c.analyzing {
			c.analysisErr = analysisMessage(err, 0)
		}
		c.mu.Unlock()
		return err
	}
	return c.AnalyzeWith(ctx, req)
}

// AnalyzeWith submits req against the active session. Without a session it
// fails with ErrNoDocument before any flag is set or request is sent.
func (c *Controller) AnalyzeWith(ctx context.Context, req Request) error {
	c.mu.Lock()
	if c.session == nil {
		if !c.analyzing {
			c.analysisErr = msgNoDocument
		}
		c.mu.Unlock()
		return ErrNoDocument
	}
	if c.analyzing {
		c.mu.Unlock()
		return ErrAnalysisInProgress
	}
	if err := validateRequest(req); err != nil {
		c.analysisErr = analysisMessage(err, 0)
		c.mu.Unlock()
		return err
	}
	c.analyzing = true
	c.analysisErr = ""
	c.lastStatus = 0
	tok := c.epoch.Current()
	docID := c.session.DocID
	c.mu.Unlock()

	log := c.log.With("op", "analyze", "doc_id", docID, "mode", req.Mode(), "token", tok)
	log.Debug("analysis started")

	resp, status, err := c.api.Study(ctx, Payload(docID, req))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.analyzing = false

	if !c.epoch.Valid(tok) {
		log.Info("discarding stale analysis completion", "status", status, "error", err)
		return ErrSuperseded
	}

	c.lastStatus = status
	if err != nil {
		c.analysisErr = analysisMessage(err, status)
		log.Warn("analysis failed", "status", status, "error", err)
		return err
	}

	if resp.DocID != "" && resp.DocID != docID {
		log.Warn("service answered for a different document", "response_doc_id", resp.DocID)
	}
	c.result = &Result{
		Mode:       resp.Mode,
		DocID:      resp.DocID,
		Output:     resp.Output,
		UsedChunks: resp.UsedChunks,
		Warnings:   slices.Clone(resp.Warnings),
	}
	log.Info("analysis complete", "status", status, "used_chunks", resp.UsedChunks)
	return nil
}

// Reset discards the session, result, errors and last status and restores
// the form defaults. In-flight calls are not aborted; their completions are
// discarded when they arrive.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch.Advance()
	c.session = nil
	c.result = nil
	c.uploadErr = ""
	c.analysisErr = ""
	c.lastStatus = 0
	c.form = DefaultForm()
	c.log.Debug("session reset", "token", c.epoch.Current())
}

// SetMode changes the analysis mode.
func (c *Controller) SetMode(m Mode) error {
	m, err := ParseMode(string(m))
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Mode = m
	return nil
}

// SetFocus stores the explain focus as typed; trimming happens when the
// request is built.
func (c *Controller) SetFocus(focus string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Focus = focus
}

// SetQuestionCount changes the quiz length.
func (c *Controller) SetQuestionCount(n int) error {
	if n < MinQuestions || n > MaxQuestions {
		return fmt.Errorf("%w: %d (want %d-%d)", ErrInvalidQuestionCount, n, MinQuestions, MaxQuestions)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.NumQuestions = n
	return nil
}

// SetDifficulty changes the quiz difficulty.
func (c *Controller) SetDifficulty(d Difficulty) error {
	d, err := ParseDifficulty(string(d))
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Difficulty = d
	return nil
}

// State is a point-in-time copy of the controller.
type State struct {
	Session       *Session
	Result        *Result
	Form          Form
	UploadError   string
	AnalysisError string
	LastStatus    int
	Uploading     bool
	Analyzing     bool
}

// Guard returns the action permissions implied by the state.
func (s State) Guard() Guard {
	return Guard{
		HasSession: s.Session != nil,
		Uploading:  s.Uploading,
		Analyzing:  s.Analyzing,
	}
}

// State returns a copy safe to read without further locking.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		Form:          c.form,
		UploadError:   c.uploadErr,
		AnalysisError: c.analysisErr,
		LastStatus:    c.lastStatus,
		Uploading:     c.uploading,
		Analyzing:     c.analyzing,
	}
	if c.session != nil {
		s := *c.session
		st.Session = &s
	}
	if c.result != nil {
		r := *c.result
		r.Warnings = slices.Clone(c.result.Warnings)
		st.Result = &r
	}
	return st
}

func (c *Controller) clearAnalysisLocked() {
	c.result = nil
	c.analysisErr = ""
	c.lastStatus = 0
}

func uploadMessage(err error) string {
	var statusErr *studyapi.StatusError
	var transportErr *studyapi.TransportError
	var decodeErr *studyapi.DecodeError
	switch {
	case errors.As(err, &statusErr):
		if statusErr.Message != "" {
			return statusErr.Message
		}
		return msgUploadFailed
	case errors.As(err, &transportErr):
		return msgTransport
	case errors.As(err, &decodeErr):
		return msgUnexpectedBody
	}
	return msgUploadFailed
}

func analysisMessage(err error, status int) string {
	var statusErr *studyapi.StatusError
	var transportErr *studyapi.TransportError
	var decodeErr *studyapi.DecodeError
	switch {
	case errors.Is(err, ErrNoDocument):
		return msgNoDocument
	case IsValidation(err):
		return err.Error()
	case errors.As(err, &statusErr):
		if statusErr.Message != "" {
			return statusErr.Message
		}
		return fmt.Sprintf("Analysis failed (%d)", statusErr.StatusCode)
	case errors.As(err, &transportErr):
		return msgTransport
	case errors.As(err, &decodeErr):
		return fmt.Sprintf("%s (%d)", msgUnexpectedBody, status)
	}
	return fmt.Sprintf("Analysis failed (%d)", status)
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
