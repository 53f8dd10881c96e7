package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/studybuddy/internal/render"
	"github.com/dgallion1/studybuddy/internal/session"
	"github.com/dgallion1/studybuddy/internal/studyapi"
)

const helpText = `commands:
  upload <path>       send a document to the study service
  mode <m>            summarize | explain | quiz
  focus <text>        topic for explain mode (empty clears it)
  questions <n>       quiz length, 1-50
  difficulty <d>      easy | medium | hard
  analyze             run the current mode against the document
  status              show session, form, busy state and errors
  result              show the latest result
  info                show what the service stored for the document
  health              check the study service
  stats               show service call latencies
  reset               forget the document, result and form changes
  wait                block until in-flight operations finish
  quit                wait for in-flight operations and exit
`

// app is the interactive front end over a session controller. Upload and
// analysis run in the background so the prompt stays responsive.
type app struct {
	ctl    *session.Controller
	client *studyapi.Client
	format render.Format
	log    *slog.Logger

	outMu sync.Mutex
	out   io.Writer

	// Set on the command goroutine before an operation is handed to
	// inflight, so a second command sees it before the controller does.
	pendMu         sync.Mutex
	uploadPending  bool
	analyzePending bool

	inflight errgroup.Group
}

func newApp(ctl *session.Controller, client *studyapi.Client, out io.Writer, format render.Format, log *slog.Logger) *app {
	return &app{
		ctl:    ctl,
		client: client,
		format: format,
		log:    log,
		out:    out,
	}
}

// run reads commands from in until quit, end of input or ctx is done, then
// waits for background work.
func (a *app) run(ctx context.Context, in io.Reader) {
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	a.printf("studybuddy: type 'help' for commands\n")
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			if !a.exec(ctx, line) {
				break loop
			}
		}
	}
	_ = a.inflight.Wait()
}

// exec runs one command line. It returns false when the user asked to quit.
func (a *app) exec(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "help", "?":
		a.printf("%s", helpText)
	case "upload":
		a.upload(ctx, arg)
	case "mode":
		m, err := session.ParseMode(arg)
		if err != nil {
			a.printf("%v\n", err)
			break
		}
		_ = a.ctl.SetMode(m)
	case "focus":
		a.ctl.SetFocus(arg)
	case "questions":
		n, err := strconv.Atoi(arg)
		if err != nil {
			a.printf("questions: %q is not a number\n", arg)
			break
		}
		if err := a.ctl.SetQuestionCount(n); err != nil {
			a.printf("%v\n", err)
		}
	case "difficulty":
		d, err := session.ParseDifficulty(arg)
		if err != nil {
			a.printf("%v\n", err)
			break
		}
		_ = a.ctl.SetDifficulty(d)
	case "analyze":
		a.analyze(ctx)
	case "status":
		a.write(func(w io.Writer) error { return render.Status(w, a.ctl.State()) })
	case "result":
		a.write(func(w io.Writer) error { return render.Result(w, a.ctl.State().Result, a.format) })
	case "info":
		a.info(ctx)
	case "health":
		msg, err := a.client.Health(ctx)
		if err != nil {
			a.printf("health: %v\n", err)
			break
		}
		a.printf("health: %s\n", msg)
	case "stats":
		a.stats()
	case "reset":
		a.ctl.Reset()
		a.printf("session reset\n")
	case "wait":
		_ = a.inflight.Wait()
	case "quit", "exit":
		return false
	default:
		a.printf("unknown command %q (try 'help')\n", cmd)
	}
	return true
}

func (a *app) upload(ctx context.Context, path string) {
	if path == "" {
		a.printf("no file selected\n")
		return
	}
	if !a.guard().CanUpload() {
		a.printf("upload unavailable: an operation is in progress\n")
		return
	}
	f, err := os.Open(path)
	if err != nil {
		a.printf("upload: %v\n", err)
		return
	}

	name := filepath.Base(path)
	a.setPending(&a.uploadPending, true)
	a.printf("uploading %s...\n", name)
	a.inflight.Go(func() error {
		defer f.Close()
		err := a.ctl.Upload(ctx, &session.File{Name: name, Content: f})
		a.setPending(&a.uploadPending, false)
		switch {
		case errors.Is(err, session.ErrUploadInProgress):
			a.printf("upload of %s skipped: an upload is already in progress\n", name)
		case errors.Is(err, session.ErrSuperseded):
			a.printf("upload of %s finished after a reset; discarded\n", name)
		case err != nil:
			a.printf("upload failed: %s\n", a.ctl.State().UploadError)
		default:
			st := a.ctl.State()
			if st.Session != nil {
				a.printf("uploaded %s: doc %s, %d chunks\n", name, st.Session.DocID, st.Session.ChunkCount)
			}
		}
		return nil
	})
}

func (a *app) analyze(ctx context.Context) {
	st := a.ctl.State()
	if st.Session == nil {
		// Records the missing-document error without sending anything.
		_ = a.ctl.Analyze(ctx)
		a.printf("%s\n", a.ctl.State().AnalysisError)
		return
	}
	if !a.guard().CanAnalyze() {
		a.printf("analyze unavailable: an operation is in progress\n")
		return
	}

	mode := st.Form.Mode
	a.setPending(&a.analyzePending, true)
	a.printf("running %s...\n", mode)
	a.inflight.Go(func() error {
		err := a.ctl.Analyze(ctx)
		a.setPending(&a.analyzePending, false)
		switch {
		case errors.Is(err, session.ErrAnalysisInProgress):
			a.printf("%s skipped: an analysis is already in progress\n", mode)
		case errors.Is(err, session.ErrSuperseded):
			a.printf("%s finished after the session changed; discarded\n", mode)
		case err != nil:
			a.printf("analysis failed: %s\n", a.ctl.State().AnalysisError)
		default:
			a.printf("%s ready (type 'result')\n", mode)
		}
		return nil
	})
}

// guard folds operations handed off but not yet started into the
// controller's guard.
func (a *app) guard() session.Guard {
	g := a.ctl.State().Guard()
	a.pendMu.Lock()
	defer a.pendMu.Unlock()
	g.Uploading = g.Uploading || a.uploadPending
	g.Analyzing = g.Analyzing || a.analyzePending
	return g
}

func (a *app) setPending(flag *bool, v bool) {
	a.pendMu.Lock()
	defer a.pendMu.Unlock()
	*flag = v
}

func (a *app) info(ctx context.Context) {
	st := a.ctl.State()
	if st.Session == nil {
		a.printf("no document uploaded\n")
		return
	}
	doc, err := a.client.Document(ctx, st.Session.DocID)
	if err != nil {
		a.printf("info: %v\n", err)
		return
	}
	a.printf("doc %s: %s, %d chunks, created %s\n", doc.DocID, doc.Filename, doc.ChunkCount, doc.CreatedAt)
	for i, c := range doc.ChunksPreview {
		a.printf("  [%d] %s\n", i, c)
	}
}

func (a *app) stats() {
	snap := a.client.Stats().Snapshot()
	ops := a.client.Stats().Ops()
	if len(ops) == 0 {
		a.printf("no calls recorded\n")
		return
	}
	for _, op := range ops {
		s := snap[op]
		a.printf("%-9s n=%d errors=%d avg=%.0fms p50=%.0fms p95=%.0fms max=%dms\n",
			op, s.Count, s.Errors, s.AvgMs, s.P50Ms, s.P95Ms, s.MaxMs)
	}
}

func (a *app) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) write(fn func(io.Writer) error) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	if err := fn(a.out); err != nil {
		a.log.Error("write output", "error", err)
	}
}
