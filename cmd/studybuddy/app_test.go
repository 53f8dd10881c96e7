package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/studybuddy/internal/render"
	"github.com/dgallion1/studybuddy/internal/session"
	"github.com/dgallion1/studybuddy/internal/studyapi"
	"github.com/dgallion1/studybuddy/internal/studytest"
)

func runScript(t *testing.T, format render.Format, script string) (string, *session.Controller) {
	t.Helper()
	return runScriptAgainst(t, studytest.NewServer(nil), format, script)
}

func runScriptAgainst(t *testing.T, h http.Handler, format render.Format, script string) (string, *session.Controller) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	client := studyapi.NewClient(ts.URL, 0, 0)
	ctl := session.New(client, nil)
	var out bytes.Buffer
	a := newApp(ctl, client, &out, format, slog.New(slog.DiscardHandler))
	a.run(context.Background(), strings.NewReader(script))
	return out.String(), ctl
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestApp_UploadAnalyzeResult(t *testing.T) {
	path := writeDoc(t, "bio.txt", "Cells are the basic unit of life.\n\nMitochondria produce ATP.")
	script := strings.Join([]string{
		"upload " + path,
		"wait",
		"mode quiz",
		"questions 2",
		"difficulty hard",
		"analyze",
		"wait",
		"result",
		"quit",
	}, "\n")

	out, ctl := runScript(t, render.FormatText, script)

	assert.Contains(t, out, "uploading bio.txt...")
	assert.Contains(t, out, "uploaded bio.txt: doc ")
	assert.Contains(t, out, "quiz ready (type 'result')")
	assert.Contains(t, out, "2. (hard) Question 2 based on the document text...")

	st := ctl.State()
	require.NotNil(t, st.Result)
	assert.Equal(t, "quiz", st.Result.Mode)
}

func TestApp_AnalyzeWithoutDocument(t *testing.T) {
	out, ctl := runScript(t, render.FormatText, "analyze\nstatus\n")

	assert.Contains(t, out, "Upload a document first\n")
	assert.Contains(t, out, "analysis error: Upload a document first")
	assert.Equal(t, 0, ctl.State().LastStatus)
}

func TestApp_FormCommands(t *testing.T) {
	script := "mode essay\nquestions lots\nquestions 99\ndifficulty extreme\nmode explain\nfocus  recursion  \nstatus\n"
	out, ctl := runScript(t, render.FormatText, script)

	assert.Contains(t, out, "invalid mode")
	assert.Contains(t, out, `questions: "lots" is not a number`)
	assert.Contains(t, out, "invalid question count")
	assert.Contains(t, out, "invalid difficulty")
	assert.Contains(t, out, "mode:     explain (focus: recursion)")

	f := ctl.State().Form
	assert.Equal(t, session.ModeExplain, f.Mode)
	assert.Equal(t, 5, f.NumQuestions)
	assert.Equal(t, session.DifficultyMedium, f.Difficulty)
}

func TestApp_ResetRestoresDefaults(t *testing.T) {
	path := writeDoc(t, "notes.md", "# Notes\n\nSome text.")
	script := "upload " + path + "\nwait\nmode quiz\nreset\nstatus\n"
	out, ctl := runScript(t, render.FormatText, script)

	assert.Contains(t, out, "session reset")
	st := ctl.State()
	assert.Nil(t, st.Session)
	assert.Equal(t, session.DefaultForm(), st.Form)
}

func TestApp_UploadErrors(t *testing.T) {
	bad := writeDoc(t, "deck.pptx", "x")
	script := "upload\nupload /does/not/exist.txt\nupload " + bad + "\nwait\nstatus\n"
	out, ctl := runScript(t, render.FormatText, script)

	assert.Contains(t, out, "no file selected")
	assert.Contains(t, out, "upload: open /does/not/exist.txt")
	assert.Contains(t, out, "upload failed: unsupported file type: .pptx")
	assert.Nil(t, ctl.State().Session)
}

func TestApp_HealthInfoAndHTML(t *testing.T) {
	path := writeDoc(t, "a.txt", "Alpha beta gamma.")
	script := "stats\nhealth\ninfo\nupload " + path + "\nwait\ninfo\nanalyze\nwait\nresult\nstats\nbogus\n"
	out, _ := runScript(t, render.FormatHTML, script)

	assert.Contains(t, out, "health: "+studytest.HealthMessage)
	assert.Contains(t, out, "no document uploaded")
	assert.Contains(t, out, ": a.txt, 1 chunks, created ")
	assert.Contains(t, out, "  [0] Alpha beta gamma.")
	assert.Contains(t, out, `<section class="study-result" data-mode="summarize"`)
	assert.Contains(t, out, "<h1>Summary</h1>")
	assert.Contains(t, out, "no calls recorded")
	assert.Contains(t, out, "study     n=1 errors=0")
	assert.Contains(t, out, "upload    n=1 errors=0")
	assert.Contains(t, out, `unknown command "bogus"`)
}

func TestApp_BackToBackUploadsRunOnce(t *testing.T) {
	svc := studytest.NewServer(nil)
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/upload" {
			time.Sleep(200 * time.Millisecond)
		}
		svc.ServeHTTP(w, r)
	})
	path := writeDoc(t, "notes.txt", "Photosynthesis converts light into chemical energy.")
	script := strings.Join([]string{
		"upload " + path,
		"upload " + path,
		"wait",
		"quit",
	}, "\n")

	out, ctl := runScriptAgainst(t, slow, render.FormatText, script)

	assert.Contains(t, out, "upload unavailable: an operation is in progress")
	assert.NotContains(t, out, "upload failed: \n")
	assert.Equal(t, 1, strings.Count(out, "uploaded notes.txt: doc "))
	assert.Equal(t, 1, svc.Store().Len())
	require.NotNil(t, ctl.State().Session)
	assert.Empty(t, ctl.State().UploadError)
}
