package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/studybuddy/internal/session"
)

func TestStatus_Pristine(t *testing.T) {
	var b strings.Builder
	require.NoError(t, Status(&b, session.State{Form: session.DefaultForm()}))

	out := b.String()
	assert.Contains(t, out, "document: none")
	assert.Contains(t, out, "mode:     summarize\n")
	assert.Contains(t, out, "allowed:  upload=true analyze=false")
	assert.NotContains(t, out, "status:")
}

func TestStatus_ActiveQuizWithErrors(t *testing.T) {
	st := session.State{
		Session:       &session.Session{DocID: "d1", ChunkCount: 3, Preview: "Chapter 1\n\n  Intro"},
		Form:          session.Form{Mode: session.ModeQuiz, NumQuestions: 5, Difficulty: session.DifficultyMedium},
		AnalysisError: "Analysis failed (500)",
		LastStatus:    500,
		Analyzing:     true,
	}

	var b strings.Builder
	require.NoError(t, Status(&b, st))
	out := b.String()

	assert.Contains(t, out, "document: d1 (3 chunks)")
	assert.Contains(t, out, "preview:  Chapter 1 Intro")
	assert.Contains(t, out, "(5 questions, medium)")
	assert.Contains(t, out, "allowed:  upload=false analyze=false")
	assert.Contains(t, out, "status:   500")
	assert.Contains(t, out, "analysis error: Analysis failed (500)")
}

func TestResult_Text(t *testing.T) {
	r := &session.Result{Mode: "quiz", DocID: "d1", Output: "Q1...\n", UsedChunks: 3, Warnings: []string{"short document"}}

	var b strings.Builder
	require.NoError(t, Result(&b, r, FormatText))

	assert.Equal(t, "== quiz (doc d1, 3 chunks used)\n\nQ1...\n\nwarnings:\n  - short document\n", b.String())
}

func TestResult_HTMLRendersMarkdownAndEscapes(t *testing.T) {
	r := &session.Result{
		Mode:       "summarize",
		DocID:      `d"1`,
		Output:     "# Summary\n\n- Key idea 1\n- Key idea 2\n",
		UsedChunks: 2,
		Warnings:   []string{"<b>scanned</b>"},
	}

	var b strings.Builder
	require.NoError(t, Result(&b, r, FormatHTML))
	out := b.String()

	assert.Contains(t, out, `data-doc-id="d&#34;1"`)
	assert.Contains(t, out, "<h1>Summary</h1>")
	assert.Contains(t, out, "<li>Key idea 1</li>")
	assert.Contains(t, out, "<li>&lt;b&gt;scanned&lt;/b&gt;</li>")
	assert.True(t, strings.HasSuffix(out, "</section>\n"))
}

func TestResult_Nil(t *testing.T) {
	var b strings.Builder
	require.NoError(t, Result(&b, nil, FormatHTML))
	assert.Equal(t, "no result\n", b.String())
}
