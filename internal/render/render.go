package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/studybuddy/internal/session"
)

// Format selects how results are written.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// previewLimit caps the preview shown in status output.
const previewLimit = 280

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Status writes a human-readable summary of the controller state.
func Status(w io.Writer, st session.State) error {
	var b strings.Builder
	g := st.Guard()

	if st.Session == nil {
		b.WriteString("document: none\n")
	} else {
		fmt.Fprintf(&b, "document: %s (%d chunks)\n", st.Session.DocID, st.Session.ChunkCount)
		if st.Session.Preview != "" {
			fmt.Fprintf(&b, "preview:  %s\n", oneLine(st.Session.Preview, previewLimit))
		}
	}

	fmt.Fprintf(&b, "mode:     %s", st.Form.Mode)
	switch st.Form.Mode {
	case session.ModeExplain:
		if f := strings.TrimSpace(st.Form.Focus); f != "" {
			fmt.Fprintf(&b, " (focus: %s)", f)
		}
	case session.ModeQuiz:
		fmt.Fprintf(&b, " (%d questions, %s)", st.Form.NumQuestions, st.Form.Difficulty)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "busy:     upload=%t analyze=%t\n", st.Uploading, st.Analyzing)
	fmt.Fprintf(&b, "allowed:  upload=%t analyze=%t\n", g.CanUpload(), g.CanAnalyze())
	if st.LastStatus != 0 {
		fmt.Fprintf(&b, "status:   %d\n", st.LastStatus)
	}
	if st.UploadError != "" {
		fmt.Fprintf(&b, "upload error:   %s\n", st.UploadError)
	}
	if st.AnalysisError != "" {
		fmt.Fprintf(&b, "analysis error: %s\n", st.AnalysisError)
	}
	if st.Result != nil {
		fmt.Fprintf(&b, "result:   %s, %d chunks used\n", st.Result.Mode, st.Result.UsedChunks)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Result writes r in the requested format.
func Result(w io.Writer, r *session.Result, format Format) error {
	if r == nil {
		_, err := io.WriteString(w, "no result\n")
		return err
	}
	if format == FormatHTML {
		return HTML(w, r)
	}
	return Text(w, r)
}

// Text writes the result as plain text.
func Text(w io.Writer, r *session.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s (doc %s, %d chunks used)\n\n", r.Mode, r.DocID, r.UsedChunks)
	b.WriteString(strings.TrimRight(r.Output, "\n"))
	b.WriteString("\n")
	if len(r.Warnings) > 0 {
		b.WriteString("\nwarnings:\n")
		for _, warn := range r.Warnings {
			fmt.Fprintf(&b, "  - %s\n", warn)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// HTML writes the result as an HTML fragment. The output text is treated as
// Markdown.
func HTML(w io.Writer, r *session.Result) error {
	var body bytes.Buffer
	if err := md.Convert([]byte(r.Output), &body); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<section class=\"study-result\" data-mode=\"%s\" data-doc-id=\"%s\">\n",
		html.EscapeString(r.Mode), html.EscapeString(r.DocID))
	fmt.Fprintf(&b, "<header>%s &middot; %d chunks used</header>\n", html.EscapeString(r.Mode), r.UsedChunks)
	b.WriteString(body.String())
	if len(r.Warnings) > 0 {
		b.WriteString("<ul class=\"warnings\">\n")
		for _, warn := range r.Warnings {
			fmt.Fprintf(&b, "<li>%s</li>\n", html.EscapeString(warn))
		}
		b.WriteString("</ul>\n")
	}
	b.WriteString("</section>\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func oneLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
