package studytest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// maxContextChunks is how many chunks one study call draws on.
const maxContextChunks = 3

var wordRe = regexp.MustCompile(`\w+`)

// selectChunks ranks chunks by how often the focus keywords appear in them
// and returns the top few. Without usable keywords, or when nothing
// matches, the leading chunks are used.
func selectChunks(chunks []string, focus string, limit int) []string {
	lead := chunks[:min(limit, len(chunks))]

	var keywords []string
	for _, w := range wordRe.FindAllString(focus, -1) {
		if len(w) > 2 {
			keywords = append(keywords, strings.ToLower(w))
		}
	}
	if len(keywords) == 0 {
		return lead
	}

	type scored struct {
		score int
		chunk string
	}
	var hits []scored
	for _, c := range chunks {
		text := strings.ToLower(c)
		score := 0
		for _, k := range keywords {
			score += strings.Count(text, k)
		}
		if score > 0 {
			hits = append(hits, scored{score, c})
		}
	}
	if len(hits) == 0 {
		return lead
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	selected := make([]string, 0, limit)
	for _, h := range hits[:min(limit, len(hits))] {
		selected = append(selected, h.chunk)
	}
	return selected
}

// studyParams is a validated study request with service defaults applied.
type studyParams struct {
	Mode         string
	Focus        string
	NumQuestions int
	Difficulty   string
}

// buildContext renders the prompt-style header and the selected chunks.
func buildContext(p studyParams, selected []string) string {
	var b strings.Builder
	b.WriteString("You are an AI Study Buddy.\n")
	fmt.Fprintf(&b, "Task: %s\n", p.Mode)
	if p.Focus != "" {
		fmt.Fprintf(&b, "Focus topic: %s\n", p.Focus)
	}
	fmt.Fprintf(&b, "Difficulty: %s\n", p.Difficulty)
	if p.Mode == "quiz" {
		fmt.Fprintf(&b, "Number of questions: %d\n", p.NumQuestions)
	}
	b.WriteString("\nContext:\n")
	b.WriteString(strings.Join(selected, "\n\n---\n\n"))
	return b.String()
}

// runStudy produces placeholder output for one mode. It returns the output
// and the number of chunks it drew on.
func runStudy(p studyParams, chunks []string) (string, int) {
	selected := selectChunks(chunks, p.Focus, maxContextChunks)
	preview := truncate(buildContext(p, selected), 500)

	var b strings.Builder
	switch p.Mode {
	case "summarize":
		b.WriteString("# Summary\n\n- Key idea 1\n- Key idea 2\n- Key idea 3\n\n")
		b.WriteString("Context preview used:\n\n")
		b.WriteString(preview)
		b.WriteString("...")
	case "explain":
		topic := p.Focus
		if topic == "" {
			topic = "the main ideas"
		}
		fmt.Fprintf(&b, "# Explanation: %s\n\n", topic)
		b.WriteString("1. What it is: ...\n2. Why it matters: ...\n3. Common mistakes: ...\n4. Mini example: ...\n\n")
		b.WriteString("Context preview used:\n\n")
		b.WriteString(preview)
		b.WriteString("...")
	case "quiz":
		b.WriteString("# Quiz\n\n")
		for i := 1; i <= p.NumQuestions; i++ {
			fmt.Fprintf(&b, "%d. (%s) Question %d based on the document text...\n", i, p.Difficulty, i)
		}
	}
	return b.String(), len(selected)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
