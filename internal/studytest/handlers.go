package studytest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/studybuddy/internal/chunker"
	"github.com/dgallion1/studybuddy/internal/parser"
)

// previewChars is how much of the extracted text the upload response echoes.
const previewChars = 800

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.maxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.maxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.maxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	p, err := parser.ForFile(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	parsed, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		s.log.Warn("extract failed", "filename", filename, "error", err)
		jsonError(w, "failed to extract text: "+err.Error(), http.StatusInternalServerError)
		return
	}

	text := chunker.Normalize(parsed.Text)
	chunks, err := chunker.Split(text, s.chunks)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	doc := &Document{
		Filename: filename,
		Text:     text,
		Chunks:   chunks,
		Pages:    parsed.Pages,
	}
	id := s.store.Save(doc)
	s.log.Info("document stored", "doc_id", id, "filename", filename, "chunks", len(chunks), "documents", s.store.Len())

	warnings := parsed.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":      id,
		"filename":    filename,
		"num_pages":   parsed.Pages,
		"text_length": len([]rune(text)),
		"chunk_count": len(chunks),
		"preview":     truncate(text, previewChars),
		"warnings":    warnings,
	})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.store.Get(chi.URLParam(r, "docID"))
	if !ok {
		jsonError(w, "doc_id not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":         doc.ID,
		"filename":       doc.Filename,
		"created_at":     doc.CreatedAt.Format(time.RFC3339),
		"chunk_count":    len(doc.Chunks),
		"chunks_preview": doc.Chunks[:min(2, len(doc.Chunks))],
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if _, ok := s.store.Get(docID); !ok {
		jsonError(w, "doc_id not found", http.StatusNotFound)
		return
	}
	s.store.Delete(docID)
	s.log.Info("document deleted", "doc_id", docID, "documents", s.store.Len())
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": docID, "deleted": true})
}

// studyRequest mirrors the service schema. Optional fields are pointers so
// defaults can be applied only when the client left them out.
type studyRequest struct {
	DocID        string  `json:"doc_id"`
	Mode         string  `json:"mode"`
	Focus        *string `json:"focus"`
	NumQuestions *int    `json:"num_questions"`
	Difficulty   *string `json:"difficulty"`
}

// validationIssue is one entry of a 422 detail list.
type validationIssue struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

func (req studyRequest) params() (studyParams, []validationIssue) {
	p := studyParams{
		Mode:         req.Mode,
		NumQuestions: 8,
		Difficulty:   "mixed",
	}
	var issues []validationIssue
	if req.DocID == "" {
		issues = append(issues, validationIssue{Loc: []string{"body", "doc_id"}, Msg: "Field required"})
	}
	switch req.Mode {
	case "summarize", "explain", "quiz":
	default:
		issues = append(issues, validationIssue{Loc: []string{"body", "mode"}, Msg: "Input should be 'summarize', 'quiz' or 'explain'"})
	}
	if req.Focus != nil {
		p.Focus = strings.TrimSpace(*req.Focus)
	}
	if req.NumQuestions != nil {
		p.NumQuestions = *req.NumQuestions
		if p.NumQuestions < 1 || p.NumQuestions > 50 {
			issues = append(issues, validationIssue{Loc: []string{"body", "num_questions"}, Msg: "Input should be between 1 and 50"})
		}
	}
	if req.Difficulty != nil {
		p.Difficulty = *req.Difficulty
		switch p.Difficulty {
		case "easy", "medium", "hard", "mixed":
		default:
			issues = append(issues, validationIssue{Loc: []string{"body", "difficulty"}, Msg: "String should match pattern '^(easy|medium|hard|mixed)$'"})
		}
	}
	return p, issues
}

func (s *Server) handleStudy(w http.ResponseWriter, r *http.Request) {
	var req studyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	p, issues := req.params()
	if len(issues) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": issues})
		return
	}

	doc, ok := s.store.Get(req.DocID)
	if !ok {
		jsonError(w, "Document not found", http.StatusNotFound)
		return
	}

	output, used := runStudy(p, doc.Chunks)
	s.log.Info("study", "doc_id", req.DocID, "mode", p.Mode, "used_chunks", used)

	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":      req.DocID,
		"mode":        p.Mode,
		"output":      output,
		"used_chunks": used,
		"warnings":    []string{},
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// jsonError writes {"detail": msg}, the error shape the study service uses.
func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"detail": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
