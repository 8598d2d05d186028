package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/mlourenco/civics-tutor/internal/cache"
	"github.com/mlourenco/civics-tutor/internal/question"
	"github.com/mlourenco/civics-tutor/internal/service"
)

// Orchestrator is the service surface the HTTP layer depends on.
type Orchestrator interface {
	Questions(query string) []question.Record
	Question(id int) (question.Record, error)
	GetExplanation(ctx context.Context, id int) (service.Explanation, error)
	GetSpeech(ctx context.Context, id int, lang language.Tag) ([]byte, error)
	CurrentAnswer(ctx context.Context, id int) (string, error)
	CacheStats(ctx context.Context) cache.Stats
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	records := s.orchestrator.Questions(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, questionsListResponse{Questions: records})
}

type questionsListResponse struct {
	Questions []question.Record `json:"questions"`
}

// handleQuestionSubresource routes /api/questions/{id} and its
// explanation, speech and current-answer subpaths.
func (s *Server) handleQuestionSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/questions/")
	idPart, sub, _ := strings.Cut(rest, "/")
	id, err := strconv.Atoi(idPart)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}

	switch strings.TrimSuffix(sub, "/") {
	case "":
		s.handleGetQuestion(w, r, id)
	case "explanation":
		s.handleExplanation(w, r, id)
	case "speech":
		s.handleSpeech(w, r, id)
	case "current-answer":
		s.handleCurrentAnswer(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request, id int) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	record, err := s.orchestrator.Question(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleExplanation(w http.ResponseWriter, r *http.Request, id int) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	explanation, err := s.orchestrator.GetExplanation(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, explanation)
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request, id int) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	lang := language.English
	if l := r.URL.Query().Get("lang"); l != "" {
		parsed, err := language.Parse(l)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid lang")
			return
		}
		lang = parsed
	}

	audio, err := s.orchestrator.GetSpeech(r.Context(), id, lang)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (s *Server) handleCurrentAnswer(w http.ResponseWriter, r *http.Request, id int) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	answer, err := s.orchestrator.CurrentAnswer(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "answer": answer})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.orchestrator.CacheStats(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

// writeServiceError renders an orchestrator error as a display-only notice
// for the affected question row.
func writeServiceError(w http.ResponseWriter, err error) {
	var tutorErr *service.TutorError
	if errors.As(err, &tutorErr) {
		writeError(w, tutorErr.HTTPStatus(), tutorErr.UserMessage())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}
