package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jackzampolin/easel/internal/book"
	"github.com/jackzampolin/easel/internal/ledger"
	"github.com/jackzampolin/easel/internal/workflow"
)

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeEngineError maps workflow errors to HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	var validation *book.ValidationError
	var incomplete *book.IncompletePagesError

	switch {
	case errors.Is(err, book.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation), errors.Is(err, book.ErrInvalidIndex):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInsufficientQuota):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.As(err, &incomplete):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, workflow.ErrGeneration):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// pathIndex parses the {index} path segment.
func pathIndex(r *http.Request) (int, error) {
	raw := r.PathValue("index")
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid page index %q", raw)
	}
	return idx, nil
}

// Page is the API view of one session page. Artifact bytes stay behind the
// generate and download endpoints.
type Page struct {
	Index     int    `json:"index"`
	Prompt    string `json:"prompt"`
	Text      string `json:"text,omitempty"`
	HasImage  bool   `json:"has_image"`
	MediaType string `json:"media_type,omitempty"`
	Confirmed bool   `json:"confirmed"`
}

// Session is the API view of a session.
type Session struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Theme        string  `json:"theme"`
	Kind         string  `json:"kind"`
	PageCount    int     `json:"page_count"`
	Billing      string  `json:"billing"`
	Account      string  `json:"account,omitempty"`
	Pages        []Page  `json:"pages"`
	MissingPages []int   `json:"missing_pages"`
	Complete     bool    `json:"complete"`
	Version      int64   `json:"version"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func toSession(sess *book.Session) Session {
	out := Session{
		ID:           sess.ID,
		Title:        sess.Title,
		Theme:        sess.Theme,
		Kind:         string(sess.Kind),
		PageCount:    sess.PageCount,
		Billing:      string(sess.Billing),
		Account:      sess.Account,
		MissingPages: sess.MissingPages(),
		Complete:     sess.Complete(),
		Version:      sess.Version,
		CreatedAt:    sess.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    sess.UpdatedAt.Format(time.RFC3339),
	}
	for _, p := range sess.Pages {
		out.Pages = append(out.Pages, Page{
			Index:     p.Index,
			Prompt:    p.Prompt,
			Text:      p.Text,
			HasImage:  p.Populated(),
			MediaType: p.MediaType,
			Confirmed: p.Confirmed,
		})
	}
	return out
}
