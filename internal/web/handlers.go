// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/philquery/internal/view"
	"github.com/pdiddy/philquery/pkg/types"
)

const maxBodyBytes = 64 << 10

// Placeholders for the question box, by mode.
var placeholders = map[types.QueryMode]string{
	types.ModeUnderstanding: "Ask about a philosophical concept or thinker...",
	types.ModeRetrieval:     "Search for specific passages or quotes...",
}

var modeLabels = map[types.QueryMode]string{
	types.ModeUnderstanding: "Understanding",
	types.ModeRetrieval:     "Retrieval",
}

var templateFuncs = template.FuncMap{
	"modeLabel": func(m types.QueryMode) string { return modeLabels[m] },
}

// pageData is the model of index.html.
type pageData struct {
	State       view.State
	Modes       []types.QueryMode
	Placeholder string
	Answer      template.HTML
	Sources     []types.AvailableSource
	FeedbackURL string
	MinChunks   int
	MaxChunks   int
}

// session returns the caller's controller, issuing a cookie for new
// sessions.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *view.Controller {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	ctrl, got := s.sessions.Get(id)
	if got != id {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    got,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return ctrl
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	state := s.session(w, r).Snapshot()

	data := pageData{
		State:       state,
		Modes:       []types.QueryMode{types.ModeUnderstanding, types.ModeRetrieval},
		Placeholder: placeholders[state.Mode],
		FeedbackURL: s.cfg.FeedbackURL,
		MinChunks:   types.MinChunkCount,
		MaxChunks:   types.MaxChunkCount,
	}
	if state.Result != nil {
		// Markup was built from whitelisted nodes and sanitized.
		data.Answer = template.HTML(state.Result.Markup)
	}
	if s.sources != nil {
		sources, err := s.sources.Sources(r.Context())
		if err != nil {
			s.logger.Warn("loading sources", zap.Error(err))
		}
		data.Sources = sources
	}

	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.logger.Error("rendering page", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// applyForm copies mode and chunk_count form values onto ctrl.
func applyForm(ctrl *view.Controller, r *http.Request) error {
	if v := r.PostFormValue("mode"); v != "" {
		mode, err := types.ParseQueryMode(v)
		if err != nil {
			return err
		}
		ctrl.SetMode(mode)
	}
	if v := r.PostFormValue("chunk_count"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return types.ErrInvalidChunkCount
		}
		ctrl.SetChunkCount(n)
	}
	return nil
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ctrl := s.session(w, r)
	if err := applyForm(ctrl, r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := ctrl.Submit(r.Context(), r.PostFormValue("query"))
	if errors.Is(err, view.ErrBusy) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	// Other failures are already on the controller as the generic message.
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if err := applyForm(s.session(w, r), r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.session(w, r).Reset()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// askRequest is the body of POST /api/ask. Missing mode and chunk_count
// take the server defaults.
type askRequest struct {
	Query      string `json:"query"`
	ChunkCount int    `json:"chunk_count"`
	Mode       string `json:"mode"`
}

func (s *Server) handleAPIAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return
	}

	mode := s.defaults.Mode
	if req.Mode != "" {
		m, err := types.ParseQueryMode(req.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, err.Error())
			return
		}
		mode = m
	}
	n := req.ChunkCount
	if n == 0 {
		n = s.defaults.ChunkCount
	}
	if err := types.ValidateChunkCount(n); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	result, err := s.asker.Ask(r.Context(), req.Query, n, mode)
	if err != nil {
		status, code, msg := classify(err)
		if status >= http.StatusInternalServerError {
			s.logger.Warn("api ask failed",
				zap.String("request_id", requestID(r)),
				zap.Error(err),
			)
		}
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAPISources(w http.ResponseWriter, r *http.Request) {
	sources := []types.AvailableSource{}
	if s.sources != nil {
		got, err := s.sources.Sources(r.Context())
		if err != nil {
			s.logger.Error("listing sources", zap.Error(err))
			writeError(w, http.StatusInternalServerError, codeInternal, "could not list sources")
			return
		}
		sources = append(sources, got...)
	}
	writeJSON(w, http.StatusOK, sources)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
