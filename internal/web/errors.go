// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pdiddy/philquery/internal/answer"
	"github.com/pdiddy/philquery/internal/view"
	"github.com/pdiddy/philquery/pkg/types"
)

// Error codes returned in JSON error bodies.
const (
	codeValidation = "validation"
	codeBusy       = "busy"
	codeRateLimit  = "rate_limit"
	codeUpstream   = "upstream"
	codeInternal   = "internal"
)

// errorResponse is the JSON body of every API error.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// classify maps an error to a status, a code and the message shown to the
// client. Upstream details are never exposed.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, types.ErrInvalidMode),
		errors.Is(err, types.ErrInvalidChunkCount),
		errors.Is(err, answer.ErrEmptyQuery):
		return http.StatusBadRequest, codeValidation, err.Error()
	case errors.Is(err, view.ErrBusy):
		return http.StatusConflict, codeBusy, err.Error()
	default:
		return http.StatusBadGateway, codeUpstream, view.GenericFailureMessage
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}
