// Package respond writes the JSON envelope every API route answers with:
//
//	{ "data": ..., "error": {code, message, status, fields}, "meta": {...} }
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/memoria/internal/app/system/apperr"
	"go.uber.org/zap"
)

// Envelope is the common response body.
type Envelope struct {
	Data  any            `json:"data,omitempty"`
	Error *apperr.Error  `json:"error,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// JSON writes data with the given status and optional meta.
func JSON(w http.ResponseWriter, status int, data any, meta ...map[string]any) {
	env := Envelope{Data: data}
	if len(meta) > 0 && meta[0] != nil {
		env.Meta = meta[0]
	}
	write(w, status, env)
}

// OK writes a 200 response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 response.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// NoContent writes a 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error maps err to its apperr form and writes it. Internal errors are
// logged and their cause hidden from the client.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	ae := apperr.FromError(err)
	if ae.Status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed", zap.String("code", ae.Code), zap.Error(err))
	}
	write(w, ae.Status, Envelope{Error: ae})
}

// Decode reads a JSON request body into dst. Malformed bodies become a
// validation error.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return apperr.Wrap(err, apperr.ErrValidation, "request body must be valid JSON")
	}
	return nil
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
