// Package errors carries HTTP-facing errors rendered as RFC 7807 problems.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/strogmv/apiblocks/internal/pkg/logger"
)

// AppError is an error with the HTTP status it maps to.
type AppError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	// Code is a stable machine-readable code, e.g. ASSEMBLY_UNKNOWN_BLOCK_TYPE.
	Code string `json:"code,omitempty"`
	// Extra is merged into the problem document.
	Extra map[string]any `json:"-"`
	Err   error          `json:"-"`
}

func New(status int, title, detail string) *AppError {
	return &AppError{Status: status, Title: title, Detail: detail}
}

// Wrap keeps err as the cause; detail defaults to its message.
func Wrap(status int, title string, err error) *AppError {
	return &AppError{Status: status, Title: title, Detail: err.Error(), Err: err}
}

func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

func (e *AppError) With(key string, value any) *AppError {
	if e.Extra == nil {
		e.Extra = map[string]any{}
	}
	e.Extra[key] = value
	return e
}

func (e *AppError) Error() string {
	if e.Detail == "" {
		return e.Title
	}
	return e.Title + ": " + e.Detail
}

func (e *AppError) Unwrap() error { return e.Err }

// WriteError renders err as application/problem+json. Errors that are not
// an *AppError become a 500 without leaking their message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		logger.From(r.Context()).Error("unhandled error",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	doc := Problem(err)
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(doc["status"].(int))
	_ = json.NewEncoder(w).Encode(doc)
}

// Problem builds the problem document for err.
func Problem(err error) map[string]any {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		appErr = New(http.StatusInternalServerError, "Internal Server Error", "")
	}
	doc := map[string]any{
		"type":   "about:blank",
		"title":  appErr.Title,
		"status": appErr.Status,
	}
	if appErr.Detail != "" {
		doc["detail"] = appErr.Detail
	}
	if appErr.Code != "" {
		doc["code"] = appErr.Code
	}
	for k, v := range appErr.Extra {
		doc[k] = v
	}
	return doc
}
