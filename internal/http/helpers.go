package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-blog/internal/blog"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// errorClass maps blog errors to an HTTP status and a stable error code.
type errorClass struct {
	status  int
	code    string
	matches func(error) bool
}

func sentinels(targets ...error) func(error) bool {
	return func(err error) bool {
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
}

func isNotFound(err error) bool {
	var notFound *blog.NotFoundError
	return errors.As(err, &notFound) ||
		sentinels(blog.ErrPostNotFound, blog.ErrCategoryNotFound, blog.ErrBloggerNotFound)(err)
}

var isConflict = sentinels(
	blog.ErrCategoryExists,
	blog.ErrBloggerExists,
	blog.ErrRouteExists,
	blog.ErrCategoryInUse,
	blog.ErrBloggerInUse,
)

var errorClasses = []errorClass{
	{status: http.StatusNotFound, code: "not_found", matches: isNotFound},
	{status: http.StatusBadRequest, code: "validation_failed", matches: blog.IsValidationError},
	{status: http.StatusConflict, code: "conflict", matches: isConflict},
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: "unknown_error"}
	}
	for _, class := range errorClasses {
		if class.matches(err) {
			return class.status, errorResponse{Error: class.code, Message: err.Error()}
		}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: err.Error()}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := mapError(err)
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// decodeJSON reads a strict JSON body: unknown fields are rejected.
func decodeJSON(r *http.Request, target any) error {
	if r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

// mountPath turns a configured prefix such as "api/" into "/api"; blank is "/".
func mountPath(prefix string) string {
	return "/" + strings.Trim(strings.TrimSpace(prefix), "/")
}

func postID(raw string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(raw))
}

// queryInt reads a non-negative integer query value, falling back to def.
func queryInt(raw string, def int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return def
	}
	return value
}
