// Package respond writes JSON responses and decodes JSON request bodies.
package respond

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community/internal/apperr"
)

const maxBodyBytes = 1 << 20

// Message is the body of idempotent create-or-noop endpoints.
type Message struct {
	Message string `json:"message"`
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error maps err to its status. Unclassified errors become a generic 500 and
// are logged with the request path.
func Error(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, err error) {
	if e, ok := apperr.As(err); ok {
		logger.Debugw("request rejected", "path", r.URL.Path, "status", e.Status(), "err", err)
		JSON(w, e.Status(), errorBody{Error: e.Message, Fields: e.Fields})
		return
	}
	logger.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	JSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}

// Decode reads a JSON object into dst, ignoring unknown fields.
func Decode(r *http.Request, dst any) error {
	return decode(r, dst, false)
}

// DecodeStrict reads a JSON object into dst and rejects unknown fields.
func DecodeStrict(r *http.Request, dst any) error {
	return decode(r, dst, true)
}

func decode(r *http.Request, dst any, strict bool) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	return nil
}

// DecodeFields reads a JSON object as raw members, keeping track of which
// keys were present. Keys outside allowed are reported as a validation error.
func DecodeFields(r *http.Request, allowed ...string) (map[string]json.RawMessage, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, decodeError(err)
	}
	if fields == nil {
		return nil, apperr.Validation("request body must be a JSON object")
	}
	known := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		known[a] = true
	}
	fe := apperr.FieldErrors{}
	for k := range fields {
		if !known[k] {
			fe.Add(k, "unknown field")
		}
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}
	return fields, nil
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, apperr.Validation("could not read request body")
	}
	if len(body) > maxBodyBytes {
		return nil, apperr.Validation("request body too large")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, apperr.Validation("request body is required")
	}
	return body, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.Invalid(map[string]string{typeErr.Field: "invalid type, expected " + typeErr.Type.String()})
	}
	return &apperr.Error{Kind: apperr.KindValidation, Message: "malformed JSON", Err: err}
}

// PathID parses a numeric path value. Anything else is reported as not found,
// since no row can carry that id.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NotFound("not found")
	}
	return id, nil
}

// Page reads limit/offset query parameters with bounds.
func Page(r *http.Request) (limit, offset int, err error) {
	limit, offset = 50, 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 1 || n > 200 {
			return 0, 0, apperr.Invalid(map[string]string{"limit": "must be between 1 and 200"})
		}
		limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 0 {
			return 0, 0, apperr.Invalid(map[string]string{"offset": "must be a non-negative integer"})
		}
		offset = n
	}
	return limit, offset, nil
}
