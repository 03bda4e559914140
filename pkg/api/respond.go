package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/catgraph/pkg/category"
	cgerrors "github.com/matzehuels/catgraph/pkg/errors"
)

// maxBody caps request bodies. Every request body is a small JSON object.
const maxBody = 1 << 20

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := cgerrors.HTTPStatus(err)
	code := string(cgerrors.GetCode(err))
	msg := cgerrors.UserMessage(err)
	if code == "" {
		code = string(cgerrors.ErrCodeInternal)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

func pathID(r *http.Request) (category.ID, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, cgerrors.New(cgerrors.ErrCodeInvalidID, "invalid category id %q", raw)
	}
	if err := cgerrors.ValidateID(id); err != nil {
		return 0, err
	}
	return id, nil
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string, code cgerrors.Code) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, cgerrors.New(code, "%s must be a non-negative integer, got %q", name, raw)
	}
	return v, nil
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return cgerrors.New(cgerrors.ErrCodeInvalidInput, "request body too large")
		}
		return cgerrors.New(cgerrors.ErrCodeInvalidInput, "invalid request body: %v", err)
	}
	return nil
}
