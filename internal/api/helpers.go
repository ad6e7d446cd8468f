package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

const maxBodyBytes = 1 << 20

type apiErr struct {
	Status  int
	Message string
	Details any
	Allow   string
}

func (e *apiErr) Error() string { return e.Message }

func badRequest(msg string, details any) *apiErr {
	return &apiErr{Status: http.StatusBadRequest, Message: msg, Details: details}
}

func methodNotAllowed(allow string) *apiErr {
	return &apiErr{Status: http.StatusMethodNotAllowed, Message: "method not allowed, use " + allow, Allow: allow}
}

func serverError(logger *slog.Logger, msg string, err error) *apiErr {
	logger.Error(msg, "error", err)
	return &apiErr{Status: http.StatusInternalServerError, Message: msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": data})
}

func writeErr(w http.ResponseWriter, err *apiErr) {
	if err.Allow != "" {
		w.Header().Set("Allow", err.Allow)
	}
	body := map[string]any{"ok": false, "error": err.Message}
	if err.Details != nil {
		body["details"] = err.Details
	}
	writeJSON(w, err.Status, body)
}

// readJSON decodes the request body into dst. An empty body decodes as {}.
func readJSON(r *http.Request, dst any) *apiErr {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return badRequest("could not read body", nil)
	}
	if len(b) > maxBodyBytes {
		return badRequest("request body too large", nil)
	}
	if len(b) == 0 {
		b = []byte(`{}`)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return badRequest("invalid JSON", map[string]any{"error": err.Error()})
	}
	return nil
}
