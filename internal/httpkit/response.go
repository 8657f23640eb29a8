package httpkit

import (
	"encoding/json"
	"net/http"

	apperrors "filestream/internal/pkg/errors"
)

type ErrorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
}

func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteErr(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	var env ErrorEnvelope
	env.Error.Code = code
	env.Error.Message = msg
	env.Error.Details = details

	_ = json.NewEncoder(w).Encode(env)
}

// WriteAppErr maps an application error to its HTTP status and envelope.
// Internal errors are masked so storage paths and SQL never leak.
func WriteAppErr(w http.ResponseWriter, err error) {
	status := apperrors.GetHTTPStatus(err)
	code := string(apperrors.GetCode(err))

	msg := err.Error()
	if status >= 500 {
		msg = "internal server error"
	} else {
		var appErr *apperrors.Error
		if apperrors.As(err, &appErr) {
			msg = appErr.Message
		}
	}

	var details map[string]any
	if fields := apperrors.GetFields(err); len(fields) > 0 && status < 500 {
		details = fields
	}

	WriteErr(w, status, code, msg, details)
}
