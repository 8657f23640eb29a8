package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "invalid input")
	if err.Code != CodeValidation {
		t.Errorf("code = %s, want %s", err.Code, CodeValidation)
	}
	if err.Message != "invalid input" {
		t.Errorf("message = %q", err.Message)
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "simple",
			err:      New(CodeValidation, "invalid"),
			contains: []string{"VALIDATION_ERROR", "invalid"},
		},
		{
			name:     "with op",
			err:      &Error{Code: CodeInternal, Message: "db failed", Op: "file.lookup"},
			contains: []string{"file.lookup", "INTERNAL_ERROR", "db failed"},
		},
		{
			name:     "wrapped",
			err:      Wrap(errors.New("io timeout"), "object.open", "read failed"),
			contains: []string{"object.open", "read failed", "io timeout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(s, want) {
					t.Errorf("Error() = %q, missing %q", s, want)
				}
			}
		})
	}
}

func TestWrapPreservesCode(t *testing.T) {
	inner := NotFound("file", "f_1")
	wrapped := Wrap(inner, "watch.render", "lookup failed")
	if wrapped.Code != CodeNotFound {
		t.Errorf("code = %s, want %s", wrapped.Code, CodeNotFound)
	}
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should see through the wrap")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, 400},
		{CodeForbidden, 403},
		{CodeNotFound, 404},
		{CodeConflict, 409},
		{CodeTooMany, 429},
		{CodeUnavail, 503},
		{CodeTimeout, 504},
		{CodeInternal, 500},
	}
	for _, tt := range tests {
		if got := (&Error{Code: tt.code}).HTTPStatus(); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestGetHelpers(t *testing.T) {
	plain := errors.New("plain")
	if GetCode(plain) != CodeInternal {
		t.Error("plain errors default to internal")
	}
	if GetHTTPStatus(plain) != 500 {
		t.Error("plain errors map to 500")
	}

	err := Forbidden("bad hash").WithField("file_id", "f_1")
	if GetHTTPStatus(err) != 403 {
		t.Error("forbidden maps to 403")
	}
	if GetFields(err)["file_id"] != "f_1" {
		t.Error("expected file_id field")
	}
}
