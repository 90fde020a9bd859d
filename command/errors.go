package command

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bumblegum/guitarcore/profile"
	"github.com/bumblegum/guitarcore/storage"
)

// Error is the single error type rendered on the console as
// {"status":"error","message":...}.
type Error struct {
	Kind    string        `json:"-"`
	Message string        `json:"message"`
	Fields  []FieldReason `json:"fields,omitempty"`
}

// FieldReason names one rejected profile field.
type FieldReason struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *Error) Error() string {
	if e.Kind == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func ErrBadRequest(msg string) *Error { return &Error{Kind: "bad request", Message: msg} }
func ErrInternal(msg string) *Error   { return &Error{Kind: "internal", Message: msg} }

// ErrUnknownCommand is returned for a command word no route matches.
var ErrUnknownCommand = &Error{Kind: "unknown command", Message: "Unknown command. Send HELP for available commands."}

// WrapError normalizes any error into *Error.
func WrapError(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	var verr *profile.ValidationError
	if errors.As(err, &verr) {
		out := &Error{Kind: "bad request", Message: "invalid configuration"}
		for _, f := range verr.Fields {
			out.Fields = append(out.Fields, FieldReason{Field: f.Field, Reason: f.Reason})
		}
		return out
	}
	var perr *profile.ParseError
	if errors.As(err, &perr) {
		return ErrBadRequest(perr.Error())
	}
	if errors.Is(err, storage.ErrWriteFailure) {
		return ErrInternal("failed to save to flash")
	}
	return ErrInternal(err.Error())
}

type errorLine struct {
	Status string `json:"status"`
	*Error
}

func errorJSON(err error) string {
	out, _ := json.Marshal(errorLine{Status: "error", Error: WrapError(err)})
	return string(out)
}

func okJSON(fields map[string]any) string {
	m := map[string]any{"status": "ok"}
	for k, v := range fields {
		m[k] = v
	}
	out, err := json.Marshal(m)
	if err != nil {
		return errorJSON(err)
	}
	return string(out)
}
