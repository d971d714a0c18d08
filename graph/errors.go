package graph

import (
	"github.com/goliatone/go-todos/todo"
)

// Error codes reported under extensions.code.
const (
	CodeBadUserInput = "BAD_USER_INPUT"
	CodeInternal     = "INTERNAL"
)

// Error is a resolver error carrying a machine readable code. graphql-go
// copies Extensions into the response error.
type Error struct {
	Message string
	Code    string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// Extensions implements the graphql-go extensions hook.
func (e *Error) Extensions() map[string]any {
	ext := map[string]any{"code": e.Code}
	if len(e.Fields) > 0 {
		ext["fields"] = e.Fields
	}
	return ext
}

func badInput(err error) *Error {
	return &Error{
		Message: err.Error(),
		Code:    CodeBadUserInput,
		Fields:  todo.FieldErrors(err),
	}
}

func internalError() *Error {
	return &Error{Message: "internal error", Code: CodeInternal}
}
