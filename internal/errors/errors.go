package errors

import (
	"fmt"
	"strings"
)

const (
	CodeParse      = "PARSE_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeCycle      = "CYCLE_ERROR"
	CodeProvision  = "PROVISION_ERROR"
)

type RepoToolError struct {
	Code    string
	Message string
	Err     error
}

func (e *RepoToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RepoToolError) Unwrap() error {
	return e.Err
}

func New(code, message string) *RepoToolError {
	return &RepoToolError{Code: code, Message: message}
}

func Wrap(err error, code, message string) *RepoToolError {
	return &RepoToolError{Code: code, Message: message, Err: err}
}

// CycleError reports a component reference chain that revisits a descriptor
// already on the current resolution stack.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("component reference cycle detected: %s", strings.Join(e.Path, " -> "))
}
