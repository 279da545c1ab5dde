package domain

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates the failures an analysis submission can end in.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNetwork    ErrorKind = "network"
	KindService    ErrorKind = "service"
	KindUnknown    ErrorKind = "unknown"
)

const (
	MsgNetworkFailure = "analysis service unreachable, check your connection and retry"
	MsgServiceFailure = "analysis failed, please retry"
	MsgUnknownFailure = "unexpected error during analysis, please retry"
)

// AnalysisError is the single error type surfaced by validation and the analysis client.
// Message is safe to show to the user; Err keeps the underlying cause.
type AnalysisError struct {
	Kind    ErrorKind
	Message string
	Status  int
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

func NewValidationError(message string) *AnalysisError {
	return &AnalysisError{Kind: KindValidation, Message: message}
}

func NewNetworkError(err error) *AnalysisError {
	return &AnalysisError{Kind: KindNetwork, Message: MsgNetworkFailure, Err: err}
}

// NewServiceError keeps the service-provided message verbatim when there is one.
func NewServiceError(status int, message string, err error) *AnalysisError {
	if message == "" {
		message = MsgServiceFailure
	}
	return &AnalysisError{Kind: KindService, Message: message, Status: status, Err: err}
}

func NewUnknownError(err error) *AnalysisError {
	return &AnalysisError{Kind: KindUnknown, Message: MsgUnknownFailure, Err: err}
}

// KindOf classifies err; anything that is not an *AnalysisError is unknown.
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// DisplayMessage converts any error into the text shown in the error banner.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *AnalysisError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return MsgUnknownFailure
}
