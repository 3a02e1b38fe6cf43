// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures so transport layers can map them to HTTP
// statuses and the orchestrator can rank them by severity.
type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "INVALID_INPUT"
	KindSessionNotFound    ErrorKind = "SESSION_NOT_FOUND"
	KindRateLimited        ErrorKind = "RATE_LIMITED"
	KindBackendUnavailable ErrorKind = "BACKEND_UNAVAILABLE"
	KindBackendQuery       ErrorKind = "BACKEND_QUERY_ERROR"
	KindLLMUnavailable     ErrorKind = "LLM_UNAVAILABLE"
	KindAgentTimeout       ErrorKind = "AGENT_TIMEOUT"
	KindCoreNotReady       ErrorKind = "CORE_NOT_READY"
	KindInternal           ErrorKind = "INTERNAL"
)

// HTTPStatus maps the kind to the status code the gateway responds with.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindSessionNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindAgentTimeout:
		return http.StatusRequestTimeout
	case KindLLMUnavailable, KindCoreNotReady:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// severity orders kinds for picking the most meaningful failure when several
// agents fail in one cycle. Higher wins.
var severity = map[ErrorKind]int{
	KindBackendUnavailable: 6,
	KindBackendQuery:       5,
	KindLLMUnavailable:     4,
	KindAgentTimeout:       3,
	KindCoreNotReady:       2,
	KindInternal:           1,
}

// Error is the classified error carried across package boundaries.
type Error struct {
	// Kind is the failure class
	Kind ErrorKind

	// Message is a human-readable description safe to surface to clients
	Message string

	// Retriable hints whether the same request may succeed later
	Retriable bool

	// Detail carries structured context for the error payload
	Detail map[string]any

	err error
}

// NewError builds an Error of the given kind. Backend outages are marked
// retriable automatically.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{
		Kind:      kind,
		Message:   message,
		Retriable: kind == KindBackendUnavailable || kind == KindLLMUnavailable,
	}
}

// Errorf is NewError with Sprintf formatting.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return NewError(kind, fmt.Sprintf(format, args...))
}

// WrapError classifies an underlying error while preserving it for
// errors.Is/As chains.
func WrapError(kind ErrorKind, err error, message string) *Error {
	e := NewError(kind, message)
	e.err = err
	return e
}

// WithDetail attaches one structured detail and returns the same error so
// calls chain.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Detail == nil {
		e.Detail = make(map[string]any)
	}
	e.Detail[key] = value
	return e
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

// KindOf extracts the ErrorKind from any error. Unclassified errors report
// KindInternal; nil reports the empty kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetriable reports whether the error is worth retrying.
func IsRetriable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retriable
	}
	return false
}

// MostSevere returns the highest-ranked error, or nil when the slice holds
// none. Ties keep the earliest.
func MostSevere(errs []*Error) *Error {
	var best *Error
	for _, e := range errs {
		if e == nil {
			continue
		}
		if best == nil || severity[e.Kind] > severity[best.Kind] {
			best = e
		}
	}
	return best
}
