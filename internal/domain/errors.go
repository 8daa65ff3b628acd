package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeUnavailable      = "UNAVAILABLE"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrNoExtractableContent = NewDomainError(ErrCodeValidation, "no extractable content in file")
	ErrEmptyFile            = NewDomainError(ErrCodeValidation, "file is empty")
	ErrFileTooLarge         = NewDomainError(ErrCodeValidation, "file exceeds the maximum upload size")
	ErrInvalidURL           = NewDomainError(ErrCodeValidation, "invalid URL")
	ErrNoStagedFiles        = NewDomainError(ErrCodeValidation, "no staged files to commit")
)

// Not found errors
var (
	ErrUserNotFound    = NewDomainError(ErrCodeNotFound, "user not found")
	ErrDomainNotFound  = NewDomainError(ErrCodeNotFound, "domain not found")
	ErrFileNotFound    = NewDomainError(ErrCodeNotFound, "file not found")
	ErrSessionNotFound = NewDomainError(ErrCodeNotFound, "session not found")
)

// Operation errors
var (
	ErrNoDomainSelected   = NewDomainError(ErrCodeInvalidOperation, "no domain selected")
	ErrNoFilesSelected    = NewDomainError(ErrCodeInvalidOperation, "no files selected")
	ErrDefaultDomainFinal = NewDomainError(ErrCodeInvalidOperation, "the default domain cannot be deleted, only emptied")
)

// Unavailability errors wrap transport-level failures of the relational
// store or the cache. They are retryable service errors, distinct from
// business-logic rejections.
var (
	ErrStoreUnavailable = NewDomainError(ErrCodeUnavailable, "relational store unavailable")
	ErrCacheUnavailable = NewDomainError(ErrCodeUnavailable, "working-set cache unavailable")
)

// QuotaResource names the counter an admission check guards.
type QuotaResource string

const (
	QuotaFiles     QuotaResource = "files"
	QuotaDomains   QuotaResource = "domains"
	QuotaQuestions QuotaResource = "questions"
)

// AdmissionError is a quota rejection, not a system fault. It carries
// the observed count and the ceiling so callers can render a precise
// message.
type AdmissionError struct {
	Resource QuotaResource
	Current  int
	Limit    int
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("%s quota exceeded: %d of %d used", e.Resource, e.Current, e.Limit)
}

// NewAdmissionError creates a new AdmissionError
func NewAdmissionError(resource QuotaResource, current, limit int) *AdmissionError {
	return &AdmissionError{Resource: resource, Current: current, Limit: limit}
}

// IsAdmissionError reports whether err is a quota rejection and
// returns it if so.
func IsAdmissionError(err error) (*AdmissionError, bool) {
	var adm *AdmissionError
	if errors.As(err, &adm) {
		return adm, true
	}
	return nil, false
}
