package dto

import (
	"net/http"
	"strings"
)

// API error codes. Clients switch on these, so they never change meaning.
const (
	ErrCodeInternal            = "ERR_INTERNAL"
	ErrCodeValidation          = "ERR_VALIDATION"
	ErrCodeValidationFormat    = "ERR_VALIDATION_FORMAT"
	ErrCodeBadRequest          = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON         = "ERR_INVALID_JSON"
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"

	// ErrCodeImportInProgress means another batch of the same kind holds
	// the import lock.
	ErrCodeImportInProgress = "ERR_IMPORT_IN_PROGRESS"
	// ErrCodeStructuralParse means the export could not be addressed by
	// position at all: missing report date row or no data rows.
	ErrCodeStructuralParse = "ERR_STRUCTURAL_PARSE"
	ErrCodeFileTooLarge    = "ERR_FILE_TOO_LARGE"
	ErrCodeEmptyFile       = "ERR_EMPTY_FILE"
	// ErrCodeNoErrors answers an error report request for a clean batch
	ErrCodeNoErrors = "ERR_NO_ERRORS"
)

var codeStatus = map[string]int{
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeValidationFormat:    http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeInvalidJSON:         http.StatusBadRequest,
	ErrCodeEmptyFile:           http.StatusBadRequest,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeNoErrors:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeImportInProgress:    http.StatusConflict,
	ErrCodeFileTooLarge:        http.StatusRequestEntityTooLarge,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeStructuralParse:     http.StatusUnprocessableEntity,
}

// domainCodes translates shared.DomainError codes to API codes
var domainCodes = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"LOCK_HELD":            ErrCodeImportInProgress,
	"NO_ERRORS":            ErrCodeNoErrors,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// GetHTTPStatus returns the status for an API code. Unlisted INVALID_*
// domain codes are input errors; anything else unknown is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode maps a domain code to its API code. Codes without a
// mapping pass through unchanged.
func NormalizeErrorCode(code string) string {
	if api, ok := domainCodes[code]; ok {
		return api
	}
	return code
}
