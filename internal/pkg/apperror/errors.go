package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeStateConflict ErrorCode = "STATE_CONFLICT"
	ErrCodeStaleVersion  ErrorCode = "STALE_VERSION"
	ErrCodeUnavailable   ErrorCode = "UNAVAILABLE"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation, StateConflict и Unavailable - три типа ошибок, на которые
// вызывающая сторона ветвится явно.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func StateConflict(message string) *AppError {
	return New(ErrCodeStateConflict, message)
}

func Unavailable(err error, message string) *AppError {
	return Wrap(err, ErrCodeUnavailable, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeStateConflict, ErrCodeStaleVersion:
		return http.StatusConflict
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или пустую строку, если это не AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	return CodeOf(err) == ErrCodeForbidden
}

func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

// IsStateConflict включает и устаревшую версию: это тот же конфликт состояния,
// обнаруженный по токену оптимистичной блокировки.
func IsStateConflict(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeStateConflict || code == ErrCodeStaleVersion
}

func IsStaleVersion(err error) bool {
	return CodeOf(err) == ErrCodeStaleVersion
}

func IsUnavailable(err error) bool {
	return CodeOf(err) == ErrCodeUnavailable
}

var (
	ErrContributionNotFound = New(ErrCodeNotFound, "вклад не найден")
	ErrSessionNotFound      = New(ErrCodeNotFound, "сессия переговоров не найдена")
	ErrProposalNotFound     = New(ErrCodeNotFound, "предложение не найдено")
	ErrMessageNotFound      = New(ErrCodeNotFound, "сообщение не найдено")
	ErrUnauthorized         = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden            = New(ErrCodeForbidden, "недостаточно прав")
	ErrNotParticipant       = New(ErrCodeForbidden, "пользователь не участвует в переговорах")
	ErrStaleVersion         = New(ErrCodeStaleVersion, "предложение было изменено, обновите данные")
)
