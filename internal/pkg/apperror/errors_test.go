package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeToHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrCodeNotFound:      http.StatusNotFound,
		ErrCodeValidation:    http.StatusBadRequest,
		ErrCodeStateConflict: http.StatusConflict,
		ErrCodeStaleVersion:  http.StatusConflict,
		ErrCodeUnavailable:   http.StatusServiceUnavailable,
		ErrCodeDatabaseError: http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, New(code, "x").HTTPStatus, code)
	}
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("usecase: %w", StateConflict("терминальный статус"))

	assert.True(t, IsStateConflict(err))
	assert.False(t, IsStaleVersion(err))
	assert.False(t, IsValidation(err))

	assert.True(t, IsStateConflict(ErrStaleVersion))
	assert.True(t, IsStaleVersion(ErrStaleVersion))
}

func TestUnavailable_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable(cause, "хранилище недоступно")

	assert.True(t, IsUnavailable(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("boom")))
}
