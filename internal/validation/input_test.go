package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
)

func TestValidateLength_CountsRunes(t *testing.T) {
	assert.NoError(t, ValidateLength("поле", "привет", 1, 6))
	assert.True(t, apperror.IsValidation(ValidateLength("поле", "привет!", 1, 6)))
	assert.True(t, apperror.IsValidation(ValidateLength("поле", "", 1, 6)))
}

func TestValidateTitle(t *testing.T) {
	assert.NoError(t, ValidateTitle(""))
	assert.True(t, apperror.IsValidation(ValidateTitle(strings.Repeat("x", MaxTitleLength+1))))
}

func TestValidateFileLink(t *testing.T) {
	valid := []string{
		"/attachments/ab/abcdef.pdf",
		"https://files.example.com/deck.pdf",
		"http://localhost:8080/attachments/ab/abcdef.png",
	}
	for _, link := range valid {
		assert.NoError(t, ValidateFileLink(link), link)
	}

	invalid := []string{
		"",
		"/attachments/../etc/passwd",
		"ftp://files.example.com/deck.pdf",
		"https:///deck.pdf",
		"deck.pdf",
	}
	for _, link := range invalid {
		assert.True(t, apperror.IsValidation(ValidateFileLink(link)), link)
	}
}
