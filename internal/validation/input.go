package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
)

const (
	MaxTitleLength = 200
	MaxLinkLength  = 500

	// AttachmentPathPrefix - относительные ссылки на вложения, выданные хранилищем.
	AttachmentPathPrefix = "/attachments/"
)

// ValidateLength проверяет длину строки в символах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return apperror.Validation(fmt.Sprintf("%s должен быть не менее %d символов", fieldName, min))
	}
	if max > 0 && length > max {
		return apperror.Validation(fmt.Sprintf("%s должен быть не более %d символов", fieldName, max))
	}
	return nil
}

// ValidateTitle проверяет название вклада. Пустое название допустимо для черновика.
func ValidateTitle(title string) error {
	return ValidateLength("название", strings.TrimSpace(title), 0, MaxTitleLength)
}

// ValidateFileLink принимает ссылку на загруженное вложение или внешний http(s) URL.
func ValidateFileLink(link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return apperror.Validation("ссылка на файл не может быть пустой")
	}
	if err := ValidateLength("ссылка на файл", link, 0, MaxLinkLength); err != nil {
		return err
	}

	if strings.HasPrefix(link, AttachmentPathPrefix) {
		if strings.Contains(link, "..") {
			return apperror.Validation("некорректная ссылка на вложение")
		}
		return nil
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return apperror.Validation("некорректный формат URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return apperror.Validation("ссылка должна начинаться с http:// или https://")
	}
	if parsed.Host == "" {
		return apperror.Validation("ссылка должна содержать доменное имя")
	}
	return nil
}
