package storage

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"

	"github.com/ignatzorin/negotiation-backend/internal/domain/repository"
	"github.com/ignatzorin/negotiation-backend/internal/logger"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
)

// URLPrefix - префикс, под которым роутер раздаёт сохранённые вложения.
const URLPrefix = "/attachments"

// filetype определяет тип по первым 262 байтам.
const sniffLen = 262

// AttachmentStorage хранит вложения чата на диске под именем blake2b-хэша
// содержимого, поэтому одинаковые файлы сохраняются один раз.
type AttachmentStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewAttachmentStorage создаёт файловое хранилище вложений.
func NewAttachmentStorage(rootPath string, maxUploadMB int64) (*AttachmentStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &AttachmentStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// RootPath возвращает каталог хранилища.
func (s *AttachmentStorage) RootPath() string {
	return s.rootPath
}

// Save проверяет тип файла, сохраняет его и возвращает публичную ссылку и размер.
func (s *AttachmentStorage) Save(ctx context.Context, sessionID uuid.UUID, originalName string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", 0, apperror.Validation("не удалось прочитать файл")
	}
	if len(head) == 0 {
		return "", 0, apperror.Validation("файл не может быть пустым")
	}

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return "", 0, apperror.Validation("не удалось определить тип файла")
	}
	if !IsAllowedKind(head) {
		return "", 0, apperror.Validation(fmt.Sprintf("неподдерживаемый тип файла (%s)", kind.MIME.Value))
	}

	tmp, err := os.CreateTemp(s.rootPath, "upload-*.tmp")
	if err != nil {
		return "", 0, apperror.Unavailable(err, "хранилище вложений недоступно")
	}
	tempPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tempPath)
	}()

	hash, err := blake2b.New256(nil)
	if err != nil {
		return "", 0, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать хэш")
	}

	limited := io.LimitedReader{R: br, N: s.maxUploadBytes + 1}
	written, err := io.Copy(io.MultiWriter(tmp, hash), &limited)
	if err != nil {
		return "", 0, apperror.Unavailable(err, "ошибка записи вложения")
	}
	if written > s.maxUploadBytes {
		return "", 0, apperror.Validation(fmt.Sprintf("размер файла превышает лимит %d байт", s.maxUploadBytes))
	}
	if err := tmp.Close(); err != nil {
		return "", 0, apperror.Unavailable(err, "ошибка записи вложения")
	}

	sum := hex.EncodeToString(hash.Sum(nil))
	fileName := sum + "." + kind.Extension
	dir := filepath.Join(s.rootPath, sum[:2])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, apperror.Unavailable(err, "хранилище вложений недоступно")
	}

	target := filepath.Join(dir, fileName)
	if _, err := os.Stat(target); err == nil {
		logger.ForSession(sessionID).WithField("file", fileName).Debug("Attachment already stored")
	} else if err := os.Rename(tempPath, target); err != nil {
		return "", 0, apperror.Unavailable(err, "не удалось сохранить вложение")
	}

	logger.ForSession(sessionID).WithFields(logrus.Fields{
		"file":          fileName,
		"original_name": filepath.Base(originalName),
		"size":          written,
		"mime":          kind.MIME.Value,
	}).Info("Attachment stored")

	return path.Join(URLPrefix, sum[:2], fileName), written, nil
}

// IsAllowedKind разрешает изображения, PDF, аудио и видео.
func IsAllowedKind(head []byte) bool {
	return filetype.IsImage(head) ||
		filetype.IsAudio(head) ||
		filetype.IsVideo(head) ||
		filetype.Is(head, "pdf")
}

var _ repository.AttachmentStore = (*AttachmentStorage)(nil)
