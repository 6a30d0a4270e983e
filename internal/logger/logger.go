package logger

import (
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Log по умолчанию пишет в stderr с уровнем info, Init перенастраивает его.
var Log = logrus.New()

// Init инициализирует структурированный логгер.
// format: json (по умолчанию) или text для development.
func Init(level, format string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if format == "text" {
		SetTextFormatter()
		return
	}
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// SetOutput нужен тестам, чтобы перехватывать вывод.
func SetOutput(w io.Writer) {
	Log.SetOutput(w)
}

// ForSession - логгер с полем session_id.
func ForSession(sessionID uuid.UUID) *logrus.Entry {
	return Log.WithField("session_id", sessionID.String())
}
