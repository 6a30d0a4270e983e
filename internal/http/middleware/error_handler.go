package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/negotiation-backend/internal/interface/http/response"
	"github.com/ignatzorin/negotiation-backend/internal/logger"
	"github.com/ignatzorin/negotiation-backend/internal/pkg/apperror"
)

// ErrorHandler логирует ошибки, добавленные хэндлерами через c.Error, и
// отвечает конвертом, если хэндлер сам ничего не записал.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		entry := logger.Log.WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": c.Writer.Status(),
		})

		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus < 500 {
			entry.Debug("Request rejected")
		} else {
			entry.Error("Request error")
		}

		if !c.Writer.Written() {
			response.Error(c, err)
		}
	}
}

// Recovery превращает панику хэндлера в 500 с конвертом ошибки.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Log.WithFields(logrus.Fields{
			"panic":  recovered,
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("Handler panic")
		response.Error(c, errors.New("panic"))
		c.Abort()
	})
}
