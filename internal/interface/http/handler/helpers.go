package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/negotiation-backend/internal/interface/http/response"
)

// UserIDKey совпадает с ключом, который выставляет auth middleware.
const UserIDKey = "user_id"

func getUserID(c *gin.Context) (uuid.UUID, error) {
	userIDValue, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, errors.New("user_id не найден в контексте")
	}

	userID, ok := userIDValue.(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("некорректный формат user_id")
	}

	return userID, nil
}

// requireUser возвращает пользователя или отвечает 401.
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, err := getUserID(c)
	if err != nil {
		response.Unauthorized(c, "требуется авторизация")
		return uuid.Nil, false
	}
	return userID, true
}

// uuidParam разбирает параметр пути или отвечает 400.
func uuidParam(c *gin.Context, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, message)
		return uuid.Nil, false
	}
	return id, true
}

// fail отвечает конвертом ошибки и передаёт её в ErrorHandler для логирования.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	response.Error(c, err)
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
