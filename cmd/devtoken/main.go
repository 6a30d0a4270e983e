// Команда devtoken выпускает access токен для локальной разработки:
//
//	go run ./cmd/devtoken -user 6f1c...
package main

import (
	"flag"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/negotiation-backend/internal/config"
	"github.com/ignatzorin/negotiation-backend/internal/logger"
	"github.com/ignatzorin/negotiation-backend/internal/service"
)

func main() {
	rawUser := flag.String("user", "", "UUID пользователя (по умолчанию новый)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("devtoken: %v", err)
	}
	if cfg.IsProduction() {
		logger.Log.Fatal("devtoken: не используйте в production")
	}

	userID := uuid.New()
	if *rawUser != "" {
		if userID, err = uuid.Parse(*rawUser); err != nil {
			logger.Log.Fatalf("devtoken: некорректный -user: %v", err)
		}
	}

	token, exp, err := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL).Issue(userID)
	if err != nil {
		logger.Log.Fatalf("devtoken: %v", err)
	}

	fmt.Printf("user_id=%s\nexpires_at=%s\n%s\n", userID, exp.Format("2006-01-02T15:04:05Z07:00"), token)
}
