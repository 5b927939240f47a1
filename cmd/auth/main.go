package main // auth service: registration, login, token refresh, profile

import (
	"context"
	"log"

	"github.com/iliyamo/photo-platform/internal/handler"
	"github.com/iliyamo/photo-platform/internal/logger"
	"github.com/iliyamo/photo-platform/internal/router"
	"github.com/iliyamo/photo-platform/internal/server"
	"github.com/iliyamo/photo-platform/internal/service"
)

func main() {
	infra, err := server.Bootstrap("auth")
	if err != nil {
		log.Fatal(err)
	}
	defer infra.Close()

	authSvc := service.NewAuthService(infra.Users, infra.Tokens, infra.Audit, infra.Cfg.BcryptCost)

	e := router.New("auth")
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), infra.Tokens, infra.Limiter, infra.Audit)

	if err := server.Serve(context.Background(), e, infra.Cfg.Port); err != nil {
		logger.Log.Errorw("server stopped", "error", err)
	}
}
