package main // admin service: submission search, export, analytics, audit logs

import (
	"context"
	"log"

	"github.com/iliyamo/photo-platform/internal/config"
	"github.com/iliyamo/photo-platform/internal/handler"
	"github.com/iliyamo/photo-platform/internal/logger"
	"github.com/iliyamo/photo-platform/internal/middleware"
	"github.com/iliyamo/photo-platform/internal/repository"
	"github.com/iliyamo/photo-platform/internal/router"
	"github.com/iliyamo/photo-platform/internal/server"
	"github.com/iliyamo/photo-platform/internal/service"
)

func main() {
	infra, err := server.Bootstrap("admin")
	if err != nil {
		log.Fatal(err)
	}
	defer infra.Close()

	adminSvc := service.NewAdminService(repository.NewSubmissionRepo(infra.DB), infra.Audit, infra.Cfg.ExportMaxRecords)
	cache := middleware.ResponseCache(config.LoadCacheConfig(), "analytics", infra.Redis)

	e := router.New("admin")
	router.RegisterAdmin(e,
		handler.NewAdminHandler(adminSvc),
		handler.NewAuditLogHandler(infra.AuditStore),
		infra.Tokens, infra.Limiter, infra.Audit, cache)

	if err := server.Serve(context.Background(), e, infra.Cfg.Port); err != nil {
		logger.Log.Errorw("server stopped", "error", err)
	}
}
