package main // application service: uploads, own submissions, photos, classification

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/photo-platform/internal/classifier"
	"github.com/iliyamo/photo-platform/internal/config"
	"github.com/iliyamo/photo-platform/internal/handler"
	"github.com/iliyamo/photo-platform/internal/logger"
	"github.com/iliyamo/photo-platform/internal/queue"
	"github.com/iliyamo/photo-platform/internal/repository"
	"github.com/iliyamo/photo-platform/internal/router"
	"github.com/iliyamo/photo-platform/internal/server"
	"github.com/iliyamo/photo-platform/internal/service"
	"github.com/iliyamo/photo-platform/internal/storage"
)

func main() {
	infra, err := server.Bootstrap("application")
	if err != nil {
		log.Fatal(err)
	}
	defer infra.Close()

	objects, err := storage.NewMinioStore(config.LoadStorageConfig())
	if err != nil {
		logger.Log.Fatalw("object store", "error", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := objects.EnsureBucket(ctx); err != nil {
		logger.Log.Warnw("bucket check failed; uploads will fail until storage is reachable", "error", err)
	}
	cancel()

	subs := repository.NewSubmissionRepo(infra.DB)
	worker := service.NewClassificationWorker(subs, objects, classifier.NewDigestClassifier(), infra.Audit)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	qcfg := config.LoadQueueConfig()
	var dispatcher queue.Dispatcher
	var inproc *queue.InProcessDispatcher
	switch qcfg.Driver {
	case "amqp":
		dispatcher = queue.NewAMQPDispatcher(qcfg.URL, qcfg.QueueName)
		go func() {
			if err := queue.StartClassificationConsumer(runCtx, qcfg, worker.Handle); err != nil && !errors.Is(err, context.Canceled) {
				logger.Log.Errorw("classification consumer stopped", "error", err)
			}
		}()
	case "inprocess":
		inproc = queue.NewInProcessDispatcher(worker.Handle)
		dispatcher = inproc
	default:
		logger.Log.Fatalw("unknown QUEUE_DRIVER", "driver", qcfg.Driver)
	}
	logger.Log.Infow("classification dispatcher ready", "driver", qcfg.Driver)

	subSvc := service.NewSubmissionService(subs, objects, dispatcher, infra.Audit, infra.Cfg.UploadMaxBytes)

	e := router.New("application")
	router.RegisterApplication(e, handler.NewSubmissionHandler(subSvc), infra.Tokens, infra.Limiter, infra.Audit)

	if err := server.Serve(runCtx, e, infra.Cfg.Port); err != nil {
		logger.Log.Errorw("server stopped", "error", err)
	}
	stop()
	if inproc != nil {
		inproc.Wait()
	}
}
