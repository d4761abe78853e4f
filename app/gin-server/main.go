package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Mangale12/cunsultancy-management-sub000/config"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/api/handlers"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/api/middleware"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/api/routes"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/cache"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/logger"
	mongorepo "github.com/Mangale12/cunsultancy-management-sub000/internal/repositories/mongo"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/repositories/postgres"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/services"
	"github.com/Mangale12/cunsultancy-management-sub000/internal/workers"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.InitPostgres(log); err != nil {
		log.WithError(err).Fatal("postgres init")
	}
	log.Info("postgres connected")

	if err := config.InitBlobStore(ctx); err != nil {
		log.WithError(err).Fatal("blob store init")
	}

	// Redis and Mongo back the course cache and the activity log. Both are
	// optional: without them lookups hit Postgres and activity is not kept.
	// Redis also carries the blob cleanup queue; without it orphaned blobs
	// are removed inline.
	blobs := config.BlobStore
	var courseCache cache.Cache
	if err := config.InitRedis(); err != nil {
		log.WithError(err).Warn("redis unavailable, course cache disabled")
	} else {
		courseCache = cache.NewRedisCache(config.RedisClient, "consultancy:")
		log.Info("redis connected")

		pool := &workers.BlobCleanupPool{Redis: config.RedisClient, Store: config.BlobStore, Logger: log}
		if err := pool.Start(ctx); err != nil {
			log.WithError(err).Warn("blob cleanup workers not started")
		} else {
			blobs = pool.DeferredStore()
		}
	}

	var activityRepo mongorepo.ActivityRepository
	if err := config.InitMongo(); err != nil {
		log.WithError(err).Warn("mongo unavailable, activity log disabled")
	} else {
		if err := config.EnsureMongoIndexes(); err != nil {
			log.WithError(err).Warn("mongo indexes")
		}
		activityRepo = mongorepo.NewActivityRepo(config.MongoDatabase())
		log.Info("mongo connected")
	}

	store := postgres.NewStore(config.PostgresDB)
	activity := services.NewActivityService(activityRepo, log)
	courses := services.NewCourseService(store, courseCache, log)
	students := services.NewStudentService(store, blobs, activity, log)
	documents := services.NewDocumentService(store, blobs, activity, log)
	applications := services.NewApplicationService(store, activity, log)
	catalogs := services.NewCatalogs(store, activity, courses, students, log)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.MaxMultipartMemory = 32 << 20

	routes.RegisterRoutes(r, routes.Deps{
		JWT:          middleware.JWTConfigFromEnv(),
		Catalogs:     catalogs,
		Documents:    handlers.NewDocumentHandler(documents, activity),
		Students:     handlers.NewStudentHandler(students, documents, activity),
		Courses:      handlers.NewCourseHandler(courses),
		Applications: handlers.NewApplicationHandler(applications),
		Activity:     handlers.NewActivityHandler(activity),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	closeBackends(shutdownCtx, log)
}

func closeBackends(ctx context.Context, log *logrus.Logger) {
	if config.RedisClient != nil {
		_ = config.RedisClient.Close()
	}
	if config.MongoClient != nil {
		if err := config.MongoClient.Disconnect(ctx); err != nil {
			log.WithError(err).Warn("mongo disconnect")
		}
	}
	if c, ok := config.BlobStore.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	if config.PostgresDB != nil {
		if db, err := config.PostgresDB.DB(); err == nil {
			_ = db.Close()
		}
	}
}
