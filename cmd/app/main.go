package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/focusflow/internal/config"
	"github.com/BuzzLyutic/focusflow/internal/handler"
	"github.com/BuzzLyutic/focusflow/internal/repo"
	"github.com/BuzzLyutic/focusflow/internal/service"
	"github.com/BuzzLyutic/focusflow/internal/worker"
)

func main() {
	// Загрузка конфигурации
	cfg := config.Load()

	// Подключаем логгер
	logger, _ := zap.NewProduction()
	if cfg.Debug {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Подключаем БД
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to Database.", zap.Error(err)) // Fatal потому что дальнейшая работа теряет смысл
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping the Database.", zap.Error(err))
	}
	logger.Info("Successfully connected to the Database!")

	taskRepo := repo.NewTaskRepo(pool)
	categoryRepo := repo.NewCategoryRepo(pool)

	// Redis необязателен: без него статистика читается напрямую из БД
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable, stats cache degraded", zap.Error(err))
		} else {
			logger.Info("Successfully connected to Redis!")
		}
	}
	tasks := repo.NewStatsCache(taskRepo, rdb, cfg.StatsCacheTTL, logger)

	authService := service.NewAuthService(repo.NewUserRepo(pool), cfg.JWTSecret, cfg.TokenTTL)

	r := handler.NewRouter(handler.Handlers{
		Tasks:      handler.NewTaskHandler(service.NewTaskService(tasks, categoryRepo), logger),
		Categories: handler.NewCategoryHandler(service.NewCategoryService(categoryRepo), logger),
		Auth:       handler.NewAuthHandler(authService, logger),
		Verifier:   authService,
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
	})

	// Фоновая очистка устаревших ключей идемпотентности
	sweeper := worker.NewSweeper(taskRepo, logger, cfg.SweepInterval, cfg.IdempotencyTTL)
	sweeper.Start(ctx)

	srv := http.Server{ // Создаем сервер
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(r),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
	sweeper.Stop()
	logger.Info("Server stopped successfully!")
}
