package main

import (
	"context"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/medplanner/medplanner/libs/config"
	"github.com/medplanner/medplanner/libs/db"
	"github.com/medplanner/medplanner/libs/httpx"
	otelx "github.com/medplanner/medplanner/libs/otel"
	"github.com/medplanner/medplanner/libs/runtime"
	"github.com/medplanner/medplanner/services/clinic-api/internal/audit"
	"github.com/medplanner/medplanner/services/clinic-api/internal/forms"
	"github.com/medplanner/medplanner/services/clinic-api/internal/handlers"
	"github.com/medplanner/medplanner/services/clinic-api/internal/storage"
)

func main() {
	_ = godotenv.Load()

	service := config.String("SERVICE_NAME", "clinic-api")
	port, err := config.Port("PORT", "8081")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	secret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}
	tokenTTL := time.Duration(config.Int("JWT_TTL_HOURS", 168)) * time.Hour

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool); err != nil {
		logger.Error("migration failed", "err", err)
		panic(err)
	}

	userRepo := storage.NewUserRepository(pool)
	apptRepo := storage.NewAppointmentRepository(pool)
	formRepo := storage.NewFormRepository(pool)
	auditRepo := audit.NewRepository(pool)

	if err := formRepo.SeedForms(ctx, forms.DefaultForms()); err != nil {
		logger.Error("form seeding failed", "err", err)
		panic(err)
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
	)
	handlers.Register(mux,
		handlers.NewAuthHandler(userRepo, auditRepo, logger, secret, tokenTTL),
		handlers.NewAppointmentHandler(apptRepo, userRepo, auditRepo, logger),
		handlers.NewDoctorHandler(userRepo, apptRepo, logger),
		handlers.NewFormHandler(formRepo, logger),
		handlers.NewAuditHandler(auditRepo, logger),
		userRepo, secret)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("MAX_BODY_BYTES", 1<<20))),
		httpx.WithTimeout(time.Duration(config.Int("REQUEST_TIMEOUT_SECONDS", 15))*time.Second),
	)
	handler = otelhttp.NewHandler(handler, "clinic-api")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
