package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/medplanner/medplanner/libs/auth"
	"github.com/medplanner/medplanner/libs/config"
	"github.com/medplanner/medplanner/libs/httpx"
	otelx "github.com/medplanner/medplanner/libs/otel"
	"github.com/medplanner/medplanner/libs/runtime"
)

func main() {
	_ = godotenv.Load()

	service := config.String("SERVICE_NAME", "gateway-service")
	port, err := config.Port("PORT", "8080")
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

	mux := runtime.NewBaseMuxWithReady()
	registerRoutes(mux, logger, config.String("JWT_SECRET", "dev-secret"))

	bodyLimit := int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))
	requestTimeout := time.Duration(config.Int("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second
	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 60)

	var rateLimitMW httpx.Middleware
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	corsMethods := config.List("CORS_ALLOWED_METHODS")
	if corsMethods == nil {
		corsMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	corsHeaders := config.List("CORS_ALLOWED_HEADERS")
	if corsHeaders == nil {
		corsHeaders = []string{"Authorization", "Content-Type", "X-Request-Id"}
	}

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   corsMethods,
			AllowedHeaders:   corsHeaders,
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           time.Duration(config.Int("CORS_MAX_AGE_SECONDS", 600)) * time.Second,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(bodyLimit),
		httpx.WithTimeout(requestTimeout),
		rateLimitMW,
	)
	handler = otelhttp.NewHandler(handler, "gateway")
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

func registerRoutes(mux *http.ServeMux, logger *slog.Logger, jwtSecret string) {
	clinicURL := mustParseURL(config.String("CLINIC_API_URL", "http://clinic-api:8081"))
	clinicProxy := httputil.NewSingleHostReverseProxy(clinicURL)
	otelTransport := otelhttp.NewTransport(http.DefaultTransport)
	clinicProxy.Transport = otelTransport

	// Register and login must stay public. The clinic API enforces its own
	// sessions too; the gateway just rejects unauthenticated traffic early.
	registerProxy(mux, "/api/auth", clinicProxy)
	registerProxy(mux, "/api/appointments", requireAuth(clinicProxy, jwtSecret))
	registerProxy(mux, "/api/doctors", requireAuth(clinicProxy, jwtSecret))
	registerProxy(mux, "/api/forms", requireAuth(clinicProxy, jwtSecret))
	registerProxy(mux, "/api/questionnaire", requireAuth(clinicProxy, jwtSecret))
	registerProxy(mux, "/api/audit", requireAuth(requireRole(clinicProxy, "doctor"), jwtSecret))

	// The treatment planner is an external collaborator; its requests and
	// responses pass through verbatim.
	if plannerRaw := config.String("PLANNER_URL", ""); plannerRaw != "" {
		plannerProxy := httputil.NewSingleHostReverseProxy(mustParseURL(plannerRaw))
		plannerProxy.Transport = otelTransport
		registerProxy(mux, "/api/planner", requireAuth(plannerProxy, jwtSecret))
		registerProxy(mux, "/api/get-results", requireAuth(plannerProxy, jwtSecret))
		return
	}

	logger.Warn("PLANNER_URL not set, planner routes disabled")
	unavailable := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "planner not configured", http.StatusBadGateway)
	})
	registerProxy(mux, "/api/planner", unavailable)
	registerProxy(mux, "/api/get-results", unavailable)
}

func registerProxy(mux *http.ServeMux, prefix string, handler http.Handler) {
	if !strings.HasSuffix(prefix, "/") {
		mux.Handle(prefix, handler)
		mux.Handle(prefix+"/", handler)
		return
	}
	mux.Handle(prefix, handler)
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

func requireAuth(next http.Handler, jwtSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || len(strings.TrimSpace(authHeader)) <= len("Bearer ") {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := auth.ParseAndVerify(token, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		r.Header.Del("X-User-Id")
		r.Header.Del("X-Role")
		r.Header.Set("X-User-Id", claims.Subject)
		r.Header.Set("X-Role", claims.Role)
		next.ServeHTTP(w, r)
	})
}

func requireRole(next http.Handler, roles ...string) http.Handler {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := r.Header.Get("X-Role")
		if _, ok := allowed[role]; !ok {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
