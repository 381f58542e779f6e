// Package api borsh REST API
//
// @title           borsh REST API
// @version         1.0.0
// @description     Decode and encode Borsh-style fixed-layout records and keep payloads in a local store.
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout      = 5 * time.Second
	metricsRefreshPeriod = 30 * time.Second
)

// Routes builds the HTTP handler with all routes configured
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.Handler())

	m := s.metrics
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(m.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", m.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		r.Get("/schemas", m.InstrumentHandler("GET", "/api/v1/schemas", s.handleListSchemas))
		r.Get("/schemas/{name}", m.InstrumentHandler("GET", "/api/v1/schemas/{name}", s.handleGetSchema))

		r.Post("/decode/{schema}", m.InstrumentHandler("POST", "/api/v1/decode/{schema}", s.handleDecode))
		r.Post("/encode/{schema}", m.InstrumentHandler("POST", "/api/v1/encode/{schema}", s.handleEncode))

		r.Post("/records/{schema}", m.InstrumentHandler("POST", "/api/v1/records/{schema}", s.handlePutRecord))
		r.Get("/records/{schema}", m.InstrumentHandler("GET", "/api/v1/records/{schema}", s.handleListRecords))
		r.Get("/records/{schema}/{id}", m.InstrumentHandler("GET", "/api/v1/records/{schema}/{id}", s.handleGetRecord))
		r.Delete("/records/{schema}/{id}", m.InstrumentHandler("DELETE", "/api/v1/records/{schema}/{id}", s.handleDeleteRecord))
	})

	// Swagger documentation (unprotected)
	r.Get("/swagger/*", s.handleSwagger)

	return r
}

const swaggerUI = `<!DOCTYPE html>
<html>
<head>
	<title>borsh API Documentation</title>
	<link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui.css" />
</head>
<body>
	<div id="swagger-ui"></div>
	<script src="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui-bundle.js"></script>
	<script>
		window.onload = function() {
			SwaggerUIBundle({
				url: '/swagger/swagger.json',
				dom_id: '#swagger-ui',
				presets: [
					SwaggerUIBundle.presets.apis,
					SwaggerUIBundle.presets.standalone
				]
			});
		};
	</script>
</body>
</html>`

func (s *Server) handleSwagger(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/swagger/", "/swagger/index.html":
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerUI))
	case "/swagger/swagger.json":
		doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
		if err != nil {
			s.logger.Error("failed to generate swagger doc", "error", err)
			http.Error(w, "Failed to generate Swagger documentation", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentTypeJSON)
		_, _ = w.Write([]byte(doc))
	default:
		http.NotFound(w, r)
	}
}

// StartServer serves the API until ctx is canceled, then shuts down gracefully.
func StartServer(ctx context.Context, server *Server) error {
	cfg := server.config
	SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.Port)

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Bind, strconv.Itoa(cfg.Port)),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		server.logger.Info("starting borsh REST API server", "addr", httpServer.Addr)
		server.logger.Info("metrics available", "url", fmt.Sprintf("http://localhost:%d/metrics", cfg.Port))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		server.startMetricsUpdater(gctx, metricsRefreshPeriod)
		return nil
	})

	return g.Wait()
}
