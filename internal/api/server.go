package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/arbadev/sigilo/internal/api/auth"
	"github.com/arbadev/sigilo/internal/atestados"
	"github.com/arbadev/sigilo/internal/config"
	"github.com/arbadev/sigilo/internal/diligencias"
	"github.com/arbadev/sigilo/internal/incidents"
	"github.com/arbadev/sigilo/internal/people"
	"github.com/arbadev/sigilo/internal/plantillas"
	"github.com/arbadev/sigilo/internal/users"
	"github.com/arbadev/sigilo/internal/vehicles"
)

// Server represents the API server
type Server struct {
	echo *echo.Echo
	port int
}

// NewServer creates a new API server wired against the given database.
func NewServer(cfg *config.Config, db *sql.DB) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	server := &Server{
		echo: e,
		port: cfg.Server.Port,
	}

	server.setupRoutes(cfg, db)

	return server
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes(cfg *config.Config, db *sql.DB) {
	// Health check endpoint
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	tokenService := auth.NewTokenService(cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)

	authHandlers := auth.NewAuthHandlers(tokenService, db, cfg.Auth.LoginBurst)
	authHandlers.RegisterHandlers(s.echo)

	userHandlers := users.NewHandlers(db, users.LogMailer{})
	userHandlers.RegisterPublicHandlers(s.echo)

	// Everything below requires a valid token.
	protected := s.echo.Group("", auth.RequireAuth(tokenService))

	// Database connectivity probe.
	protected.GET("/db", func(c echo.Context) error {
		var now time.Time
		if err := db.QueryRowContext(c.Request().Context(), `SELECT NOW()`).Scan(&now); err != nil {
			log.Error().Err(err).Msg("db probe")
			return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "error": "Error al conectar con la base de datos"})
		}
		return c.JSON(http.StatusOK, echo.Map{"ok": true, "time": now})
	})

	plantillaStore := plantillas.NewPostgresStore(db)
	plantillaService := plantillas.NewService(plantillaStore)
	plantillas.NewHandlers(plantillaService).RegisterHandlers(protected)

	atestadoStore := atestados.NewPostgresStore(db)
	diligenciaStore := diligencias.NewPostgresStore(db)
	engine := diligencias.NewEngine(diligenciaStore, atestadoStore, plantillaStore)
	diligencias.NewHandlers(engine).RegisterHandlers(protected)
	atestados.NewHandlers(atestadoStore, engine).RegisterHandlers(protected)

	userHandlers.RegisterHandlers(protected)
	incidents.NewHandlers(incidents.NewStore(db)).RegisterHandlers(protected)
	people.NewHandlers(db).RegisterHandlers(protected)
	vehicles.NewHandlers(db).RegisterHandlers(protected)
}

// Start begins the API server
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}
