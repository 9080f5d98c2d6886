package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/ehr/fhirviewer/internal/domain/catalog"
	"github.com/ehr/fhirviewer/internal/platform/auth"
	"github.com/ehr/fhirviewer/internal/platform/db"
	"github.com/ehr/fhirviewer/internal/platform/fhir"
	"github.com/ehr/fhirviewer/internal/platform/middleware"
	"github.com/ehr/fhirviewer/internal/platform/validation"
)

func runServer() error {
	ctx := context.Background()
	a, err := newApp(ctx, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	// Fail fast on an unreadable catalog.
	stats, err := a.catalog.Stats(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load definition index")
		return err
	}
	logger.Info().Int("definitions", stats.Definitions).Strs("namespaces", stats.Namespaces).Msg("catalog ready")

	e := newServer(a)

	go func() {
		addr := ":" + a.cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newServer(a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = httpErrorHandler

	// Global middleware
	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "If-None-Match", middleware.RequestIDHeader},
	}))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(a.cfg.RequestTimeout))

	apiV1 := e.Group("/api/v1", middleware.ETag(middleware.DefaultETagConfig()))
	admin := auth.AdminJWT(auth.JWTConfig{SigningKey: []byte(a.cfg.AdminJWTSecret)})
	catalog.NewHandler(a.catalog).RegisterRoutes(apiV1, admin)

	e.GET("/health", healthHandler(a.catalog))
	if a.pool != nil {
		e.GET("/health/db", db.HealthHandler(a.pool))
	}
	return e
}

// healthHandler reports catalog size and cache counters; it fails when the
// index cannot be loaded.
func healthHandler(svc *catalog.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := svc.Stats(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unavailable",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"catalog": stats,
		})
	}
}

// httpErrorHandler renders every error escaping the handlers as an
// OperationOutcome.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	} else {
		c.Logger().Error(err)
	}

	var issue string
	switch code {
	case http.StatusBadRequest:
		issue = fhir.IssueTypeInvalid
	case http.StatusUnauthorized:
		issue = fhir.IssueTypeLogin
	case http.StatusForbidden:
		issue = fhir.IssueTypeSecurity
	case http.StatusNotFound:
		issue = fhir.IssueTypeNotFound
	case http.StatusMethodNotAllowed:
		issue = fhir.IssueTypeNotSupported
	case http.StatusGatewayTimeout:
		issue = fhir.IssueTypeTimeout
	default:
		issue = fhir.IssueTypeException
	}

	outcome := fhir.NewOperationOutcome(fhir.IssueSeverityError, issue, msg)
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, outcome)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}
