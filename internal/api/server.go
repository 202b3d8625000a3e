// Package api hosts the HTTP shell exposing the signer session to callers.
package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/AdamikHQ/go-signer-gateway/internal/api/httperrors"
	"github.com/AdamikHQ/go-signer-gateway/internal/config"
	"github.com/AdamikHQ/go-signer-gateway/internal/metrics"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer"
	"github.com/AdamikHQ/go-signer-gateway/internal/util"
)

// Router groups the route surface.
type Router struct {
	Routes     []*echo.Route
	Root       *echo.Group
	Management *echo.Group
	APIV1      *echo.Group
}

// Server is the central struct keeping all the dependencies together.
type Server struct {
	Echo    *echo.Echo
	Router  *Router
	Config  config.Server
	Session *signer.Session
	Metrics *metrics.Service
}

// NewServer assembles the server from its components. The session is created
// here and lives for the process duration; it is never reset.
func NewServer(cfg config.Server, factories map[signer.Kind]signer.Factory) *Server {
	registry := prometheus.NewRegistry()

	s := &Server{
		Config:  cfg,
		Session: signer.NewSession(factories),
		Metrics: metrics.New(registry),
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler(cfg.Echo.HideInternalServerErrorDetails)
	e.Use(middleware.Recover())
	e.Use(requestLogger())

	s.Echo = e
	s.Router = &Router{
		Root:       e.Group(""),
		Management: e.Group("/-"),
		APIV1:      e.Group("/api/v1/signer"),
	}

	s.Router.Management.GET("/healthy", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	s.Router.Management.GET("/metrics", echo.WrapHandler(
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return s
}

// Start runs the HTTP listener; it blocks until shutdown.
func (s *Server) Start() error {
	log.Info().Str("address", s.Config.Echo.ListenAddress).Msg("Starting HTTP server")
	return s.Echo.Start(s.Config.Echo.ListenAddress)
}

// Shutdown gracefully stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Warn().Msg("Shutting down server")
	return s.Echo.Shutdown(ctx)
}

// requestLogger attaches a request-scoped logger (with a generated request
// id) to the context and logs request completion.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := uuid.New().String()
			l := log.With().
				Str("request_id", requestID).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Logger()

			ctx := util.WithLogger(c.Request().Context(), l)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			err := next(c)
			if err != nil {
				l.Warn().Err(err).Msg("Request failed")
			} else {
				l.Debug().Int("status", c.Response().Status).Msg("Request completed")
			}
			return err
		}
	}
}

// errorHandler serializes handler errors: httperrors pass through, signer
// errors map to a status by kind, everything else becomes a 500.
func errorHandler(hideInternalDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var payload *httperrors.HTTPError
		switch e := err.(type) {
		case *httperrors.HTTPError:
			payload = e
		case *echo.HTTPError:
			payload = httperrors.NewHTTPError(e.Code, httperrors.HTTPErrorTypeGeneric, http.StatusText(e.Code))
		default:
			payload = signerErrorPayload(err, hideInternalDetails)
		}

		if jsonErr := c.JSON(payload.Code, payload); jsonErr != nil {
			log.Error().Err(jsonErr).Msg("Failed to write error response")
		}
	}
}

// signerErrorPayload maps the signer error taxonomy onto HTTP statuses:
// caller-input rejections are 400s, remote and ceremony failures are 502s.
func signerErrorPayload(err error, hideInternalDetails bool) *httperrors.HTTPError {
	kinds := []struct {
		kind signer.ErrorKind
		code int
	}{
		{signer.ErrKindUnsupportedCurve, http.StatusBadRequest},
		{signer.ErrKindUnsupportedHash, http.StatusBadRequest},
		{signer.ErrKindUnsupportedFormat, http.StatusBadRequest},
		{signer.ErrKindConfiguration, http.StatusPreconditionFailed},
		{signer.ErrKindRemoteService, http.StatusBadGateway},
		{signer.ErrKindRemoteSigning, http.StatusBadGateway},
		{signer.ErrKindMpcTransport, http.StatusBadGateway},
		{signer.ErrKindMpcKeygen, http.StatusBadGateway},
		{signer.ErrKindMpcSigning, http.StatusBadGateway},
	}
	for _, m := range kinds {
		if signer.IsKind(err, m.kind) {
			return httperrors.NewHTTPError(m.code, m.kind.String(), err.Error())
		}
	}

	payload := httperrors.NewHTTPError(http.StatusInternalServerError,
		httperrors.HTTPErrorTypeGeneric, "Internal Server Error")
	if !hideInternalDetails {
		payload.WithDetail(err.Error())
	}
	return payload
}
