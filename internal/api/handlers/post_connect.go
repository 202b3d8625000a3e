package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AdamikHQ/go-signer-gateway/internal/api"
	"github.com/AdamikHQ/go-signer-gateway/internal/api/httperrors"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer"
	"github.com/AdamikHQ/go-signer-gateway/internal/util"
)

func PostConnectRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/connect", postConnectHandler(s))
}

// postConnectHandler connects the requested backend. Reconnecting the same
// kind is a no-op; a different kind conflicts with the active session.
func postConnectHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body api.ConnectPayload
		if err := c.Bind(&body); err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, httperrors.HTTPErrorTypeGeneric, "invalid request body")
		}

		kind, err := signer.ParseKind(body.Backend)
		if err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, httperrors.HTTPErrorTypeGeneric, err.Error())
		}

		s.Metrics.ConnectsTotal.WithLabelValues(string(kind)).Inc()

		if err := s.Session.Connect(ctx, kind); err != nil {
			var conflict *signer.ConflictError
			if errors.As(err, &conflict) {
				return httperrors.NewHTTPError(http.StatusConflict, httperrors.HTTPErrorTypeGeneric, conflict.Error())
			}
			log.Error().Err(err).Str("backend", string(kind)).Msg("Failed to connect backend")
			return err
		}

		return c.JSON(http.StatusOK, api.ConnectResponse{Backend: string(kind)})
	}
}
