package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AdamikHQ/go-signer-gateway/internal/api"
	"github.com/AdamikHQ/go-signer-gateway/internal/api/httperrors"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer"
	"github.com/AdamikHQ/go-signer-gateway/internal/util"
)

func PostSignRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/sign", postSignHandler(s))
}

// postSignHandler signs a hex-encoded payload with the connected backend and
// returns the signature serialized per the requested format.
func postSignHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body api.SignPayload
		if err := c.Bind(&body); err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, httperrors.HTTPErrorTypeGeneric, "invalid request body")
		}
		if body.Payload == "" {
			return httperrors.NewHTTPError(http.StatusBadRequest, httperrors.HTTPErrorTypeGeneric, "payload is required")
		}

		payload, err := util.DecodeHex(body.Payload)
		if err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, httperrors.HTTPErrorTypeGeneric, "payload must be hex encoded")
		}

		backend, kind, connected := s.Session.Current()
		if !connected {
			return httperrors.NewHTTPError(http.StatusConflict, httperrors.HTTPErrorTypeGeneric, "no backend connected")
		}

		spec := specFromPayload(body.Spec)
		raw, err := backend.Sign(ctx, payload, spec)
		s.Metrics.ObserveOp(string(kind), "sign", err != nil)
		if err != nil {
			log.Error().Err(err).Str("backend", string(kind)).Msg("Failed to sign payload")
			return err
		}

		signature, err := signer.Extract(spec.SignatureFormat, raw)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, api.SignResponse{Signature: signature})
	}
}
