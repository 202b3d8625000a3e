package handlers

import (
	"encoding/hex"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AdamikHQ/go-signer-gateway/internal/api"
	"github.com/AdamikHQ/go-signer-gateway/internal/api/httperrors"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer"
	"github.com/AdamikHQ/go-signer-gateway/internal/util"
)

func PostPublicKeyRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.POST("/public-key", postPublicKeyHandler(s))
}

// postPublicKeyHandler returns the hex-encoded public key for the given spec
// from the connected backend.
func postPublicKeyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body api.PublicKeyPayload
		if err := c.Bind(&body); err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, httperrors.HTTPErrorTypeGeneric, "invalid request body")
		}

		backend, kind, connected := s.Session.Current()
		if !connected {
			return httperrors.NewHTTPError(http.StatusConflict, httperrors.HTTPErrorTypeGeneric, "no backend connected")
		}

		pubKey, err := backend.PublicKey(ctx, specFromPayload(body.Spec))
		s.Metrics.ObserveOp(string(kind), "public_key", err != nil)
		if err != nil {
			log.Error().Err(err).Str("backend", string(kind)).Msg("Failed to get public key")
			return err
		}

		return c.JSON(http.StatusOK, api.PublicKeyResponse{PublicKey: hex.EncodeToString(pubKey)})
	}
}

// specFromPayload converts the wire spec into the internal one. Validation
// happens at sign time inside the backend, not here.
func specFromPayload(p api.SpecPayload) signer.SigningSpec {
	return signer.SigningSpec{
		Curve:           signer.Curve(p.Curve),
		HashFunction:    signer.HashFunction(p.HashFunction),
		SignatureFormat: signer.SignatureFormat(p.SignatureFormat),
		CoinType:        p.CoinType,
	}
}
