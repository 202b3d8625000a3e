package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AdamikHQ/go-signer-gateway/internal/api"
)

func GetStatusRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/status", getStatusHandler(s))
}

// getStatusHandler reports the connected backend, if any.
func getStatusHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, kind, connected := s.Session.Current()

		resp := api.StatusResponse{Connected: connected}
		if connected {
			resp.Backend = string(kind)
		}
		return c.JSON(http.StatusOK, resp)
	}
}
