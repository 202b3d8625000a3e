package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AdamikHQ/go-signer-gateway/internal/api"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer/backends"
)

func GetBackendsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/backends", getBackendsHandler(s))
}

// getBackendsHandler lists the backend kinds whose configuration is present.
func getBackendsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		available := backends.Available(s.Config)

		names := make([]string, 0, len(available))
		for _, kind := range available {
			names = append(names, string(kind))
		}
		return c.JSON(http.StatusOK, api.BackendsResponse{Backends: names})
	}
}
