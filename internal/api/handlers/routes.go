// Package handlers contains the route handlers of the signer API.
package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/AdamikHQ/go-signer-gateway/internal/api"
)

// AttachAllRoutes registers every route on the server's router.
func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		GetBackendsRoute(s),
		GetStatusRoute(s),
		PostConnectRoute(s),
		PostPublicKeyRoute(s),
		PostSignRoute(s),
	}
}
