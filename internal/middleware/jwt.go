package middleware

import (
	"context"
	"net/http"

	"salonbook/internal/common"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTConfig selects how tokens are verified: a shared HMAC secret, or
// a JWKS endpoint when an external identity provider issues tokens.
type JWTConfig struct {
	Secret  string
	JWKSURL string
}

// JWTMiddleware validates bearer tokens and puts the user id and role
// claims on the request context. Tenant resolution is separate (see
// TenantMiddleware); the token never picks the tenant.
func JWTMiddleware(cfg JWTConfig) (echo.MiddlewareFunc, error) {
	var keyFunc jwt.Keyfunc
	if cfg.JWKSURL != "" {
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{})
		if err != nil {
			return nil, err
		}
		keyFunc = jwks.Keyfunc
	} else {
		keyFunc = func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.Secret), nil
		}
	}

	return echojwt.WithConfig(echojwt.Config{
		KeyFunc: keyFunc,
		SuccessHandler: func(c echo.Context) {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return
			}

			ctx := c.Request().Context()
			if sub, ok := claims["sub"].(string); ok {
				if userID, err := uuid.Parse(sub); err == nil {
					ctx = context.WithValue(ctx, common.UserIDKey, userID)
				}
			}
			if role, ok := claims["role"].(string); ok {
				ctx = context.WithValue(ctx, common.RoleKey, role)
			}
			c.SetRequest(c.Request().WithContext(ctx))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	}), nil
}

// RequireRole gates a route group to the given roles. Runs after
// JWTMiddleware.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := common.RoleFromContext(c.Request().Context())
			if !allowed[role] {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient role")
			}
			return next(c)
		}
	}
}
