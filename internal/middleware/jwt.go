package middleware // middleware contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/project-task-tracker/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the verified identity into the request context.  Handlers
// behind it read the values via c.Get("user_id") (uint64), c.Get("role"),
// c.Get("email") and c.Get("name").  Verification goes through the same
// Issuer that minted the token, so the access secret and HMAC method are
// enforced in one place.
func JWTAuth(issuer *utils.Issuer) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            cl, err := issuer.VerifyAccess(raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            // Store the verified claims in the context for handlers and
            // downstream middleware.
            c.Set("user_id", cl.UserID)
            c.Set("role", cl.Role)
            c.Set("email", cl.Email)
            c.Set("name", cl.Name)
            return next(c)
        }
    }
}
