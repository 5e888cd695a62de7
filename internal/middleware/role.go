package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Roles accepted in the token's role claim.
const (
    RoleStaff = "STAFF"
    RoleAdmin = "ADMIN"
)

// RequireRole rejects requests whose role (set by JWTAuth) is not one of
// roles with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get(ctxRole).(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "code": "forbidden"})
            }
            return next(c)
        }
    }
}
