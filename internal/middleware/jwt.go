package middleware

import (
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
    ctxStaffID = "staff_id"
    ctxRole    = "role"
)

// JWTAuth returns an Echo middleware that verifies an HS256 bearer token
// issued elsewhere and stores its subject and role claims on the context
// under "staff_id" and "role".  Tokens are only verified here, never
// issued.  The role is upper-cased so "admin" and "ADMIN" match.
func JWTAuth(secret string) echo.MiddlewareFunc {
    key := []byte(secret)
    parser := jwt.NewParser(
        jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
        jwt.WithLeeway(30*time.Second),
    )
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token", "code": "unauthorized"})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            claims := jwt.MapClaims{}
            tok, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
                return key, nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token", "code": "unauthorized"})
            }

            role, _ := claims["role"].(string)
            c.Set(ctxStaffID, subject(claims))
            c.Set(ctxRole, strings.ToUpper(strings.TrimSpace(role)))
            return next(c)
        }
    }
}

// subject renders the sub claim as a string; numeric ids are accepted.
func subject(claims jwt.MapClaims) string {
    switch v := claims["sub"].(type) {
    case string:
        return v
    case float64:
        return fmt.Sprintf("%.0f", v)
    case nil:
        return ""
    default:
        return fmt.Sprint(v)
    }
}
