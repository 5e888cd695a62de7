package middleware

import "github.com/labstack/echo/v4"

// StaffID returns the authenticated staff member's id, or "anon" before
// JWTAuth has run or when the token had no subject.
func StaffID(c echo.Context) string {
    if s, ok := c.Get(ctxStaffID).(string); ok && s != "" {
        return s
    }
    return "anon"
}

// Role returns the role set by JWTAuth, or "".
func Role(c echo.Context) string {
    r, _ := c.Get(ctxRole).(string)
    return r
}
