package middleware

// identity.go holds the context keys shared by the auth, rate limit and
// logging middleware.  JWTAuth stores the operator's subject and role
// under these keys; unauthenticated requests have neither.

import "github.com/labstack/echo/v4"

const (
    ctxOperatorID = "operator_id"
    ctxRole       = "role"
)

// OperatorID returns the authenticated operator's subject, or "anon" when
// the request carries no valid token.
func OperatorID(c echo.Context) string {
    if s, ok := c.Get(ctxOperatorID).(string); ok && s != "" {
        return s
    }
    return "anon"
}

// Role returns the authenticated role, or "" for anonymous requests.
func Role(c echo.Context) string {
    s, _ := c.Get(ctxRole).(string)
    return s
}

// failure writes the {success:false, message} body every parking route
// uses for errors.
func failure(c echo.Context, status int, message string) error {
    return c.JSON(status, echo.Map{"success": false, "message": message})
}
