package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's subject and role claims into the request
// context.  The secret must match the one used by utils.NewAccessToken.
// Only access tokens signed with HMAC are accepted.  Downstream handlers
// read the claims with OperatorID and Role.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return failure(c, http.StatusUnauthorized, "missing bearer token")
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Reject any signing method other than HMAC before handing out
            // the secret.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            }, jwt.WithExpirationRequired())
            if err != nil || !tok.Valid {
                return failure(c, http.StatusUnauthorized, "invalid token")
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return failure(c, http.StatusUnauthorized, "invalid claims")
            }
            if typ, _ := claims["typ"].(string); typ != "access" {
                return failure(c, http.StatusUnauthorized, "invalid token type")
            }

            sub, _ := claims["sub"].(string)
            role, _ := claims["role"].(string)
            c.Set(ctxOperatorID, sub)
            c.Set(ctxRole, role)
            return next(c)
        }
    }
}
