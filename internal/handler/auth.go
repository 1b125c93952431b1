package handler

import (
    "crypto/subtle" // constant-time comparison of the login name
    "net/http"      // HTTP status codes
    "strings"       // trims the submitted credentials
    "time"          // token lifetime

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/smart-parking/internal/logging" // structured logging
    "github.com/iliyamo/smart-parking/internal/utils"   // token issuing and password checks
)

// AuthHandler issues access tokens to the single operator account
// configured through OPERATOR_USERNAME and OPERATOR_PASSWORD_HASH.
type AuthHandler struct {
    Username     string
    PasswordHash string
    Secret       string
    TTL          time.Duration
}

func NewAuthHandler(username, passwordHash, secret string, ttl time.Duration) *AuthHandler {
    return &AuthHandler{Username: username, PasswordHash: passwordHash, Secret: secret, TTL: ttl}
}

type loginReq struct {
    Username string `json:"username" validate:"required"`
    Password string `json:"password" validate:"required"`
}

// Login verifies the operator credentials and returns a signed access
// token.  Login is disabled while no password hash is configured.
// POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid body")
    }
    req.Username = strings.TrimSpace(req.Username)
    if err := c.Validate(&req); err != nil {
        return fail(c, http.StatusBadRequest, "username/password required")
    }
    if h.PasswordHash == "" {
        return fail(c, http.StatusServiceUnavailable, "operator login is not configured")
    }

    userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.Username)) == 1
    // always run bcrypt so timing does not reveal whether the name matched
    passOK := utils.VerifyPassword(h.PasswordHash, req.Password)
    if !userOK || !passOK {
        logging.Warn(c.Request().Context()).Str("username", req.Username).Msg("operator login rejected")
        return fail(c, http.StatusUnauthorized, "invalid credentials")
    }

    access, err := utils.NewAccessToken(h.Secret, h.Username, utils.RoleOperator, h.TTL)
    if err != nil {
        logging.Error(c.Request().Context()).Err(err).Msg("issue access token failed")
        return fail(c, http.StatusInternalServerError, "issue access failed")
    }
    return succeed(c, http.StatusOK, "logged in", echo.Map{
        "accessToken": access.Token,
        "expiresAt":   access.Exp,
    })
}
