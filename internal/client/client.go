// Package client is a typed HTTP client for the parking API.  It is used
// by the parkingd CLI and by integration tests; the origin is always
// injected through Config.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/smart-parking/internal/handler"
)

const maxResponseBytes = 4 << 20

// Config configures a Client.  Token is optional and only needed for
// operator routes.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Token   string
}

type Client struct {
	http  *http.Client
	base  *url.URL
	token string
}

// APIError is returned for any response with success=false or a non-2xx
// status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("parking api: status %d", e.Status)
	}
	return fmt.Sprintf("parking api: status %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("client: base url is required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("client: unsupported scheme %q", u.Scheme)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{http: &http.Client{Timeout: timeout}, base: u, token: cfg.Token}, nil
}

// SetToken replaces the bearer token sent with every request.
func (c *Client) SetToken(token string) { c.token = token }

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// do sends in as JSON (when non-nil) and decodes the response body into
// out.  The envelope is checked before out is filled.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		const max = 256
		if len(raw) > max {
			raw = raw[:max]
		}
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// ParkingSpace fetches the lot summary.
func (c *Client) ParkingSpace(ctx context.Context) (handler.ParkingSpaceDTO, error) {
	var out struct {
		ParkingSpace handler.ParkingSpaceDTO `json:"parkingSpace"`
	}
	err := c.do(ctx, http.MethodGet, "/api/parking-space/get", nil, &out)
	return out.ParkingSpace, err
}

// InitializeRequest is the body of Initialize.  All zero selects the
// server's configured inventory.
type InitializeRequest struct {
	Regular  int `json:"regular"`
	Compact  int `json:"compact"`
	EV       int `json:"ev"`
	Handicap int `json:"handicap"`
}

// Initialize replaces the inventory.  Needs an operator token when the
// server has operator auth enabled.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) ([]handler.SlotDTO, error) {
	var out struct {
		Slots []handler.SlotDTO `json:"slots"`
	}
	err := c.do(ctx, http.MethodPost, "/api/parking-space/initialize", req, &out)
	return out.Slots, err
}

func (c *Client) Slots(ctx context.Context) ([]handler.SlotDTO, error) {
	var out struct {
		Slots []handler.SlotDTO `json:"slots"`
	}
	err := c.do(ctx, http.MethodGet, "/api/slot/get", nil, &out)
	return out.Slots, err
}

// EnterMaintenance takes a slot out of service.  Same auth as Initialize.
func (c *Client) EnterMaintenance(ctx context.Context, slotID string) (handler.SlotDTO, error) {
	return c.maintenance(ctx, http.MethodPost, slotID)
}

// ExitMaintenance returns a slot to service.  Same auth as Initialize.
func (c *Client) ExitMaintenance(ctx context.Context, slotID string) (handler.SlotDTO, error) {
	return c.maintenance(ctx, http.MethodDelete, slotID)
}

func (c *Client) maintenance(ctx context.Context, method, slotID string) (handler.SlotDTO, error) {
	var out struct {
		Slot handler.SlotDTO `json:"slot"`
	}
	err := c.do(ctx, method, "/api/slot/maintenance/"+url.PathEscape(slotID), nil, &out)
	return out.Slot, err
}

type RegisterRequest struct {
	Number      string `json:"number"`
	VehicleType string `json:"vehicleType"`
	BillingType string `json:"billingType"`
}

// Register parks a vehicle and returns the opened session and its slot.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (handler.SessionDTO, handler.SlotDTO, error) {
	var out struct {
		Session handler.SessionDTO `json:"session"`
		Slot    handler.SlotDTO    `json:"slot"`
	}
	err := c.do(ctx, http.MethodPost, "/api/vehicle/register", req, &out)
	return out.Session, out.Slot, err
}

// Exit closes a session and returns it with the billed amount.
func (c *Client) Exit(ctx context.Context, sessionID string) (handler.SessionDTO, error) {
	var out struct {
		Data handler.SessionDTO `json:"data"`
	}
	err := c.do(ctx, http.MethodPost, "/api/vehicle/exit/"+url.PathEscape(sessionID), nil, &out)
	return out.Data, err
}

func (c *Client) ActiveSessions(ctx context.Context) ([]handler.SessionDTO, error) {
	return c.sessions(ctx, "/api/sessions/get")
}

func (c *Client) AllSessions(ctx context.Context) ([]handler.SessionDTO, error) {
	return c.sessions(ctx, "/api/sessions/gets")
}

func (c *Client) sessions(ctx context.Context, path string) ([]handler.SessionDTO, error) {
	var out struct {
		Sessions []handler.SessionDTO `json:"sessions"`
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Sessions, err
}

func (c *Client) Session(ctx context.Context, id string) (handler.SessionDTO, error) {
	var out struct {
		Session handler.SessionDTO `json:"session"`
	}
	err := c.do(ctx, http.MethodGet, "/api/sessions/get/"+url.PathEscape(id), nil, &out)
	return out.Session, err
}

func (c *Client) Vehicle(ctx context.Context, id string) (handler.VehicleDTO, error) {
	var out struct {
		Vehicle handler.VehicleDTO `json:"vehicle"`
	}
	err := c.do(ctx, http.MethodGet, "/api/vehicle/get/"+url.PathEscape(id), nil, &out)
	return out.Vehicle, err
}

// Login exchanges operator credentials for an access token.  The token is
// also stored on the client for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	var out struct {
		AccessToken string    `json:"accessToken"`
		ExpiresAt   time.Time `json:"expiresAt"`
	}
	in := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", in, &out); err != nil {
		return "", time.Time{}, err
	}
	c.token = out.AccessToken
	return out.AccessToken, out.ExpiresAt, nil
}
