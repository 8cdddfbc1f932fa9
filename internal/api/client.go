package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultTimeout bounds every request unless overridden
const DefaultTimeout = 10 * time.Second

// Client talks to the remote poker server's HTTP API. It never retries on its
// own: transport failures come back as ErrConnectionUnavailable and
// application refusals as *RejectedError, and the caller decides what to do.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger.WithPrefix("api") }
}

// NewClient creates a client for the API rooted at baseURL, e.g.
// http://localhost:8080/api
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  log.Default().WithPrefix("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateGame creates a new game and returns its id
func (c *Client) CreateGame(ctx context.Context, req CreateGameRequest) (*CreateGameResponse, error) {
	var resp CreateGameResponse
	if err := c.post(ctx, "/games", req, &resp); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	return &resp, nil
}

// ListGames returns the lobby
func (c *Client) ListGames(ctx context.Context) ([]GameSummary, error) {
	var resp gameList
	if err := c.get(ctx, "/games", nil, &resp, false); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return resp.Games, nil
}

// Join takes a seat in gameID. An empty kind lets the server default to a bot seat.
func (c *Client) Join(ctx context.Context, gameID, name string, kind PlayerType) (*JoinResponse, error) {
	var resp JoinResponse
	path := "/games/" + url.PathEscape(gameID) + "/join"
	if err := c.post(ctx, path, JoinRequest{BotName: name, PlayerType: kind}, &resp); err != nil {
		return nil, fmt.Errorf("join game %s: %w", gameID, err)
	}
	return &resp, nil
}

// StartGame asks the server to start dealing
func (c *Client) StartGame(ctx context.Context, gameID string) error {
	path := "/games/" + url.PathEscape(gameID) + "/start"
	if err := c.post(ctx, path, struct{}{}, nil); err != nil {
		return fmt.Errorf("start game %s: %w", gameID, err)
	}
	return nil
}

// State fetches the snapshot of gameID as seen by playerID. An empty
// playerID polls as a spectator.
func (c *Client) State(ctx context.Context, gameID, playerID string) (*GameSnapshot, error) {
	if playerID == "" {
		playerID = SpectatorID
	}
	var snap GameSnapshot
	path := "/games/" + url.PathEscape(gameID) + "/state"
	params := url.Values{"player_id": {playerID}}
	if err := c.get(ctx, path, params, &snap, true); err != nil {
		return nil, fmt.Errorf("game state %s: %w", gameID, err)
	}
	return &snap, nil
}

// SubmitAction submits one action. It is not idempotent and is never retried.
func (c *Client) SubmitAction(ctx context.Context, gameID, authToken string, action Action) error {
	if action.Type != Raise {
		action.Amount = 0
	}
	var resp ActionResponse
	path := "/games/" + url.PathEscape(gameID) + "/action"
	if err := c.post(ctx, path, ActionRequest{AuthToken: authToken, Action: action}, &resp); err != nil {
		return fmt.Errorf("submit %s: %w", action.Type, err)
	}
	if !resp.Success {
		return fmt.Errorf("submit %s: %w", action.Type, &RejectedError{Status: http.StatusOK, Message: resp.Error})
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any, stateLookup bool) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out, stateLookup)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out, false)
}

func (c *Client) do(req *http.Request, out any, stateLookup bool) error {
	c.logger.Debug("Request", "method", req.Method, "url", req.URL.Path)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return unavailable(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return unavailable(err)
	}

	switch {
	case resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusGatewayTimeout:
		return unavailable(fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		rejected := &RejectedError{Status: resp.StatusCode, Message: errorMessage(body)}
		rejected.notFound = stateLookup &&
			(resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest)
		return rejected
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
