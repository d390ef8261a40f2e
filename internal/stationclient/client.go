// Package stationclient is a small typed client for the food-station HTTP
// API, used by stationctl.
package stationclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/BrandonDHaskell/foodstation/internal/foodstation/service"
	"github.com/BrandonDHaskell/foodstation/internal/foodstation/types"
)

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status  int
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	http *resty.Client
}

// New builds a client for baseURL. token, if set, is sent as the bearer
// credential on every request.
func New(baseURL, token string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Client{http: c}
}

func (c *Client) AddUser(ctx context.Context, req service.RegisterUserRequest) (types.User, error) {
	var u types.User
	err := c.do(ctx, http.MethodPost, "/v1/admin/users", req, nil, &u)
	return u, err
}

func (c *Client) AddStation(ctx context.Context, req service.AddStationRequest) (types.Station, error) {
	var st types.Station
	err := c.do(ctx, http.MethodPost, "/v1/admin/stations", req, nil, &st)
	return st, err
}

func (c *Client) ListStations(ctx context.Context) ([]types.Station, error) {
	var out struct {
		Stations []types.Station `json:"stations"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/stations", nil, nil, &out)
	return out.Stations, err
}

func (c *Client) ListActivity(ctx context.Context, f types.ActivityFilter) ([]types.ActivityLogEntry, error) {
	q := map[string]string{}
	if f.StationID != "" {
		q["station_id"] = f.StationID
	}
	if f.RackID != "" {
		q["rack_id"] = f.RackID
	}
	if f.ActorID != "" {
		q["actor_id"] = f.ActorID
	}
	if f.Limit > 0 {
		q["limit"] = strconv.Itoa(f.Limit)
	}
	var out struct {
		Entries []types.ActivityLogEntry `json:"entries"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/activity", nil, q, &out)
	return out.Entries, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, query map[string]string, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode()}
		_ = json.Unmarshal(resp.Body(), apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
