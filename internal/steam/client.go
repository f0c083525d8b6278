// Playerpulse - Steam Player Count Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playerpulse

/*
client.go - Steam Web API and Storefront Client

This file implements the upstream client for the three Steam endpoints the
collector depends on: the most-played ranking (ISteamChartsService), live
per-app player counts (ISteamUserStats), and display names (storefront
appdetails). The storefront is throttled far harder than the Web API, so
appdetails requests go through a client-side rate limiter.

API References:
  https://api.steampowered.com/ISteamChartsService/GetMostPlayedGames/v1/
  https://api.steampowered.com/ISteamUserStats/GetNumberOfCurrentPlayers/v1/
  https://store.steampowered.com/api/appdetails
*/

package steam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/playerpulse/internal/config"
	"github.com/tomtom215/playerpulse/internal/metrics"
	"github.com/tomtom215/playerpulse/internal/models"
)

// API defines the upstream operations the collector needs. Both Client and
// CircuitBreakerClient implement this interface.
type API interface {
	TopEntities(ctx context.Context, limit int) ([]models.RankedEntity, error)
	LiveCount(ctx context.Context, appID int64) (int64, error)
	DisplayName(ctx context.Context, appID int64) (string, error)
}

// Ensure Client implements API
var _ API = (*Client)(nil)

// Client provides access to the Steam Web API and storefront endpoints.
type Client struct {
	chartsURL    string
	statsURL     string
	storeURL     string
	httpClient   *http.Client
	storeLimiter *rate.Limiter
}

// mostPlayedResponse is the ISteamChartsService/GetMostPlayedGames envelope.
type mostPlayedResponse struct {
	Response struct {
		Ranks []models.RankedEntity `json:"ranks"`
	} `json:"response"`
}

// currentPlayersResponse is the ISteamUserStats/GetNumberOfCurrentPlayers
// envelope. Result 1 means success; anything else means the app has no
// published count.
type currentPlayersResponse struct {
	Response struct {
		PlayerCount int64 `json:"player_count"`
		Result      int   `json:"result"`
	} `json:"response"`
}

// appDetailsEntry is one storefront appdetails result, keyed by appid string.
type appDetailsEntry struct {
	Success bool `json:"success"`
	Data    struct {
		Name string `json:"name"`
	} `json:"data"`
}

// NewClient creates a Steam client from configuration. URLs are normalized
// to have no trailing slash.
func NewClient(cfg *config.SteamConfig) *Client {
	return &Client{
		chartsURL: strings.TrimSuffix(cfg.ChartsURL, "/"),
		statsURL:  strings.TrimSuffix(cfg.StatsURL, "/"),
		storeURL:  strings.TrimSuffix(cfg.StoreURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		storeLimiter: rate.NewLimiter(rate.Limit(cfg.StoreRatePerSecond), cfg.StoreRateBurst),
	}
}

// TopEntities retrieves the current most-played ranking, capped at limit
// entries. The ranking drives the whole collection cycle, so a failure here
// is fatal to the cycle rather than per-game.
func (c *Client) TopEntities(ctx context.Context, limit int) ([]models.RankedEntity, error) {
	reqURL := c.chartsURL + "/GetMostPlayedGames/v1/"

	resp, err := c.doRequest(ctx, "most_played", reqURL)
	if err != nil {
		return nil, fmt.Errorf("steam most-played request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("steam most-played", resp)
	}

	var parsed mostPlayedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode steam most-played response: %w", err)
	}

	ranks := parsed.Response.Ranks
	if len(ranks) == 0 {
		return nil, fmt.Errorf("steam most-played response contained no ranks")
	}
	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks, nil
}

// LiveCount retrieves the current concurrent player count for one app.
func (c *Client) LiveCount(ctx context.Context, appID int64) (int64, error) {
	reqURL := fmt.Sprintf("%s/GetNumberOfCurrentPlayers/v1/?appid=%d", c.statsURL, appID)

	resp, err := c.doRequest(ctx, "current_players", reqURL)
	if err != nil {
		return 0, fmt.Errorf("steam player count request failed for app %d: %w", appID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, statusError(fmt.Sprintf("steam player count for app %d", appID), resp)
	}

	var parsed currentPlayersResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("failed to decode steam player count for app %d: %w", appID, err)
	}

	if parsed.Response.Result != 1 {
		return 0, fmt.Errorf("steam reports no player count for app %d (result=%d)", appID, parsed.Response.Result)
	}
	if parsed.Response.PlayerCount < 0 {
		return 0, fmt.Errorf("steam returned negative player count %d for app %d", parsed.Response.PlayerCount, appID)
	}
	return parsed.Response.PlayerCount, nil
}

// DisplayName retrieves the storefront display name for one app. The call
// waits on the storefront rate limiter before sending.
func (c *Client) DisplayName(ctx context.Context, appID int64) (string, error) {
	if err := c.storeLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("storefront rate limiter wait canceled: %w", err)
	}

	reqURL := fmt.Sprintf("%s/appdetails?appids=%d&filters=basic", c.storeURL, appID)

	resp, err := c.doRequest(ctx, "app_details", reqURL)
	if err != nil {
		return "", fmt.Errorf("storefront appdetails request failed for app %d: %w", appID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(fmt.Sprintf("storefront appdetails for app %d", appID), resp)
	}

	var parsed map[string]appDetailsEntry
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode storefront appdetails for app %d: %w", appID, err)
	}

	entry, ok := parsed[strconv.FormatInt(appID, 10)]
	if !ok || !entry.Success {
		return "", fmt.Errorf("storefront has no details for app %d", appID)
	}
	if entry.Data.Name == "" {
		return "", fmt.Errorf("storefront returned empty name for app %d", appID)
	}
	return entry.Data.Name, nil
}

// doRequest sends one GET request and records per-endpoint metrics.
func (c *Client) doRequest(ctx context.Context, endpoint, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.RecordSteamRequest(endpoint, time.Since(start), err)
	return resp, err
}

// statusError builds an error for a non-200 response, including a bounded
// prefix of the body when it can be read.
func statusError(what string, resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512))
	if err != nil || len(body) == 0 {
		return fmt.Errorf("%s returned status %d", what, resp.StatusCode)
	}
	return fmt.Errorf("%s returned status %d: %s", what, resp.StatusCode, string(body))
}
