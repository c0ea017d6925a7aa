// Package client talks to the game server's HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/model"
	"github.com/atmx/stock-game/internal/results"
	"github.com/atmx/stock-game/internal/trade"
)

const apiPrefix = "/api/v1"

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

type Client struct {
	client *resty.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	client := resty.New().
		SetTimeout(timeout).
		SetBaseURL(baseURL + apiPrefix).
		SetHeader("Accept", "application/json")
	return &Client{client: client}
}

// do sends a JSON request and decodes a JSON answer into out when it is not nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req := c.client.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		slog.Debug("error while dialing game server", slog.String("path", path), slog.String("err", err.Error()))
		return err
	}
	if resp.IsError() {
		return apiError(resp)
	}
	return nil
}

func apiError(resp *resty.Response) error {
	e := &APIError{Status: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
	var body trade.ErrorResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error != "" {
		e.Code = body.Code
		e.Message = body.Error
	}
	return e
}

func (c *Client) Market(ctx context.Context) (model.MarketState, error) {
	var out model.MarketState
	err := c.do(ctx, http.MethodGet, "/market", nil, &out)
	return out, err
}

func (c *Client) Company(ctx context.Context, companyID string) (trade.CompanyResponse, error) {
	var out trade.CompanyResponse
	err := c.do(ctx, http.MethodGet, "/market/"+url.PathEscape(companyID), nil, &out)
	return out, err
}

// ImportMarket uploads a market CSV file.
func (c *Client) ImportMarket(ctx context.Context, csv []byte) (model.MarketState, error) {
	var out model.MarketState
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/csv").
		SetBody(csv).
		SetResult(&out).
		Post("/market/import")
	if err != nil {
		return out, err
	}
	if resp.IsError() {
		return out, apiError(resp)
	}
	return out, nil
}

func (c *Client) Settings(ctx context.Context) (model.GameSettings, error) {
	var out model.GameSettings
	err := c.do(ctx, http.MethodGet, "/settings", nil, &out)
	return out, err
}

func (c *Client) SaveSettings(ctx context.Context, s model.GameSettings) (model.GameSettings, error) {
	var out model.GameSettings
	err := c.do(ctx, http.MethodPut, "/settings", s, &out)
	return out, err
}

// Start begins a new game. A nil req uses the saved settings.
func (c *Client) Start(ctx context.Context, req *trade.StartRequest) (model.GameState, error) {
	var out model.GameState
	var body any
	if req != nil {
		body = req
	}
	err := c.do(ctx, http.MethodPost, "/game", body, &out)
	return out, err
}

func (c *Client) Game(ctx context.Context) (model.GameState, error) {
	var out model.GameState
	err := c.do(ctx, http.MethodGet, "/game", nil, &out)
	return out, err
}

func (c *Client) Buy(ctx context.Context, companyID string, shares decimal.Decimal) (trade.TradeResponse, error) {
	return c.trade(ctx, "/game/buy", companyID, shares)
}

func (c *Client) Sell(ctx context.Context, companyID string, shares decimal.Decimal) (trade.TradeResponse, error) {
	return c.trade(ctx, "/game/sell", companyID, shares)
}

func (c *Client) trade(ctx context.Context, path, companyID string, shares decimal.Decimal) (trade.TradeResponse, error) {
	var out trade.TradeResponse
	err := c.do(ctx, http.MethodPost, path, trade.TradeRequest{CompanyID: companyID, Shares: shares}, &out)
	return out, err
}

func (c *Client) Advance(ctx context.Context) (trade.AdvanceResponse, error) {
	var out trade.AdvanceResponse
	err := c.do(ctx, http.MethodPost, "/game/advance", nil, &out)
	return out, err
}

func (c *Client) Reset(ctx context.Context) (model.GameState, error) {
	var out model.GameState
	err := c.do(ctx, http.MethodPost, "/game/reset", nil, &out)
	return out, err
}

func (c *Client) Holdings(ctx context.Context) ([]results.HoldingSummary, error) {
	var out []results.HoldingSummary
	err := c.do(ctx, http.MethodGet, "/game/holdings", nil, &out)
	return out, err
}

func (c *Client) Results(ctx context.Context) (results.Report, error) {
	var out results.Report
	err := c.do(ctx, http.MethodGet, "/game/results", nil, &out)
	return out, err
}

// ResultsXLSX downloads the results workbook.
func (c *Client) ResultsXLSX(ctx context.Context) ([]byte, error) {
	resp, err := c.client.R().SetContext(ctx).Get("/game/results.xlsx")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return resp.Body(), nil
}
