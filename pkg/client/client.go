package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-retryablehttp"

	"nftmarket/pkg/auth"
	"nftmarket/pkg/market"
	"nftmarket/pkg/registry"
)

// APIError is a failed API envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the market HTTP API.
type Client struct {
	baseURL    string
	adminToken string
	http       *retryablehttp.Client
}

type Option func(*Client)

func WithAdminToken(token string) Option {
	return func(c *Client) {
		c.adminToken = token
	}
}

func WithRetryMax(n int) Option {
	return func(c *Client) {
		c.http.RetryMax = n
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.HTTPClient.Timeout = d
	}
}

func New(baseURL string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.CheckRetry = checkRetry

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    retryClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type noRetryKey struct{}

// checkRetry retries transport failures and gateway errors only. A 500 from
// the API means the call was rolled back and replaying it will not help.
// Writes are never replayed: a gateway may time out after the market has
// committed the call.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if ctx.Value(noRetryKey{}) != nil {
		return false, nil
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests:
		return true, nil
	}
	return false, nil
}

type request struct {
	method string
	path   string
	caller common.Address
	admin  bool
	body   any
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	if r.method != http.MethodGet && r.method != http.MethodHead {
		ctx = context.WithValue(ctx, noRetryKey{}, true)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.caller != (common.Address{}) {
		req.Header.Set(auth.CallerHeader, r.caller.Hex())
	}
	if r.admin && c.adminToken != "" {
		req.Header.Set(auth.AdminTokenHeader, c.adminToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	if resp.StatusCode >= 400 || !env.Success {
		return &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.method, r.path, err)
	}
	return nil
}

func (c *Client) Market(ctx context.Context) (market.MarketInfo, error) {
	var info market.MarketInfo
	err := c.do(ctx, request{method: http.MethodGet, path: "/market"}, &info)
	return info, err
}

func (c *Client) SetListingFee(ctx context.Context, caller common.Address, fee string) error {
	return c.do(ctx, request{
		method: http.MethodPut, path: "/market/fee", caller: caller, admin: true,
		body: map[string]string{"fee": fee},
	}, nil)
}

func (c *Client) ChangeOwner(ctx context.Context, caller, owner common.Address) error {
	return c.do(ctx, request{
		method: http.MethodPut, path: "/market/owner", caller: caller, admin: true,
		body: map[string]string{"owner": owner.Hex()},
	}, nil)
}

func (c *Client) Upgrade(ctx context.Context, caller common.Address, version int) (market.MarketInfo, error) {
	var info market.MarketInfo
	err := c.do(ctx, request{
		method: http.MethodPost, path: "/market/upgrade", caller: caller, admin: true,
		body: map[string]int{"version": version},
	}, &info)
	return info, err
}

type Balance struct {
	Address    common.Address `json:"address"`
	Balance    string         `json:"balance"`
	BalanceWei string         `json:"balanceWei"`
}

func (c *Client) Deposit(ctx context.Context, account common.Address, amount string) (Balance, error) {
	var b Balance
	err := c.do(ctx, request{
		method: http.MethodPost, path: "/accounts/" + account.Hex() + "/deposit", admin: true,
		body: map[string]string{"amount": amount},
	}, &b)
	return b, err
}

func (c *Client) BalanceOf(ctx context.Context, account common.Address) (Balance, error) {
	var b Balance
	err := c.do(ctx, request{method: http.MethodGet, path: "/accounts/" + account.Hex() + "/balance"}, &b)
	return b, err
}

// CreateItem lists an asset. price and value are ether amounts; value must
// equal the listing fee.
func (c *Client) CreateItem(ctx context.Context, caller, contract common.Address, assetID uint64, price, value string) (market.MarketItem, error) {
	var item market.MarketItem
	err := c.do(ctx, request{
		method: http.MethodPost, path: "/items", caller: caller,
		body: map[string]any{"assetContract": contract.Hex(), "assetId": assetID, "price": price, "value": value},
	}, &item)
	return item, err
}

func (c *Client) BuyItem(ctx context.Context, caller, contract common.Address, assetID uint64, value string) (market.MarketItem, error) {
	var item market.MarketItem
	err := c.do(ctx, request{
		method: http.MethodPost, path: "/items/buy", caller: caller,
		body: map[string]any{"assetContract": contract.Hex(), "assetId": assetID, "value": value},
	}, &item)
	return item, err
}

func (c *Client) DeleteItem(ctx context.Context, caller common.Address, id uint64) (market.MarketItem, error) {
	var item market.MarketItem
	err := c.do(ctx, request{
		method: http.MethodDelete, path: "/items/" + strconv.FormatUint(id, 10), caller: caller,
	}, &item)
	return item, err
}

func (c *Client) GetItem(ctx context.Context, id uint64) (market.MarketItem, error) {
	var item market.MarketItem
	err := c.do(ctx, request{method: http.MethodGet, path: "/items/" + strconv.FormatUint(id, 10)}, &item)
	return item, err
}

func (c *Client) ActiveItems(ctx context.Context, page, size int) (market.Page, error) {
	return c.page(ctx, "/items/active", common.Address{}, page, size)
}

func (c *Client) CreatedItems(ctx context.Context, caller common.Address, page, size int) (market.Page, error) {
	return c.page(ctx, "/items/created", caller, page, size)
}

func (c *Client) PurchasedItems(ctx context.Context, caller common.Address, page, size int) (market.Page, error) {
	return c.page(ctx, "/items/purchased", caller, page, size)
}

func (c *Client) page(ctx context.Context, path string, caller common.Address, page, size int) (market.Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var p market.Page
	err := c.do(ctx, request{method: http.MethodGet, path: path + "?" + q.Encode(), caller: caller}, &p)
	return p, err
}

func (c *Client) Token(ctx context.Context) (registry.TokenInfo, error) {
	var info registry.TokenInfo
	err := c.do(ctx, request{method: http.MethodGet, path: "/registry"}, &info)
	return info, err
}

func (c *Client) Mint(ctx context.Context, to common.Address) (uint64, error) {
	var own registry.AssetOwnership
	err := c.do(ctx, request{
		method: http.MethodPost, path: "/registry/mint",
		body: map[string]string{"to": to.Hex()},
	}, &own)
	return own.AssetID, err
}

func (c *Client) Approve(ctx context.Context, caller, operator common.Address, assetID uint64) error {
	return c.do(ctx, request{
		method: http.MethodPost, path: "/registry/approve", caller: caller,
		body: map[string]any{"operator": operator.Hex(), "assetId": assetID},
	}, nil)
}
