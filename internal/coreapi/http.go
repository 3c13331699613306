package coreapi

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

	"github.com/shopspring/decimal"
)

// HTTPClient talks to the core-banking REST API over HTTP/JSON.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds a core API client for the given base URL.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("core api url is required")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do issues a JSON request and decodes the response into out when non-nil.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// doBinary fetches a binary document (report exports).
func (c *HTTPClient) doBinary(ctx context.Context, path, token string) (Export, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return Export{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return Export{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		return Export{}, err
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return Export{}, fmt.Errorf("%w: read export: %v", ErrUnavailable, err)
	}
	return Export{Content: content, ContentType: resp.Header.Get("Content-Type")}, nil
}

// mapStatus translates HTTP status codes into the client error taxonomy. It
// must only be called once per response since it may consume the body.
func mapStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		var parsed errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err == nil {
			if parsed.Message != "" {
				return newBusinessError(parsed.Message)
			}
			if parsed.Error != "" {
				return newBusinessError(parsed.Error)
			}
		}
		return newBusinessError(fmt.Sprintf("request rejected with status %d", resp.StatusCode))
	}
}

// Ping probes the core's health endpoint.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", "", nil, nil)
}

func (c *HTTPClient) SignIn(ctx context.Context, creds Credentials) (SignInResult, error) {
	var res SignInResult
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/sign-in", "", creds, &res)
	return res, err
}

func (c *HTTPClient) SignUp(ctx context.Context, input SignUpInput) (User, error) {
	var user User
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/sign-up", "", input, &user)
	return user, err
}

func (c *HTTPClient) CurrentUser(ctx context.Context, token string) (User, error) {
	var user User
	err := c.do(ctx, http.MethodGet, "/api/v1/me", token, nil, &user)
	return user, err
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (User, error) {
	var user User
	err := c.do(ctx, http.MethodPut, "/api/v1/me", token, update, &user)
	return user, err
}

func (c *HTTPClient) ChangePassword(ctx context.Context, token, current, next string) error {
	body := map[string]string{"current_password": current, "new_password": next}
	return c.do(ctx, http.MethodPost, "/api/v1/me/password", token, body, nil)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, email, newPassword string) error {
	body := map[string]string{"email": email, "new_password": newPassword}
	return c.do(ctx, http.MethodPost, "/api/v1/auth/reset-password", "", body, nil)
}

func (c *HTTPClient) ListProducts(ctx context.Context, token string) ([]Product, error) {
	var products []Product
	err := c.do(ctx, http.MethodGet, "/api/v1/products", token, nil, &products)
	return products, err
}

func (c *HTTPClient) GetProduct(ctx context.Context, token, id string) (Product, error) {
	var product Product
	err := c.do(ctx, http.MethodGet, "/api/v1/products/"+url.PathEscape(id), token, nil, &product)
	return product, err
}

func (c *HTTPClient) CreateProduct(ctx context.Context, token string, input ProductInput) (Product, error) {
	var product Product
	err := c.do(ctx, http.MethodPost, "/api/v1/products", token, input, &product)
	return product, err
}

func (c *HTTPClient) UpdateProduct(ctx context.Context, token, id string, input ProductInput) (Product, error) {
	var product Product
	err := c.do(ctx, http.MethodPut, "/api/v1/products/"+url.PathEscape(id), token, input, &product)
	return product, err
}

func (c *HTTPClient) DeleteProduct(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/products/"+url.PathEscape(id), token, nil, nil)
}

type openAccountRequest struct {
	ProductID  string          `json:"product_id"`
	Amount     decimal.Decimal `json:"amount"`
	TermMonths int             `json:"term_months"`
}

func (c *HTTPClient) OpenAccount(ctx context.Context, token, productID string, amount decimal.Decimal, termMonths int) (SavingsAccount, error) {
	var account SavingsAccount
	body := openAccountRequest{ProductID: productID, Amount: amount, TermMonths: termMonths}
	err := c.do(ctx, http.MethodPost, "/api/v1/accounts", token, body, &account)
	return account, err
}

func (c *HTTPClient) GetAccount(ctx context.Context, token, id string) (SavingsAccount, error) {
	var account SavingsAccount
	err := c.do(ctx, http.MethodGet, "/api/v1/accounts/"+url.PathEscape(id), token, nil, &account)
	return account, err
}

func (c *HTTPClient) ListAccounts(ctx context.Context, token string) ([]SavingsAccount, error) {
	var accounts []SavingsAccount
	err := c.do(ctx, http.MethodGet, "/api/v1/accounts", token, nil, &accounts)
	return accounts, err
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (c *HTTPClient) Deposit(ctx context.Context, token, accountID string, amount decimal.Decimal) (SavingsAccount, error) {
	var account SavingsAccount
	err := c.do(ctx, http.MethodPost, "/api/v1/accounts/"+url.PathEscape(accountID)+"/deposit", token, amountRequest{Amount: amount}, &account)
	return account, err
}

func (c *HTTPClient) Withdraw(ctx context.Context, token, accountID string, amount decimal.Decimal) (SavingsAccount, error) {
	var account SavingsAccount
	err := c.do(ctx, http.MethodPost, "/api/v1/accounts/"+url.PathEscape(accountID)+"/withdraw", token, amountRequest{Amount: amount}, &account)
	return account, err
}

func (c *HTTPClient) Overview(ctx context.Context, token string) (AccountSummary, error) {
	var summary AccountSummary
	err := c.do(ctx, http.MethodGet, "/api/v1/overview", token, nil, &summary)
	return summary, err
}

func (c *HTTPClient) RecentTransactions(ctx context.Context, token string, limit int) ([]Transaction, error) {
	var txs []Transaction
	path := "/api/v1/transactions/recent?limit=" + strconv.Itoa(limit)
	err := c.do(ctx, http.MethodGet, path, token, nil, &txs)
	return txs, err
}

func (c *HTTPClient) ListUsers(ctx context.Context, token string) ([]User, error) {
	var users []User
	err := c.do(ctx, http.MethodGet, "/api/v1/admin/users", token, nil, &users)
	return users, err
}

func (c *HTTPClient) GetUser(ctx context.Context, token, id string) (User, error) {
	var user User
	err := c.do(ctx, http.MethodGet, "/api/v1/admin/users/"+url.PathEscape(id), token, nil, &user)
	return user, err
}

func (c *HTTPClient) UpdateUser(ctx context.Context, token, id string, update UserUpdate) (User, error) {
	var user User
	err := c.do(ctx, http.MethodPut, "/api/v1/admin/users/"+url.PathEscape(id), token, update, &user)
	return user, err
}

func (c *HTTPClient) DeleteUser(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/admin/users/"+url.PathEscape(id), token, nil, nil)
}

func (c *HTTPClient) SystemStats(ctx context.Context, token string) (SystemStats, error) {
	var stats SystemStats
	err := c.do(ctx, http.MethodGet, "/api/v1/admin/stats", token, nil, &stats)
	return stats, err
}

func (q ReportQuery) encode() string {
	values := url.Values{}
	values.Set("scope", q.Scope)
	values.Set("from", q.From)
	values.Set("to", q.To)
	if q.Type != "" {
		values.Set("type", q.Type)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	return values.Encode()
}

func (c *HTTPClient) ReportPage(ctx context.Context, token string, q ReportQuery) (ReportPage, error) {
	var page ReportPage
	err := c.do(ctx, http.MethodGet, "/api/v1/reports/transactions?"+q.encode(), token, nil, &page)
	return page, err
}

func (c *HTTPClient) ExportReportPDF(ctx context.Context, token string, q ReportQuery) (Export, error) {
	return c.doBinary(ctx, "/api/v1/reports/transactions/export/pdf?"+q.encode(), token)
}

func (c *HTTPClient) ExportReportExcel(ctx context.Context, token string, q ReportQuery) (Export, error) {
	return c.doBinary(ctx, "/api/v1/reports/transactions/export/excel?"+q.encode(), token)
}

var _ Client = (*HTTPClient)(nil)
