// Package finfeed talks to the financial connections provider that serves
// linked bank accounts and their transaction history.
package finfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tracksub/internal/domain/banksync"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 100

	refreshPathFmt   = "/v1/accounts/%s/refresh"
	transactionsPath = "/v1/transactions"
)

// Client implements banksync.Feed against the provider's REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
}

var _ banksync.Feed = (*Client)(nil)

func NewClient(baseURL, apiKey string, pageSize int) *Client {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		pageSize:   pageSize,
	}
}

// ErrorResponse is the provider's error envelope.
type ErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type transactionPage struct {
	Data    []feedTransaction `json:"data"`
	HasMore bool              `json:"has_more"`
}

type feedTransaction struct {
	ID           string `json:"id"`
	Account      string `json:"account"`
	Description  string `json:"description"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
	TransactedAt int64  `json:"transacted_at"`
}

// RefreshAccount asks the provider to re-pull the account's transactions.
func (c *Client) RefreshAccount(ctx context.Context, accountID string) error {
	endpoint := c.baseURL + fmt.Sprintf(refreshPathFmt, url.PathEscape(accountID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return apiError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// ListTransactions fetches all of the account's transactions after since,
// following has_more pagination. On a mid-fetch failure the pages retrieved
// so far are returned alongside the error.
func (c *Client) ListTransactions(ctx context.Context, accountID string, since *time.Time) ([]banksync.Transaction, error) {
	var all []banksync.Transaction
	startingAfter := ""

	for {
		page, err := c.fetchPage(ctx, accountID, since, startingAfter)
		if err != nil {
			return all, err
		}

		for _, ft := range page.Data {
			all = append(all, banksync.Transaction{
				ID:           ft.ID,
				AccountID:    ft.Account,
				Description:  ft.Description,
				AmountMinor:  ft.Amount,
				Currency:     ft.Currency,
				Status:       ft.Status,
				TransactedAt: time.Unix(ft.TransactedAt, 0).UTC(),
			})
		}

		if !page.HasMore || len(page.Data) == 0 {
			return all, nil
		}
		startingAfter = page.Data[len(page.Data)-1].ID
	}
}

func (c *Client) fetchPage(ctx context.Context, accountID string, since *time.Time, startingAfter string) (*transactionPage, error) {
	params := url.Values{}
	params.Set("account", accountID)
	params.Set("limit", strconv.Itoa(c.pageSize))
	if since != nil {
		params.Set("transacted_at[gt]", strconv.FormatInt(since.Unix(), 10))
	}
	if startingAfter != "" {
		params.Set("starting_after", startingAfter)
	}

	endpoint := c.baseURL + transactionsPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiErrorFromBody(resp.StatusCode, body)
	}

	var page transactionPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &page, nil
}

func apiError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}
	return apiErrorFromBody(resp.StatusCode, body)
}

func apiErrorFromBody(status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return fmt.Errorf("API request failed with status %d: %s", status, string(body))
	}
	return fmt.Errorf("API error (status %d): %s - %s", status, errResp.Error.Type, errResp.Error.Message)
}
