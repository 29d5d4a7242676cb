package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"viveo/internal/domain"
	"viveo/internal/infra"
)

// ErrMissingBaseURL indicates that the client was configured without a backend address.
var ErrMissingBaseURL = errors.New("api: base url is required")

// Options configures the backend API client.
type Options struct {
	BaseURL        string
	Token          string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls against the viveo backend REST contract.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *infra.Logger
}

// SubmitJobRequest captures the inputs for a video generation request. Cost
// is a local estimate used by the submission gate only and is not sent over
// the wire; the backend derives and reports the authoritative charge.
type SubmitJobRequest struct {
	Prompt          string
	DurationSeconds int
	AspectRatio     string
	Style           string
}

// JobPage is one page of the job history, ordered newest-first.
type JobPage struct {
	Jobs   []domain.Job
	Total  int
	Limit  int
	Offset int
}

// LedgerPage is one page of the credit ledger, ordered newest-first.
type LedgerPage struct {
	Entries []domain.LedgerEntry
	Total   int
	Limit   int
	Offset  int
}

// AddCreditsResult reports the authoritative balance after a purchase.
type AddCreditsResult struct {
	Credits int
	Added   int
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.Discard()
	}
	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(opts.Token),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *wireError      `json:"error"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wireJob struct {
	ID          string `json:"id"`
	Prompt      string `json:"prompt"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	CreditsUsed int    `json:"creditsUsed"`
	VideoURL    string `json:"videoUrl"`
	CreatedAt   string `json:"createdAt"`
	CompletedAt string `json:"completedAt"`
}

type wireLedgerEntry struct {
	ID           string `json:"id"`
	Amount       int    `json:"amount"`
	BalanceAfter int    `json:"balanceAfter"`
	Type         string `json:"type"`
	ReferenceID  string `json:"referenceId"`
	Description  string `json:"description"`
	CreatedAt    string `json:"createdAt"`
}

// SubmitJob issues the create-job call. The returned job carries the
// server-issued identifier and the authoritative creditsUsed charge.
func (c *Client) SubmitJob(ctx context.Context, req SubmitJobRequest) (*domain.Job, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrValidation)
	}
	payload := map[string]any{
		"prompt":          prompt,
		"durationSeconds": req.DurationSeconds,
		"aspectRatio":     req.AspectRatio,
		"style":           req.Style,
	}
	var out struct {
		Job wireJob `json:"job"`
	}
	if err := c.do(ctx, http.MethodPost, "/video/generate", nil, payload, &out); err != nil {
		return nil, err
	}
	job, err := decodeJob(out.Job)
	if err != nil {
		return nil, err
	}
	job.Prompt = prompt
	return job, nil
}

// GetJob fetches the current status of one job by identifier.
func (c *Client) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: job id is required", domain.ErrValidation)
	}
	var out struct {
		Job wireJob `json:"job"`
	}
	if err := c.do(ctx, http.MethodGet, "/video/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return decodeJob(out.Job)
}

// JobHistory fetches one page of past jobs, newest-first.
func (c *Client) JobHistory(ctx context.Context, limit, offset int) (*JobPage, error) {
	q := pageQuery(limit, offset)
	var out struct {
		Jobs   []wireJob `json:"jobs"`
		Total  int       `json:"total"`
		Limit  int       `json:"limit"`
		Offset int       `json:"offset"`
	}
	if err := c.do(ctx, http.MethodGet, "/video/history", q, nil, &out); err != nil {
		return nil, err
	}
	page := &JobPage{Total: out.Total, Limit: out.Limit, Offset: out.Offset}
	for _, wj := range out.Jobs {
		job, err := decodeJob(wj)
		if err != nil {
			return nil, err
		}
		page.Jobs = append(page.Jobs, *job)
	}
	return page, nil
}

// Balance fetches the authoritative credit balance.
func (c *Client) Balance(ctx context.Context) (*domain.Balance, error) {
	var out struct {
		Credits int    `json:"credits"`
		Plan    string `json:"plan"`
	}
	if err := c.do(ctx, http.MethodGet, "/wallet/balance", nil, nil, &out); err != nil {
		return nil, err
	}
	return &domain.Balance{Credits: out.Credits, Plan: out.Plan}, nil
}

// AddCredits purchases credits. The response carries the new authoritative total.
func (c *Client) AddCredits(ctx context.Context, amount int, paymentID string) (*AddCreditsResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	payload := map[string]any{"amount": amount}
	if paymentID != "" {
		payload["paymentId"] = paymentID
	}
	var out struct {
		Credits int `json:"credits"`
		Added   int `json:"added"`
	}
	if err := c.do(ctx, http.MethodPost, "/wallet/add", nil, payload, &out); err != nil {
		return nil, err
	}
	return &AddCreditsResult{Credits: out.Credits, Added: out.Added}, nil
}

// LedgerHistory fetches one page of the credit ledger, newest-first.
func (c *Client) LedgerHistory(ctx context.Context, limit, offset int) (*LedgerPage, error) {
	q := pageQuery(limit, offset)
	var out struct {
		Entries []wireLedgerEntry `json:"entries"`
		Total   int               `json:"total"`
		Limit   int               `json:"limit"`
		Offset  int               `json:"offset"`
	}
	if err := c.do(ctx, http.MethodGet, "/wallet/history", q, nil, &out); err != nil {
		return nil, err
	}
	page := &LedgerPage{Total: out.Total, Limit: out.Limit, Offset: out.Offset}
	for _, we := range out.Entries {
		page.Entries = append(page.Entries, domain.LedgerEntry{
			ID:           we.ID,
			Amount:       we.Amount,
			BalanceAfter: we.BalanceAfter,
			Type:         domain.LedgerEntryType(we.Type),
			ReferenceID:  we.ReferenceID,
			Description:  we.Description,
			CreatedAt:    parseTime(we.CreatedAt),
		})
	}
	return page, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: %w: %v", domain.ErrTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: %w: read response: %v", domain.ErrTransient, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 300 {
		serr := &StatusError{StatusCode: resp.StatusCode}
		if decodeErr == nil && env.Error != nil {
			serr.Code = env.Error.Code
			serr.Message = env.Error.Message
		} else {
			serr.Message = strings.TrimSpace(string(raw))
		}
		c.logger.Debug().
			Int("status", resp.StatusCode).
			Str("path", path).
			Str("code", serr.Code).
			Msg("api: request rejected")
		return serr
	}

	if decodeErr != nil {
		return fmt.Errorf("api: %w: decode response: %v", domain.ErrTransient, decodeErr)
	}
	if !env.Success {
		serr := &StatusError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			serr.Code = env.Error.Code
			serr.Message = env.Error.Message
		}
		return serr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("api: %w: decode payload: %v", domain.ErrTransient, err)
	}
	return nil
}

func decodeJob(wj wireJob) (*domain.Job, error) {
	status, err := domain.ParseJobStatus(wj.Status)
	if err != nil {
		return nil, err
	}
	return &domain.Job{
		ID:          wj.ID,
		Prompt:      wj.Prompt,
		Status:      status,
		Progress:    wj.Progress,
		VideoURL:    wj.VideoURL,
		CreditsUsed: wj.CreditsUsed,
		CreatedAt:   parseTime(wj.CreatedAt),
		CompletedAt: parseTime(wj.CompletedAt),
	}, nil
}

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return q
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}
