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

	"github.com/tusharkarle/gym-management/internal/membership"
	"github.com/tusharkarle/gym-management/internal/models"
)

// Client calls the JSON API of a running server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a Client for baseURL, e.g. http://127.0.0.1:3001/api/v1.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Backend = (*Client)(nil)

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Details map[string][]string `json:"details"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			return fmt.Errorf("gym api: encode request: %w", errMarshal)
		}
		reader = bytes.NewReader(raw)
	}
	req, errReq := http.NewRequestWithContext(ctx, method, target, reader)
	if errReq != nil {
		return fmt.Errorf("gym api: build request: %w", errReq)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return fmt.Errorf("gym api: %s %s: %w", method, path, errDo)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if errDecode := json.NewDecoder(resp.Body).Decode(&env); errDecode != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("gym api: decode response: %w", errDecode)
	}
	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Error, Details: env.Details}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if errDecode := json.Unmarshal(env.Data, out); errDecode != nil {
		return fmt.Errorf("gym api: decode data: %w", errDecode)
	}
	return nil
}

func idPath(format string, ids ...uint64) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return fmt.Sprintf(format, args...)
}

func setRange(q url.Values, r *membership.DateRange) {
	if r == nil {
		return
	}
	q.Set("start", r.Start.UTC().Format(time.RFC3339Nano))
	q.Set("end", r.End.UTC().Format(time.RFC3339Nano))
}

// CreateMember registers a member.
func (c *Client) CreateMember(ctx context.Context, input membership.MemberInput) (*models.Member, error) {
	var out models.Member
	if err := c.do(ctx, http.MethodPost, "/members", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMembers lists members.
func (c *Client) ListMembers(ctx context.Context, filters membership.MemberFilters) ([]models.Member, error) {
	q := url.Values{}
	if filters.Search != "" {
		q.Set("search", filters.Search)
	}
	if filters.Gender != "" {
		q.Set("gender", string(filters.Gender))
	}
	var out []models.Member
	if err := c.do(ctx, http.MethodGet, "/members", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMember fetches one member with related records.
func (c *Client) GetMember(ctx context.Context, id uint64) (*models.Member, error) {
	var out models.Member
	if err := c.do(ctx, http.MethodGet, idPath("/members/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMember applies a partial update.
func (c *Client) UpdateMember(ctx context.Context, id uint64, patch membership.MemberPatch) (*models.Member, error) {
	var out models.Member
	if err := c.do(ctx, http.MethodPatch, idPath("/members/%d", id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMember removes a member.
func (c *Client) DeleteMember(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, idPath("/members/%d", id), nil, nil, nil)
}

// CreatePackage adds a package template.
func (c *Client) CreatePackage(ctx context.Context, input membership.PackageInput) (*models.Package, error) {
	var out models.Package
	if err := c.do(ctx, http.MethodPost, "/packages", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPackages lists active packages.
func (c *Client) ListPackages(ctx context.Context) ([]models.Package, error) {
	var out []models.Package
	if err := c.do(ctx, http.MethodGet, "/packages", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPackage fetches one package.
func (c *Client) GetPackage(ctx context.Context, id uint64) (*models.Package, error) {
	var out models.Package
	if err := c.do(ctx, http.MethodGet, idPath("/packages/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePackage applies a partial update.
func (c *Client) UpdatePackage(ctx context.Context, id uint64, patch membership.PackagePatch) (*models.Package, error) {
	var out models.Package
	if err := c.do(ctx, http.MethodPatch, idPath("/packages/%d", id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RenewPackage sells a package to a member, recording payment when it is non-nil.
func (c *Client) RenewPackage(ctx context.Context, memberID, packageID uint64, payment *membership.PaymentDetails) (*models.MemberPackage, error) {
	var body any
	if payment != nil {
		body = map[string]any{"payment": payment}
	}
	var out models.MemberPackage
	if err := c.do(ctx, http.MethodPost, idPath("/packages/renew/%d/%d", memberID, packageID), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MemberPackages lists a member's subscriptions.
func (c *Client) MemberPackages(ctx context.Context, memberID uint64) ([]models.MemberPackage, error) {
	var out []models.MemberPackage
	if err := c.do(ctx, http.MethodGet, idPath("/packages/member/%d", memberID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CancelMemberPackage cancels an active subscription.
func (c *Client) CancelMemberPackage(ctx context.Context, memberPackageID uint64) (*models.MemberPackage, error) {
	var out models.MemberPackage
	if err := c.do(ctx, http.MethodPost, idPath("/member-packages/%d/cancel", memberPackageID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckIn records a check-in.
func (c *Client) CheckIn(ctx context.Context, memberID uint64, notes string) (*models.Attendance, error) {
	body := map[string]any{"memberId": memberID}
	if notes != "" {
		body["notes"] = notes
	}
	var out models.Attendance
	if err := c.do(ctx, http.MethodPost, "/attendance/checkin", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAttendance lists check-ins.
func (c *Client) ListAttendance(ctx context.Context, filters membership.AttendanceFilters) ([]models.Attendance, error) {
	q := url.Values{}
	if filters.MemberID != 0 {
		q.Set("memberId", strconv.FormatUint(filters.MemberID, 10))
	}
	setRange(q, filters.DateRange)
	var out []models.Attendance
	if err := c.do(ctx, http.MethodGet, "/attendance", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TodaysAttendance lists today's check-ins.
func (c *Client) TodaysAttendance(ctx context.Context) ([]models.Attendance, error) {
	var out []models.Attendance
	if err := c.do(ctx, http.MethodGet, "/attendance/today", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecordPayment records a payment.
func (c *Client) RecordPayment(ctx context.Context, input membership.PaymentInput) (*models.Payment, error) {
	var out models.Payment
	if err := c.do(ctx, http.MethodPost, "/payments", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPayments lists payments.
func (c *Client) ListPayments(ctx context.Context, filters membership.PaymentFilters) ([]models.Payment, error) {
	q := url.Values{}
	if filters.MemberID != 0 {
		q.Set("memberId", strconv.FormatUint(filters.MemberID, 10))
	}
	if filters.PaymentMethod != "" {
		q.Set("paymentMethod", string(filters.PaymentMethod))
	}
	setRange(q, filters.DateRange)
	var out []models.Payment
	if err := c.do(ctx, http.MethodGet, "/payments", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
