package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mealqr/console/internal/console/models"
)

// Client exposes one typed method per backend endpoint, all routed through
// the Session so every call shares the same auth and failure handling.
type Client struct {
	s *Session
}

// NewClient wraps a session.
func NewClient(s *Session) *Client {
	return &Client{s: s}
}

// Session returns the underlying session.
func (c *Client) Session() *Session {
	return c.s
}

// get performs an authorized GET and unmarshals the envelope's data field.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	env, err := c.s.Do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if !env.Success {
		return &Error{Status: http.StatusOK, Message: env.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding %s payload: %w", path, err)
	}
	return nil
}

// DashboardStats fetches the dashboard counters.
func (c *Client) DashboardStats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	err := c.get(ctx, "/api/admin/dashboard/stats", nil, &stats)
	return stats, err
}

// Users fetches one page of the user directory. Empty search or role omit
// the parameter.
func (c *Client) Users(ctx context.Context, page, limit int, search, role string) ([]models.User, models.Pagination, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if search != "" {
		q.Set("search", search)
	}
	if role != "" {
		q.Set("role", role)
	}
	var payload struct {
		Users      []models.User     `json:"users"`
		Pagination models.Pagination `json:"pagination"`
	}
	if err := c.get(ctx, "/api/admin/users", q, &payload); err != nil {
		return nil, models.Pagination{}, err
	}
	return payload.Users, payload.Pagination, nil
}

// DeleteUser removes one registered user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.s.Do(ctx, http.MethodDelete, "/api/admin/users/"+url.PathEscape(id), nil, nil)
	return err
}

// QRLogs fetches one page of coupon generation logs. Empty date or status
// omit the parameter.
func (c *Client) QRLogs(ctx context.Context, page, limit int, date, status string) ([]models.QRLog, models.Pagination, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if date != "" {
		q.Set("date", date)
	}
	if status != "" {
		q.Set("status", status)
	}
	var payload struct {
		Logs       []models.QRLog    `json:"logs"`
		Pagination models.Pagination `json:"pagination"`
	}
	if err := c.get(ctx, "/api/admin/qr-logs", q, &payload); err != nil {
		return nil, models.Pagination{}, err
	}
	return payload.Logs, payload.Pagination, nil
}

// ValidationHistory fetches recent redemption records, newest first in
// server order.
func (c *Client) ValidationHistory(ctx context.Context, limit int, date string) ([]models.ValidationRecord, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if date != "" {
		q.Set("date", date)
	}
	var payload struct {
		Records []models.ValidationRecord `json:"records"`
	}
	if err := c.get(ctx, "/api/validation/history", q, &payload); err != nil {
		return nil, err
	}
	return payload.Records, nil
}

// ValidateQR submits a coupon code for redemption. A rejected coupon
// (already used, expired, unknown) is a successful call with
// Success=false, not an error.
func (c *Client) ValidateQR(ctx context.Context, code string) (models.ValidationResult, error) {
	env, err := c.s.Do(ctx, http.MethodPost, "/api/validation/scan", nil, map[string]string{"qr_code": code})
	if err != nil {
		return models.ValidationResult{}, err
	}
	return models.ValidationResult{Success: env.Success, Message: env.Message}, nil
}

// AuditLogs fetches one page of the audit trail. Empty action or date omit
// the parameter.
func (c *Client) AuditLogs(ctx context.Context, page, limit int, action, date string) ([]models.AuditLog, models.Pagination, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if action != "" {
		q.Set("action", action)
	}
	if date != "" {
		q.Set("date", date)
	}
	var payload struct {
		Logs       []models.AuditLog `json:"logs"`
		Pagination models.Pagination `json:"pagination"`
	}
	if err := c.get(ctx, "/api/admin/audit-logs", q, &payload); err != nil {
		return nil, models.Pagination{}, err
	}
	return payload.Logs, payload.Pagination, nil
}

// Settings fetches the machine configuration.
func (c *Client) Settings(ctx context.Context) (models.Settings, error) {
	var settings models.Settings
	err := c.get(ctx, "/api/admin/settings", nil, &settings)
	return settings, err
}

// UpdateSettings replaces the machine configuration and returns the record
// the backend stored.
func (c *Client) UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error) {
	env, err := c.s.Do(ctx, http.MethodPut, "/api/admin/settings", nil, s)
	if err != nil {
		return models.Settings{}, err
	}
	var updated models.Settings
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &updated); err != nil {
			return models.Settings{}, fmt.Errorf("decoding settings payload: %w", err)
		}
		return updated, nil
	}
	return s, nil
}

// CreateOperator registers a new console account.
func (c *Client) CreateOperator(ctx context.Context, username, password, role string) (models.Operator, error) {
	env, err := c.s.Do(ctx, http.MethodPost, "/api/auth/create-operator", nil, map[string]string{
		"username": username,
		"password": password,
		"role":     role,
	})
	if err != nil {
		return models.Operator{}, err
	}
	var op models.Operator
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &op); err != nil {
			return models.Operator{}, fmt.Errorf("decoding operator payload: %w", err)
		}
	}
	return op, nil
}

// Register submits a registration with the captured photo as multipart form
// data. This is the intake boundary used by the operator flow.
func (c *Client) Register(ctx context.Context, reg models.Registration) (models.User, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fields := map[string]string{
		"full_name":     reg.FullName,
		"mobile_number": reg.MobileNumber,
		"email":         reg.Email,
		"role":          reg.Role,
		"guest_type":    reg.GuestType,
	}
	for name, value := range fields {
		if value == "" && (name == "email" || name == "guest_type") {
			continue
		}
		if err := w.WriteField(name, value); err != nil {
			return models.User{}, err
		}
	}
	if len(reg.FaceImage) > 0 {
		ext := reg.FaceImageExt
		if ext == "" {
			ext = ".jpg"
		}
		part, err := w.CreateFormFile("face_image", "face"+ext)
		if err != nil {
			return models.User{}, err
		}
		if _, err := part.Write(reg.FaceImage); err != nil {
			return models.User{}, err
		}
	}
	if err := w.Close(); err != nil {
		return models.User{}, err
	}

	env, err := c.s.DoMultipart(ctx, http.MethodPost, "/api/registration/register", w.FormDataContentType(), body)
	if err != nil {
		return models.User{}, err
	}
	if !env.Success {
		return models.User{}, &Error{Status: http.StatusOK, Message: env.Message}
	}
	var user models.User
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &user); err != nil {
			return models.User{}, fmt.Errorf("decoding registration payload: %w", err)
		}
	}
	return user, nil
}
