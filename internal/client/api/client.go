// Package api is a thin HTTP client for the deepcheck REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotLoggedIn  = errors.New("not logged in")
)

// Error is a non-2xx response carrying the server's detail message.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (%d)", e.Detail, e.Status)
}

type Result struct {
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
	IsDeepfake bool    `json:"is_deepfake"`
}

type Record struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	StorageURL       string    `json:"storage_url"`
	Result           Result    `json:"result"`
	CreatedAt        time.Time `json:"created_at"`
}

type Status struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) LoggedIn() bool { return c.token != "" }

func (c *Client) Logout() { c.token = "" }

func (c *Client) Status(ctx context.Context) (*Status, error) {
	var s Status
	if err := c.do(ctx, http.MethodGet, "/", nil, "", false, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Register creates an account. The password slice is not retained.
func (c *Client) Register(ctx context.Context, email string, password []byte) error {
	body, err := json.Marshal(map[string]string{"email": email, "password": string(password)})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/register", bytes.NewReader(body), "application/json", false, nil)
}

// Login exchanges credentials for a bearer token kept on the client.
func (c *Client) Login(ctx context.Context, email string, password []byte) error {
	form := url.Values{"username": {email}, "password": {string(password)}}
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/token", strings.NewReader(form.Encode()),
		"application/x-www-form-urlencoded", false, &tok); err != nil {
		return err
	}
	if tok.AccessToken == "" {
		return errors.New("empty access token in response")
	}
	c.token = tok.AccessToken
	return nil
}

// Analyze uploads one image as multipart field "file".
func (c *Client) Analyze(ctx context.Context, filename, contentType string, data []byte) (*Result, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var r Result
	if err := c.do(ctx, http.MethodPost, "/analyze-image", &buf, mw.FormDataContentType(), true, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// History returns up to limit records, newest first. limit <= 0 uses the
// server default.
func (c *Client) History(ctx context.Context, limit int) ([]Record, error) {
	path := "/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var recs []Record
	if err := c.do(ctx, http.MethodGet, path, nil, "", true, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, auth bool, out any) error {
	if auth && c.token == "" {
		return ErrNotLoggedIn
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		apiErr := &Error{Status: resp.StatusCode, Detail: e.Detail}
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
