// Package gcs stores product media in a Google Cloud Storage bucket through
// the JSON API. Only the three object calls the catalog needs are covered.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/urbancart/urbancart-backend/pkg/config"
	"github.com/urbancart/urbancart-backend/pkg/logger"
)

const (
	apiBase        = "https://storage.googleapis.com"
	requestTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second
)

// ErrNotConfigured is returned by every call on a nil client.
var ErrNotConfigured = errors.New("gcs client not initialized")

type tokenProvider interface {
	Token(ctx context.Context) (string, error)
}

type Client struct {
	http       *http.Client
	tokens     tokenProvider
	bucket     string
	publicBase string
	api        string
}

// NewClient picks credentials in order: inline JSON, a credentials file, then
// the metadata server. The bucket is checked before returning.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}
	hc := &http.Client{Timeout: requestTimeout}

	creds := gcp.CredentialsJSON
	if creds == "" && gcp.ApplicationCredentials != "" {
		raw, err := os.ReadFile(gcp.ApplicationCredentials)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		creds = string(raw)
	}

	var tokens tokenProvider = metadataTokens(hc)
	if creds != "" {
		sa, err := serviceAccountTokens(hc, []byte(creds))
		if err != nil {
			return nil, err
		}
		tokens = sa
	}

	c := &Client{
		http:       hc,
		tokens:     tokens,
		bucket:     cfg.BucketName,
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
		api:        apiBase,
	}
	if err := c.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs bucket check: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs.ready")
	}
	return c, nil
}

// PublicURL is the browser facing address of object. Without a configured CDN
// base it points at storage.googleapis.com.
func (c *Client) PublicURL(object string) string {
	if c == nil {
		return ""
	}
	base := c.publicBase
	if base == "" {
		base = apiBase
	}
	return base + "/" + c.bucket + "/" + strings.TrimLeft(object, "/")
}

func (c *Client) Upload(ctx context.Context, object, contentType string, body io.Reader) error {
	if c == nil {
		return ErrNotConfigured
	}
	if strings.TrimSpace(object) == "" {
		return errors.New("object name is required")
	}
	q := url.Values{"uploadType": {"media"}, "name": {object}}
	u := fmt.Sprintf("%s/upload/storage/v1/b/%s/o?%s", c.api, url.PathEscape(c.bucket), q.Encode())

	if _, err := c.do(ctx, http.MethodPost, u, contentType, body); err != nil {
		return fmt.Errorf("gcs upload %s: %w", object, err)
	}
	return nil
}

// Delete treats an already missing object as success.
func (c *Client) Delete(ctx context.Context, object string) error {
	if c == nil {
		return ErrNotConfigured
	}
	if strings.TrimSpace(object) == "" {
		return nil
	}
	u := fmt.Sprintf("%s/storage/v1/b/%s/o/%s", c.api, url.PathEscape(c.bucket), url.PathEscape(object))

	status, err := c.do(ctx, http.MethodDelete, u, "", nil)
	if status == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("gcs delete %s: %w", object, err)
	}
	return nil
}

// Ping lists at most one object, which needs storage.objects.list.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/storage/v1/b/%s/o?maxResults=1", c.api, url.PathEscape(c.bucket))
	_, err := c.do(ctx, http.MethodGet, u, "", nil)
	return err
}

// do sends an authorized request. Any non-2xx status comes back as an error
// carrying the start of the response body, together with the status code.
func (c *Client) do(ctx context.Context, method, u, contentType string, body io.Reader) (int, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return 0, fmt.Errorf("token: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if msg := strings.TrimSpace(string(snippet)); msg != "" {
		return resp.StatusCode, fmt.Errorf("%s: %s", resp.Status, msg)
	}
	return resp.StatusCode, errors.New(resp.Status)
}
