package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"filestream/internal/ports"
)

// AuthHeader carries the shared cluster token on peer requests.
const AuthHeader = "X-FileStream-Token"

// Client implements ports.Replica against a peer FileStream node: ranged
// reads are proxied to the peer's /internal/objects endpoint. It lets a
// secondary node serve traffic without holding the files itself. Writes
// and deletes are not forwarded; those happen on the node that owns the
// store.
type Client struct {
	base  string
	token string
	hc    *http.Client
}

func New(baseURL, token string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = nil
	return &Client{base: baseURL, token: token, hc: rc.StandardClient()}
}

func (c *Client) Provider() string { return "remote" }

func (c *Client) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	return ports.PutObjectOutput{}, fmt.Errorf("remote replica %s is read-only", c.base)
}

func (c *Client) OpenRange(ctx context.Context, objectKey string, offset, length int64) (io.ReadCloser, error) {
	u := fmt.Sprintf("%s/internal/objects/%s", c.base, url.PathEscape(objectKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(AuthHeader, c.token)
	if offset > 0 || length >= 0 {
		if length < 0 {
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
		} else {
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, fmt.Errorf("peer returned %s for %s", resp.Status, objectKey)
	}
	return resp.Body, nil
}

func (c *Client) DeleteObject(ctx context.Context, objectKey string) error {
	return fmt.Errorf("remote replica %s is read-only", c.base)
}
