package transport

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"time"

	"git.sr.ht/~jakintosh/portal/internal/domain"
)

// maxDocumentSize bounds a fetched document.
const maxDocumentSize = 16 << 20

// HTTPTransport fetches <BaseURL>/<name>.json, the static-file layout the
// portal documents are published under.
type HTTPTransport struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (h *HTTPTransport) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	u, err := url.JoinPath(h.BaseURL, url.PathEscape(name)+".json")
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base url %q: %w", domain.ErrTransport, h.BaseURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", domain.ErrTransport, u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: portal %s has no document at %s: %w", domain.ErrTransport, name, u, fs.ErrNotExist)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: unexpected status %s", domain.ErrTransport, u, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", domain.ErrTransport, u, err)
	}
	return data, nil
}
