package cover

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/desertthunder/discog/internal/shared"
)

const (
	// MaxDownloadSize caps the bytes read from an image response.
	MaxDownloadSize = 10 * 1024 * 1024

	DefaultTimeout = 30 * time.Second
)

// Downloader fetches images over plain HTTP, without API credentials.
type Downloader struct {
	httpClient *http.Client
	timeout    time.Duration
}

// NewDownloader creates a [Downloader] whose requests give up after timeout.
func NewDownloader(timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
	}

	return &Downloader{
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
	}
}

// Download returns the body of imageURL. Non-200 responses and empty bodies are errors.
func (d *Downloader) Download(ctx context.Context, imageURL string) ([]byte, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("%w: empty image URL", shared.ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrImageDownload, err)
	}
	req.Header.Set("Accept", "image/webp,image/jpeg,image/png,image/*;q=0.8")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrImageDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP status %d", shared.ErrImageDownload, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrImageDownload, err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty response", shared.ErrImageDownload)
	}

	return data, nil
}
