package planyo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const pingTimeout = 10 * time.Second

// Ping checks the booking page answers. It does not start a browser.
func (d *Driver) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cfg.BaseURL, nil)
	if err != nil {
		return fmt.Errorf("could not build request: %w", err)
	}
	resp, err := d.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("planyo unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("planyo ping failed (status=%d)", resp.StatusCode)
	}
	return nil
}

func (d *Driver) httpClient() *http.Client {
	if d.cfg.HTTPClient != nil {
		return d.cfg.HTTPClient
	}
	return http.DefaultClient
}
