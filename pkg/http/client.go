/*
Copyright © 2025 SUSE LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/


package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cavaliergopher/grab/v3"
	"github.com/docker/go-units"

	"github.com/rancher/elemental-pkg/internal/version"
	"github.com/rancher/elemental-pkg/pkg/constants"
	v1 "github.com/rancher/elemental-pkg/pkg/types/v1"
)

const defaultProgressInterval = 2 * time.Second

// Client downloads catalog archives over http and https
type Client struct {
	grab     *grab.Client
	interval time.Duration
}

type ClientOption func(*Client)

// WithTimeout bounds every download, including reading the response body
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.grab.HTTPClient = &http.Client{Timeout: timeout}
	}
}

// WithProgressInterval sets how often the transfer progress is logged
func WithProgressInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

func NewClient(opts ...ClientOption) *Client {
	g := grab.NewClient()
	g.UserAgent = fmt.Sprintf("elemental-pkg/%s", version.GetVersion())
	g.HTTPClient = &http.Client{Timeout: time.Second * constants.HTTPTimeout}
	c := &Client{grab: g, interval: defaultProgressInterval}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GetURL downloads url into destination, which is either a directory or a file
// path. Partial files are always downloaded again from the start. Cancelling ctx
// aborts the transfer.
func (c *Client) GetURL(ctx context.Context, log v1.Logger, url string, destination string) error {
	req, err := grab.NewRequest(destination, url)
	if err != nil {
		return fmt.Errorf("invalid download request for '%s': %w", url, err)
	}
	req = req.WithContext(ctx)
	req.NoResume = true

	log.Debugf("Downloading %s", url)
	resp := c.grab.Do(req)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for done := false; !done; {
		select {
		case <-ticker.C:
			logProgress(log, resp)
		case <-resp.Done:
			done = true
		}
	}

	if err := resp.Err(); err != nil {
		return fmt.Errorf("failed downloading %s: %w", url, err)
	}
	log.Debugf("Downloaded %s into %s (%s)", url, resp.Filename, units.HumanSize(float64(resp.BytesComplete())))
	return nil
}

func logProgress(log v1.Logger, resp *grab.Response) {
	done := units.HumanSize(float64(resp.BytesComplete()))
	if resp.Size() <= 0 {
		log.Debugf("  %s transferred", done)
		return
	}
	log.Debugf("  %s of %s transferred (%.0f%%)", done, units.HumanSize(float64(resp.Size())), 100*resp.Progress())
}
