// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package fetch downloads remote files with a bounded retry loop.
package fetch

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ⏱️ SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// 🔧 Options configures a Downloader
type Options struct {
	Attempts  int           // Attempts per URL, at least 1
	Timeout   time.Duration // Per-attempt timeout, 0 for none
	Backoff   time.Duration // Wait after attempt k is Backoff * k
	UserAgent string        // User-Agent header, omitted when empty
	Client    *http.Client  // Defaults to http.DefaultClient
	Sleep     SleepFunc     // Defaults to a context-aware timer
}

// 📥 Downloader fetches URLs sequentially, retrying failed attempts
type Downloader struct {
	attempts  int
	timeout   time.Duration
	backoff   time.Duration
	userAgent string
	client    *http.Client
	sleep     SleepFunc
}

// 🏭 New creates a downloader from opts
func New(opts Options) *Downloader {
	d := &Downloader{
		attempts:  opts.Attempts,
		timeout:   opts.Timeout,
		backoff:   opts.Backoff,
		userAgent: opts.UserAgent,
		client:    opts.Client,
		sleep:     opts.Sleep,
	}
	if d.attempts < 1 {
		d.attempts = 1
	}
	if d.client == nil {
		d.client = http.DefaultClient
	}
	if d.sleep == nil {
		d.sleep = Sleep
	}
	return d
}

// Backoff returns the wait after failed attempt number attempt (1-based).
func Backoff(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(attempt)
}

// Sleep blocks for d unless ctx is cancelled first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// 🔁 Fetch returns the body of url, retrying up to the configured number of
// attempts. The returned error wraps the last attempt's error.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	var last error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		body, err := d.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		last = err

		logger.Debug().Err(err).Str("url", url).Int("attempt", attempt).Msg("fetch attempt failed")

		if attempt == d.attempts {
			break
		}
		if err := d.sleep(ctx, Backoff(d.backoff, attempt)); err != nil {
			return nil, errors.Errorf("waiting to retry %s: %w", url, err)
		}
	}

	return nil, errors.Errorf("fetching %s after %d attempts: %w", url, d.attempts, last)
}

// 🔍 fetchOnce performs a single GET bounded by the per-attempt timeout
func (d *Downloader) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Errorf("creating request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, errors.Errorf("downloading file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Errorf("reading response body: %w", err)
	}
	return body, nil
}

// 💾 DownloadFile fetches url and stores it at dest. The body is written to a
// temporary file in the same directory and renamed into place, so a failed
// fetch never leaves a file at dest.
func (d *Downloader) DownloadFile(ctx context.Context, url, dest string) error {
	body, err := d.Fetch(ctx, url)
	if err != nil {
		return err
	}

	return WriteFileAtomic(dest, body)
}

// 💾 WriteFileAtomic writes content to a temp file beside path and renames it.
func WriteFileAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return errors.Errorf("setting temp file mode: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath) // Clean up temp file
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}
