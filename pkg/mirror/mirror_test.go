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

package mirror

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/gvawood/feedmirror/pkg/fetch"
	"github.com/gvawood/feedmirror/pkg/log"
	"github.com/gvawood/feedmirror/pkg/tsv"
)

const repoBase = "https://raw.githubusercontent.com/GVAwood/product-images/main/giga_mirror"

// imageServer serves image bytes, failing every request under /bad/
func imageServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if filepath.Dir(r.URL.Path) == "/bad" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("bytes of " + r.URL.Path))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func newDownloader(server *httptest.Server) *fetch.Downloader {
	return fetch.New(fetch.Options{
		Attempts:  3,
		Timeout:   5 * time.Second,
		Backoff:   1500 * time.Millisecond,
		UserAgent: "Mozilla/5.0",
		Client:    server.Client(),
		Sleep:     func(ctx context.Context, d time.Duration) error { return ctx.Err() },
	})
}

func TestRewriteDryRun(t *testing.T) {
	root := filepath.Join(t.TempDir(), "giga_mirror")
	m, err := New(Options{RepoBase: repoBase + "/", Root: root, DryRun: true})
	require.NoError(t, err)

	rows := [][]string{
		{"sku", "title", "image_url"},
		{"1", "  Modern  Oak Table!!  ", "https://giga.example/a.PNG?size=large, https://giga.example/b"},
		{"2", "", "https://giga.example/c.webp", "extra"},
		{"3"},
	}

	out, stats, err := m.Rewrite(context.Background(), rows)
	require.NoError(t, err, "dry run should succeed")

	want := [][]string{
		{"sku", "title", "image_url"},
		{"1", "  Modern  Oak Table!!  ", repoBase + "/item_0002_modern-oak-table/01.png, " + repoBase + "/item_0002_modern-oak-table/02.jpg"},
		{"2", "", repoBase + "/item_0003_item_0003/01.webp"},
		{"3", "", ""},
	}
	assert.Equal(t, want, out, "rows should match")
	assert.Equal(t, Stats{Rows: 3, Planned: 3}, stats, "stats should match")
	assert.NoDirExists(t, root, "dry run should not touch the filesystem")
}

func TestRewriteHeaderErrors(t *testing.T) {
	m, err := New(Options{RepoBase: repoBase, DryRun: true})
	require.NoError(t, err)

	_, _, err = m.Rewrite(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tsv.ErrEmpty), "empty input should be ErrEmpty")

	_, _, err = m.Rewrite(context.Background(), [][]string{{"name", "image_url"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, tsv.ErrMissingColumn), "missing title should be ErrMissingColumn")
	assert.Contains(t, err.Error(), "header must contain 'title' and 'image_url'")
}

func TestNewValidation(t *testing.T) {
	_, err := New(Options{DryRun: true})
	assert.Error(t, err, "repo base is required")

	_, err = New(Options{RepoBase: repoBase, Root: "x"})
	assert.Error(t, err, "live mode needs a downloader")
}

func TestRewriteFileIdempotent(t *testing.T) {
	server, hits := imageServer(t)
	dir := t.TempDir()
	root := filepath.Join(dir, "giga_mirror")
	input := filepath.Join(dir, "in.txt")

	require.NoError(t, tsv.WriteFile(input, [][]string{
		{"title", "image_url"},
		{"Oak Table", server.URL + "/img/1.jpg, " + server.URL + "/img/2.png"},
		{"Pine Chair", server.URL + "/img/3"},
	}))

	m, err := New(Options{RepoBase: repoBase, Root: root, Downloader: newDownloader(server)})
	require.NoError(t, err)

	first := filepath.Join(dir, "out1.txt")
	stats, err := m.RewriteFile(context.Background(), input, first)
	require.NoError(t, err, "first run should succeed")
	assert.Equal(t, Stats{Rows: 2, Downloaded: 3}, stats)
	assert.Equal(t, int32(3), hits.Load(), "first run should fetch every image")

	data, err := os.ReadFile(filepath.Join(root, "item_0002_oak-table", "02.png"))
	require.NoError(t, err)
	assert.Equal(t, "bytes of /img/2.png", string(data), "image content should match")
	assert.FileExists(t, filepath.Join(root, "item_0003_pine-chair", "01.jpg"))

	second := filepath.Join(dir, "out2.txt")
	stats, err = m.RewriteFile(context.Background(), input, second)
	require.NoError(t, err, "second run should succeed")
	assert.Equal(t, Stats{Rows: 2, Skipped: 3}, stats)
	assert.Equal(t, int32(3), hits.Load(), "second run should not fetch anything")

	firstOut, err := os.ReadFile(first)
	require.NoError(t, err)
	secondOut, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstOut), string(secondOut), "both runs should produce the same feed")

	rows, err := tsv.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, repoBase+"/item_0002_oak-table/01.jpg, "+repoBase+"/item_0002_oak-table/02.png", rows[1][1])
	assert.Equal(t, repoBase+"/item_0003_pine-chair/01.jpg", rows[2][1])
}

func TestRewriteRetryThenWarn(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	server, hits := imageServer(t)
	root := filepath.Join(t.TempDir(), "giga_mirror")

	console := &bytes.Buffer{}
	ctx := log.NewContext(context.Background(), log.New(console, zerolog.Nop()))

	m, err := New(Options{RepoBase: repoBase, Root: root, Downloader: newDownloader(server)})
	require.NoError(t, err)

	rows := [][]string{
		{"title", "image_url"},
		{"Oak Table", server.URL + "/bad/1.jpg, " + server.URL + "/img/2.jpg"},
		{"Pine Chair", server.URL + "/img/3.jpg"},
	}

	out, stats, err := m.Rewrite(ctx, rows)
	require.NoError(t, err, "a failed image should not fail the run")

	assert.Equal(t, Stats{Rows: 2, Downloaded: 2, Failed: 1}, stats)
	assert.Equal(t, int32(5), hits.Load(), "three attempts for the bad URL plus two good fetches")
	assert.Equal(t, repoBase+"/item_0002_oak-table/02.jpg", out[1][1], "failed URL should be dropped")
	assert.Equal(t, repoBase+"/item_0003_pine-chair/01.jpg", out[2][1], "next row should still be processed")

	assert.Contains(t, console.String(), "row 2: failed to download "+server.URL+"/bad/1.jpg")
	assert.Contains(t, console.String(), "unexpected status code: 502", "warning should carry the last error")
	assert.NoFileExists(t, filepath.Join(root, "item_0002_oak-table", "01.jpg"))
}

func TestRewriteStopsOnCancel(t *testing.T) {
	server, _ := imageServer(t)
	root := filepath.Join(t.TempDir(), "giga_mirror")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, err := New(Options{RepoBase: repoBase, Root: root, Downloader: newDownloader(server)})
	require.NoError(t, err)

	_, _, err = m.Rewrite(ctx, [][]string{{"title", "image_url"}, {"Oak", server.URL + "/img/1.jpg"}})
	require.Error(t, err, "cancellation should abort the run")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRewriteFileKeepsItemNumbering(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "feed.txt")
	output := filepath.Join(dir, "out.txt")

	feed := "title\timage_url\tsku\n" +
		"\"Aria\" Sofa\thttps://giga.example/1.jpg\t7\n" +
		"\n" +
		"Pine\thttps://giga.example/2.jpg\t8\n"
	require.NoError(t, os.WriteFile(input, []byte(feed), 0644))

	m, err := New(Options{RepoBase: repoBase, DryRun: true})
	require.NoError(t, err)

	stats, err := m.RewriteFile(context.Background(), input, output)
	require.NoError(t, err, "dry run should succeed")
	assert.Equal(t, Stats{Rows: 3, Planned: 2}, stats, "stats should match")

	rows, err := tsv.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"title", "image_url", "sku"},
		{"Aria Sofa", repoBase + "/item_0002_aria-sofa/01.jpg", "7"},
		{"", "", ""},
		{"Pine", repoBase + "/item_0004_pine/01.jpg", "8"},
	}, rows, "blank lines should keep their row number")
}
