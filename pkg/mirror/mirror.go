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
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/gvawood/feedmirror/pkg/log"
	"github.com/gvawood/feedmirror/pkg/tsv"
)

const (
	TitleColumn = "title"
	ImageColumn = "image_url"

	// DefaultSlugMaxLen caps slugs when Options.SlugMaxLen is unset.
	DefaultSlugMaxLen = 50
)

// 📥 Downloader stores the body of url at dest
type Downloader interface {
	DownloadFile(ctx context.Context, url, dest string) error
}

// 🔧 Options configures a Mirror
type Options struct {
	RepoBase   string     // Public base for rewritten URLs
	Root       string     // Local directory for downloaded images
	DryRun     bool       // Compute URLs without network or filesystem access
	SlugMaxLen int        // Defaults to DefaultSlugMaxLen
	Downloader Downloader // Required unless DryRun
}

// 📊 Stats counts what a run did
type Stats struct {
	Rows       int
	Downloaded int
	Skipped    int
	Planned    int
	Failed     int
}

// Summary converts the counters for display.
func (s Stats) Summary() log.Summary {
	return log.Summary{
		Rows:       s.Rows,
		Downloaded: s.Downloaded,
		Skipped:    s.Skipped,
		Planned:    s.Planned,
		Failed:     s.Failed,
	}
}

// 🪞 Mirror downloads feed images and rewrites their URLs
type Mirror struct {
	repoBase   string
	root       string
	dryRun     bool
	slugMaxLen int
	downloader Downloader
}

// 🏭 New validates opts and creates a Mirror
func New(opts Options) (*Mirror, error) {
	if opts.RepoBase == "" {
		return nil, errors.Errorf("repo base is required")
	}
	if !opts.DryRun && opts.Downloader == nil {
		return nil, errors.Errorf("downloader is required unless dry run")
	}
	if !opts.DryRun && opts.Root == "" {
		return nil, errors.Errorf("root is required unless dry run")
	}

	m := &Mirror{
		repoBase:   strings.TrimRight(opts.RepoBase, "/"),
		root:       opts.Root,
		dryRun:     opts.DryRun,
		slugMaxLen: opts.SlugMaxLen,
		downloader: opts.Downloader,
	}
	if m.slugMaxLen <= 0 {
		m.slugMaxLen = DefaultSlugMaxLen
	}
	return m, nil
}

// 🔄 Rewrite processes every data row and returns the header followed by the
// rewritten rows. Each data row is padded or truncated to the header width.
// Per-URL download failures are logged and dropped; they never fail the run.
func (m *Mirror) Rewrite(ctx context.Context, rows [][]string) ([][]string, Stats, error) {
	var stats Stats

	if len(rows) == 0 {
		return nil, stats, errors.Errorf("feed: %w", tsv.ErrEmpty)
	}

	header := rows[0]
	cols, err := tsv.Columns(header, TitleColumn, ImageColumn)
	if err != nil {
		return nil, stats, errors.Errorf("header must contain '%s' and '%s': %w", TitleColumn, ImageColumn, err)
	}
	titleCol, imageCol := cols[0], cols[1]

	out := make([][]string, 0, len(rows))
	out = append(out, header)

	for i, row := range rows[1:] {
		// the header is row 1
		position := i + 2

		normalized := tsv.Normalize(append([]string(nil), row...), len(header))

		urls, err := m.processRow(ctx, position, normalized[titleCol], normalized[imageCol], &stats)
		if err != nil {
			return nil, stats, errors.Errorf("row %d: %w", position, err)
		}

		normalized[imageCol] = strings.Join(urls, ", ")
		out = append(out, normalized)
		stats.Rows++
	}

	return out, stats, nil
}

// processRow mirrors one row's images and returns their public URLs
func (m *Mirror) processRow(ctx context.Context, row int, title, field string, stats *Stats) ([]string, error) {
	logger := log.FromContext(ctx)

	folder := FolderName(row, title, m.slugMaxLen)
	sources := SplitURLs(field)

	logger.StartRow(ctx, log.RowOperation{Row: row, Title: title, Folder: folder, Images: len(sources)})

	if !m.dryRun {
		if err := os.MkdirAll(filepath.Join(m.root, folder), 0755); err != nil {
			return nil, errors.Errorf("creating folder %s: %w", folder, err)
		}
	}

	urls := make([]string, 0, len(sources))
	for n, source := range sources {
		name := ImageName(n+1, source)
		rel := folder + "/" + name
		op := log.ImageOperation{Row: row, Source: source, Dest: rel}

		if m.dryRun {
			op.Status = log.ImagePlanned
			stats.Planned++
		} else {
			status, err := m.mirrorImage(ctx, source, filepath.Join(m.root, folder, name))
			if err != nil {
				if ctx.Err() != nil {
					return nil, errors.Errorf("mirroring %s: %w", source, ctx.Err())
				}
				op.Status = log.ImageFailed
				logger.LogImage(ctx, op)
				logger.Warningf("row %d: failed to download %s: %v", row, source, err)
				stats.Failed++
				continue
			}
			op.Status = status
			if status == log.ImageSkipped {
				stats.Skipped++
			} else {
				stats.Downloaded++
			}
		}

		logger.LogImage(ctx, op)
		urls = append(urls, m.repoBase+"/"+rel)
	}

	return urls, nil
}

// mirrorImage downloads source to dest unless dest already exists
func (m *Mirror) mirrorImage(ctx context.Context, source, dest string) (log.ImageStatus, error) {
	if _, err := os.Stat(dest); err == nil {
		zerolog.Ctx(ctx).Debug().Str("dest", dest).Msg("destination exists, skipping download")
		return log.ImageSkipped, nil
	}

	if err := m.downloader.DownloadFile(ctx, source, dest); err != nil {
		return log.ImageFailed, err
	}
	return log.ImageDownloaded, nil
}

// 📄 RewriteFile reads input, mirrors its images, and writes the rewritten
// feed to output.
func (m *Mirror) RewriteFile(ctx context.Context, input, output string) (Stats, error) {
	rows, err := tsv.ReadFile(input)
	if err != nil {
		return Stats{}, errors.Errorf("reading feed: %w", err)
	}

	out, stats, err := m.Rewrite(ctx, rows)
	if err != nil {
		return stats, err
	}

	if err := tsv.WriteFile(output, out); err != nil {
		return stats, errors.Errorf("writing feed: %w", err)
	}
	return stats, nil
}
