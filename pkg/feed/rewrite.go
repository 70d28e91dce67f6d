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

// Package feed rewrites the image column of a product feed from a manifest.
package feed

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/gvawood/feedmirror/pkg/manifest"
	"github.com/gvawood/feedmirror/pkg/tsv"
)

// HeaderMarker identifies the first row as a header when present in it.
const HeaderMarker = "image_url"

// 🔧 Options configures Rewrite
type Options struct {
	ImageColumn  int    // 0-based column receiving the joined URLs
	FolderSuffix string // Suffix used to synthesize folder keys
}

// 📊 Result is the rewritten feed
type Result struct {
	Rows      [][]string
	HasHeader bool
	Items     int // Data rows written
	Missing   int // Data rows whose folder had no manifest entries
}

// 🔄 Rewrite sets the image column of every data row to the URLs of the
// folder synthesized from the row's 1-based data position.
//
// Rows are padded so the image column exists. When a header is present, data
// rows are also padded or truncated to the header width.
func Rewrite(ctx context.Context, index *manifest.Index, rows [][]string, opts Options) (*Result, error) {
	if len(rows) == 0 {
		return nil, errors.Errorf("feed: %w", tsv.ErrEmpty)
	}
	if opts.ImageColumn < 0 {
		return nil, errors.Errorf("image column must not be negative: %d", opts.ImageColumn)
	}

	logger := zerolog.Ctx(ctx)
	result := &Result{Rows: make([][]string, 0, len(rows))}

	data := rows
	width := 0
	if tsv.Contains(rows[0], HeaderMarker) {
		result.HasHeader = true
		result.Rows = append(result.Rows, rows[0])
		width = len(rows[0])
		data = rows[1:]
	}

	minWidth := opts.ImageColumn + 1
	for i, row := range data {
		key := manifest.FolderKey(i+1, opts.FolderSuffix)
		urls := index.Lookup(key)
		if len(urls) == 0 {
			result.Missing++
			logger.Debug().Str("folder", key).Msg("no manifest entries for folder")
		}

		out := make([]string, len(row))
		copy(out, row)
		if width > 0 {
			out = tsv.Normalize(out, max(width, minWidth))
		} else {
			out = tsv.Pad(out, minWidth)
		}
		out[opts.ImageColumn] = strings.Join(urls, ", ")

		result.Rows = append(result.Rows, out)
		result.Items++
	}

	return result, nil
}

// 📄 RewriteFile loads the manifest and source feed, rewrites, and writes the
// result to outputPath.
func RewriteFile(ctx context.Context, manifestPath, inputPath, outputPath string, opts Options) (*Result, error) {
	index, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, errors.Errorf("loading manifest: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("path", manifestPath).Int("folders", index.Len()).Msg("loaded manifest")

	rows, err := tsv.ReadFile(inputPath)
	if err != nil {
		return nil, errors.Errorf("reading feed: %w", err)
	}

	result, err := Rewrite(ctx, index, rows, opts)
	if err != nil {
		return nil, errors.Errorf("rewriting %s: %w", inputPath, err)
	}

	if err := tsv.WriteFile(outputPath, result.Rows); err != nil {
		return nil, errors.Errorf("writing feed: %w", err)
	}

	return result, nil
}
