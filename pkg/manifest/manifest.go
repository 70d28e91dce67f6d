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

// Package manifest builds and reads the table that maps product folders to
// their hosted image URLs.
package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/gvawood/feedmirror/pkg/tsv"
)

// Header is the fixed first row of a manifest file.
var Header = []string{"folder", "image_index", "filename", "url"}

var indexPrefix = regexp.MustCompile(`^(\d{2})`)

// 📄 Entry is one image file found under a product folder
type Entry struct {
	Folder   string
	Index    string // Parsed two-digit filename prefix without leading zeros, or empty
	Filename string
	URL      string
}

// Row returns the entry as a manifest table row.
func (e Entry) Row() []string {
	return []string{e.Folder, e.Index, e.Filename, e.URL}
}

// 🔧 Options configures Scan
type Options struct {
	Root         string   // Directory holding the product folders
	BaseURL      string   // Remote base prefixed to folder/filename
	FolderSuffix string   // Folders are named <4 digits>_<FolderSuffix>
	Ignore       []string // doublestar patterns matched against filenames
}

// FolderPattern matches product folder names for suffix.
func FolderPattern(suffix string) *regexp.Regexp {
	return regexp.MustCompile(`^\d{4}_` + regexp.QuoteMeta(suffix) + `$`)
}

// FolderKey names the product folder for the 1-based feed row position i.
func FolderKey(i int, suffix string) string {
	return fmt.Sprintf("%04d_%s", i, suffix)
}

// ParseIndex returns the informational index carried by a filename: the
// integer value of its leading two digits, or "" when there are none.
func ParseIndex(filename string) string {
	m := indexPrefix.FindStringSubmatch(filename)
	if m == nil {
		return ""
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return ""
	}
	return strconv.Itoa(n)
}

// 📂 Scan lists every product folder under opts.Root and returns one entry per
// regular file, ordered by folder name and then filename.
func Scan(ctx context.Context, opts Options) ([]Entry, error) {
	logger := zerolog.Ctx(ctx)

	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("invalid ignore pattern %q", pattern)
		}
	}

	dirs, err := os.ReadDir(opts.Root)
	if err != nil {
		return nil, errors.Errorf("reading root directory: %w", err)
	}

	match := FolderPattern(opts.FolderSuffix)
	var folders []string
	for _, d := range dirs {
		if d.IsDir() && match.MatchString(d.Name()) {
			folders = append(folders, d.Name())
		}
	}
	sort.Strings(folders)

	base := strings.TrimRight(opts.BaseURL, "/")

	var entries []Entry
	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("scanning folders: %w", err)
		}

		files, err := listFiles(filepath.Join(opts.Root, folder), opts.Ignore)
		if err != nil {
			return nil, errors.Errorf("listing folder %s: %w", folder, err)
		}

		logger.Debug().Str("folder", folder).Int("files", len(files)).Msg("scanned folder")

		for _, name := range files {
			entries = append(entries, Entry{
				Folder:   folder,
				Index:    ParseIndex(name),
				Filename: name,
				URL:      base + "/" + folder + "/" + name,
			})
		}
	}

	return entries, nil
}

// listFiles returns the sorted names of regular files in dir, minus ignored ones
func listFiles(dir string, ignore []string) ([]string, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, item := range items {
		if !item.Type().IsRegular() {
			continue
		}
		if ignored(item.Name(), ignore) {
			continue
		}
		names = append(names, item.Name())
	}
	sort.Strings(names)
	return names, nil
}

func ignored(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// ✍️ Write replaces the manifest at path with the header and entries.
func Write(path string, entries []Entry) error {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, Header)
	for _, e := range entries {
		rows = append(rows, e.Row())
	}

	if err := tsv.WriteFile(path, rows); err != nil {
		return errors.Errorf("writing manifest: %w", err)
	}
	return nil
}
