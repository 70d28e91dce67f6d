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

package manifest

import (
	"gitlab.com/tozd/go/errors"

	"github.com/gvawood/feedmirror/pkg/tsv"
)

// 🗺️ Index maps folder names to their URLs in manifest order. It is built
// once and never modified.
type Index struct {
	urls map[string][]string
}

// NewIndex groups entries by folder, keeping the first-seen URL order.
func NewIndex(entries []Entry) *Index {
	idx := &Index{urls: make(map[string][]string)}
	for _, e := range entries {
		idx.urls[e.Folder] = append(idx.urls[e.Folder], e.URL)
	}
	return idx
}

// Lookup returns a copy of the URLs for folder, or nil if it has none.
func (idx *Index) Lookup(folder string) []string {
	urls := idx.urls[folder]
	if len(urls) == 0 {
		return nil
	}
	out := make([]string, len(urls))
	copy(out, urls)
	return out
}

// Len is the number of folders in the index.
func (idx *Index) Len() int {
	return len(idx.urls)
}

// 📖 Load reads a manifest file by column name and builds its Index.
func Load(path string) (*Index, error) {
	rows, err := tsv.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading manifest: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.Errorf("manifest %s: %w", path, tsv.ErrEmpty)
	}

	cols, err := tsv.Columns(rows[0], "folder", "url")
	if err != nil {
		return nil, errors.Errorf("manifest %s: %w", path, err)
	}
	folderCol, urlCol := cols[0], cols[1]
	width := max(folderCol, urlCol) + 1

	entries := make([]Entry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		row = tsv.Pad(row, width)
		entries = append(entries, Entry{Folder: row[folderCol], URL: row[urlCol]})
	}

	return NewIndex(entries), nil
}
