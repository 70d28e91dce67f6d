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
	"fmt"
	"regexp"
	"strings"
)

// DefaultExt is used when a URL carries no recognizable extension.
const DefaultExt = ".jpg"

var (
	unsafeChars = regexp.MustCompile(`[^a-z0-9\- _]+`)
	hyphenRuns  = regexp.MustCompile(`-{2,}`)
	urlExt      = regexp.MustCompile(`\.([a-zA-Z0-9]{3,4})(?:$|\?)`)
)

// 🏷️ Slugify turns text into a lowercase, hyphenated name of at most maxLen
// bytes. It returns "item" when nothing usable remains.
func Slugify(text string, maxLen int) string {
	s := strings.ToLower(strings.Join(strings.Fields(text), " "))
	s = unsafeChars.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxLen {
		s = strings.TrimRight(s[:maxLen], "-")
	}
	if s == "" {
		return "item"
	}
	return s
}

// ExtFromURL returns the lowercased extension of the first 3-4 character
// alphanumeric suffix ending the URL or preceding its query string.
func ExtFromURL(url string) string {
	m := urlExt.FindStringSubmatch(url)
	if m == nil {
		return DefaultExt
	}
	return "." + strings.ToLower(m[1])
}

// SplitURLs splits a comma-separated image field, trimming each piece and
// dropping empty ones.
func SplitURLs(field string) []string {
	var urls []string
	for _, piece := range strings.Split(field, ",") {
		if u := strings.TrimSpace(piece); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// FolderName is the per-row destination folder, item_<row>_<slug>. An empty
// title is replaced with item_<row> before slugging.
func FolderName(row int, title string, maxLen int) string {
	if title == "" {
		title = fmt.Sprintf("item_%04d", row)
	}
	return fmt.Sprintf("item_%04d_%s", row, Slugify(title, maxLen))
}

// ImageName is the destination filename for the n-th (1-based) image.
func ImageName(n int, url string) string {
	return fmt.Sprintf("%02d%s", n, ExtFromURL(url))
}
