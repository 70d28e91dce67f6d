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

package config

import (
	"path/filepath"
	"strings"
	"time"

	"gitlab.com/tozd/go/errors"
)

// 📁 ManifestConfig configures the manifest builder
type ManifestConfig struct {
	Root         string   `json:"root" yaml:"root"`                   // Directory holding the product folders
	Output       string   `json:"output" yaml:"output"`               // Manifest file, relative to Root unless absolute
	BaseURL      string   `json:"base_url" yaml:"base_url"`           // Remote base prefixed to folder/filename
	FolderSuffix string   `json:"folder_suffix" yaml:"folder_suffix"` // Folder names look like 0001_<suffix>
	Ignore       []string `json:"ignore" yaml:"ignore"`               // Glob patterns of filenames to skip
}

// 📄 FeedConfig configures the feed rewriter
type FeedConfig struct {
	Manifest    string `json:"manifest" yaml:"manifest"`         // Manifest file to read
	Input       string `json:"input" yaml:"input"`               // Source feed
	Output      string `json:"output" yaml:"output"`             // Rewritten feed
	ImageColumn int    `json:"image_column" yaml:"image_column"` // 0-based column receiving the URLs
}

// 🪞 MirrorConfig configures the mirror-and-rewrite pass
type MirrorConfig struct {
	Root           string  `json:"root" yaml:"root"`                       // Local directory for downloaded images
	RepoBase       string  `json:"repo_base" yaml:"repo_base"`             // Public base for rewritten URLs
	UserAgent      string  `json:"user_agent" yaml:"user_agent"`           // User-Agent sent with every fetch
	Attempts       int     `json:"attempts" yaml:"attempts"`               // Fetch attempts per URL
	TimeoutSeconds float64 `json:"timeout_seconds" yaml:"timeout_seconds"` // Per-attempt timeout
	BackoffSeconds float64 `json:"backoff_seconds" yaml:"backoff_seconds"` // Multiplied by the attempt number
	SlugMaxLen     int     `json:"slug_max_len" yaml:"slug_max_len"`       // Cap on slug length
}

// 📚 Config represents the complete configuration
type Config struct {
	Manifest ManifestConfig `json:"manifest" yaml:"manifest"`
	Feed     FeedConfig     `json:"feed" yaml:"feed"`
	Mirror   MirrorConfig   `json:"mirror" yaml:"mirror"`

	location string
}

// 🏭 Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Manifest: ManifestConfig{
			Root:         ".",
			Output:       filepath.Join("data", "_images_manifest.tsv"),
			BaseURL:      "https://raw.githubusercontent.com/GVAwood/product-images/main",
			FolderSuffix: "YESWOOD_Furniture_Store",
		},
		Feed: FeedConfig{
			Manifest:    filepath.Join("data", "_images_manifest.tsv"),
			Input:       filepath.Join("data", "ecrater_bulk_FROM_GIGA_clean.txt"),
			Output:      filepath.Join("data", "ecrater_bulk_GITHUB_ready.txt"),
			ImageColumn: 4,
		},
		Mirror: MirrorConfig{
			Root:           "giga_mirror",
			UserAgent:      "Mozilla/5.0",
			Attempts:       3,
			TimeoutSeconds: 30,
			BackoffSeconds: 1.5,
			SlugMaxLen:     50,
		},
	}
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Manifest.FolderSuffix) == "" {
		return errors.Errorf("manifest.folder_suffix is required")
	}
	if cfg.Feed.ImageColumn < 0 {
		return errors.Errorf("feed.image_column must not be negative")
	}
	if cfg.Mirror.Attempts < 1 {
		return errors.Errorf("mirror.attempts must be at least 1")
	}
	if cfg.Mirror.TimeoutSeconds < 0 {
		return errors.Errorf("mirror.timeout_seconds must not be negative")
	}
	if cfg.Mirror.BackoffSeconds < 0 {
		return errors.Errorf("mirror.backoff_seconds must not be negative")
	}
	if cfg.Mirror.SlugMaxLen < 1 {
		return errors.Errorf("mirror.slug_max_len must be at least 1")
	}
	return nil
}

// Location returns the file the configuration was loaded from, if any.
func (cfg *Config) Location() string {
	return cfg.location
}

// ManifestOutput resolves the manifest output path against the manifest root.
func (m ManifestConfig) ManifestOutput() string {
	if filepath.IsAbs(m.Output) {
		return m.Output
	}
	return filepath.Join(m.Root, m.Output)
}

// Timeout is the per-attempt fetch timeout.
func (m MirrorConfig) Timeout() time.Duration {
	return seconds(m.TimeoutSeconds)
}

// Backoff is the base retry delay.
func (m MirrorConfig) Backoff() time.Duration {
	return seconds(m.BackoffSeconds)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
