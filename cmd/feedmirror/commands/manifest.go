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

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/gvawood/feedmirror/cmd/feedmirror/opts"
	"github.com/gvawood/feedmirror/pkg/config"
	"github.com/gvawood/feedmirror/pkg/manifest"
)

// NewManifestCmd creates the manifest command
func NewManifestCmd(opts *opts.RootOpts) *cobra.Command {
	defaults := config.Default().Manifest
	var root, out, baseURL string

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Build the image manifest from product folders",
		Long: `Manifest scans the product folders under --root and writes a table of
folder, image_index, filename and url. It will:
1. List folders named <4 digits>_<suffix>, sorted by name
2. List each folder's files, sorted by name
3. Build each URL from the base URL, folder and filename
4. Overwrite the manifest file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg := opts.Config.Manifest
			override(cmd, "root", &cfg.Root, root)
			override(cmd, "out", &cfg.Output, out)
			override(cmd, "base-url", &cfg.BaseURL, baseURL)

			entries, err := manifest.Scan(ctx, manifest.Options{
				Root:         cfg.Root,
				BaseURL:      cfg.BaseURL,
				FolderSuffix: cfg.FolderSuffix,
				Ignore:       cfg.Ignore,
			})
			if err != nil {
				return errors.Errorf("scanning %s: %w", cfg.Root, err)
			}

			path := cfg.ManifestOutput()
			if err := manifest.Write(path, entries); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote: %s  (%d rows)\n", path, len(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", defaults.Root, "directory holding the product folders")
	cmd.Flags().StringVar(&out, "out", defaults.Output, "manifest file, relative to --root unless absolute")
	cmd.Flags().StringVar(&baseURL, "base-url", defaults.BaseURL, "remote base prefixed to folder/filename")

	return cmd
}
