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

	"github.com/gvawood/feedmirror/cmd/feedmirror/opts"
	"github.com/gvawood/feedmirror/pkg/config"
	"github.com/gvawood/feedmirror/pkg/feed"
)

// NewRewriteCmd creates the rewrite command
func NewRewriteCmd(opts *opts.RootOpts) *cobra.Command {
	defaults := config.Default().Feed
	var manifestPath, input, out string

	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Rewrite a feed's image column from the manifest",
		Long: `Rewrite fills the image column of every feed row with the manifest URLs of
the folder matching the row's position. It will:
1. Load the manifest into a folder index
2. Keep the first row verbatim if it names an image_url column
3. Set the image column of data row N to the URLs of folder N
4. Write the rewritten feed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg := opts.Config.Feed
			override(cmd, "manifest", &cfg.Manifest, manifestPath)
			override(cmd, "input", &cfg.Input, input)
			override(cmd, "out", &cfg.Output, out)

			result, err := feed.RewriteFile(ctx, cfg.Manifest, cfg.Input, cfg.Output, feed.Options{
				ImageColumn:  cfg.ImageColumn,
				FolderSuffix: opts.Config.Manifest.FolderSuffix,
			})
			if err != nil {
				return err
			}

			if result.Missing > 0 {
				opts.Console.Infof("%d of %d rows had no manifest entries", result.Missing, result.Items)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "OK: %s | items: %d\n", cfg.Output, result.Items)
			return nil
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", defaults.Manifest, "manifest file to read")
	cmd.Flags().StringVar(&input, "input", defaults.Input, "source feed")
	cmd.Flags().StringVar(&out, "out", defaults.Output, "rewritten feed")

	return cmd
}
