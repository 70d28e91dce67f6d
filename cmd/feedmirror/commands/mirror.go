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
	"github.com/gvawood/feedmirror/pkg/fetch"
	"github.com/gvawood/feedmirror/pkg/mirror"
)

// NewMirrorCmd creates the mirror command
func NewMirrorCmd(opts *opts.RootOpts) *cobra.Command {
	defaults := config.Default().Mirror
	var input, out, repoBase, root string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "mirror --input FILE --out FILE --repo-base URL",
		Short: "Mirror feed images locally and rewrite their URLs",
		Long: `Mirror downloads every image listed in the image_url column into
<root>/item_<row>_<slug>/ and points the column at <repo-base>. It will:
1. Require title and image_url columns in the header
2. Download each URL unless its destination file already exists
3. Warn about and drop URLs that still fail after retrying
4. Write the rewritten feed

With --dry-run only the rewritten URLs are computed; nothing is fetched or
written besides the output feed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg := opts.Config.Mirror
			override(cmd, "repo-base", &cfg.RepoBase, repoBase)
			override(cmd, "root", &cfg.Root, root)

			if err := requireValues(
				required{flag: "input", value: input},
				required{flag: "out", value: out},
				required{flag: "repo-base", value: cfg.RepoBase},
			); err != nil {
				return err
			}

			m, err := mirror.New(mirror.Options{
				RepoBase:   cfg.RepoBase,
				Root:       cfg.Root,
				DryRun:     dryRun,
				SlugMaxLen: cfg.SlugMaxLen,
				Downloader: fetch.New(fetch.Options{
					Attempts:  cfg.Attempts,
					Timeout:   cfg.Timeout(),
					Backoff:   cfg.Backoff(),
					UserAgent: cfg.UserAgent,
				}),
			})
			if err != nil {
				return err
			}

			if dryRun {
				opts.Console.Header("dry run: computing mirrored URLs")
			} else {
				opts.Console.Header("mirroring images into " + cfg.Root)
			}

			stats, err := m.RewriteFile(ctx, input, out)
			if err != nil {
				return err
			}

			opts.Console.LogSummary(ctx, stats.Summary())
			opts.Console.Successf("wrote %s (%d rows)", out, stats.Rows)
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "source feed (required)")
	cmd.Flags().StringVar(&out, "out", "", "rewritten feed (required)")
	cmd.Flags().StringVar(&repoBase, "repo-base", defaults.RepoBase, "public base URL for rewritten links (required unless set in config)")
	cmd.Flags().StringVar(&root, "root", defaults.Root, "local directory for downloaded images")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute URLs without downloading")

	return cmd
}
