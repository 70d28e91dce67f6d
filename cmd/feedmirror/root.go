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

package main

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/gvawood/feedmirror/cmd/feedmirror/commands"
	"github.com/gvawood/feedmirror/cmd/feedmirror/opts"
	"github.com/gvawood/feedmirror/pkg/config"
	"github.com/gvawood/feedmirror/pkg/log"
)

const defaultConfigFile = ".feedmirror.yaml"

// rootFlags holds the persistent flags
type rootFlags struct {
	configFile string
	debug      bool
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	rootOpts := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:   "feedmirror",
		Short: "Build image manifests and rewrite product feeds",
		Long: `feedmirror keeps the image column of a tab-separated product feed pointing
at hosted copies of the product photos. It can:
1. Build a manifest of the images in per-product folders
2. Rewrite a feed's image column from that manifest
3. Mirror externally hosted images locally and rewrite their URLs`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := setupLogging(cmd.Context(), cmd.ErrOrStderr(), flags.debug)

			cfg, err := loadConfig(ctx, cmd, flags.configFile)
			if err != nil {
				return err
			}

			rootOpts.Config = cfg
			rootOpts.Console = log.New(cmd.ErrOrStderr(), *zerolog.Ctx(ctx))

			cmd.SetContext(log.NewContext(ctx, rootOpts.Console))
			return nil
		},
	}

	addRootFlags(cmd, flags)

	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.Errorf("%w: %s", opts.ErrUsage, err.Error())
	})

	cmd.AddCommand(
		commands.NewManifestCmd(rootOpts),
		commands.NewRewriteCmd(rootOpts),
		commands.NewMirrorCmd(rootOpts),
		newVersionCmd(),
	)

	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, flags *rootFlags) {
	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", defaultConfigFile, "config file path (.yaml, .json or .hcl)")
	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")
}

// setupLogging attaches a zerolog logger to ctx. Structured events are only
// emitted with --debug; the console logger covers normal runs.
func setupLogging(ctx context.Context, w io.Writer, debug bool) context.Context {
	level := zerolog.Disabled
	if debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
	return logger.WithContext(ctx)
}

// loadConfig reads the config file, falling back to defaults when the
// default file is absent
func loadConfig(ctx context.Context, cmd *cobra.Command, path string) (*config.Config, error) {
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			zerolog.Ctx(ctx).Debug().Str("path", path).Msg("no config file, using defaults")
			return config.Default(), nil
		}
	}

	cfg, err := config.LoadConfig(ctx, path)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("path", cfg.Location()).Msg("loaded config")
	return cfg, nil
}
