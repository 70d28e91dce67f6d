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
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// version is stamped at build time with -ldflags "-X main.version=v1.2.3"
var version = ""

// buildInfo describes the running binary
type buildInfo struct {
	version  string
	revision string
	time     string
	dirty    bool
}

// readBuildInfo prefers the stamped version over the module version
func readBuildInfo() buildInfo {
	info := buildInfo{version: version}

	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.version == "" && bi.Main.Version != "(devel)" {
			info.version = bi.Main.Version
		}
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				info.revision = setting.Value
			case "vcs.time":
				info.time = setting.Value
			case "vcs.modified":
				info.dirty = setting.Value == "true"
			}
		}
	}

	if info.version == "" {
		info.version = "dev"
	}
	return info
}

// String renders a one-line description such as
// "feedmirror v1.2.3 (0123456789ab, 2025-01-02T15:04:05Z, dirty) go1.23.5 linux/amd64".
func (b buildInfo) String() string {
	var details []string
	if b.revision != "" {
		rev := b.revision
		if len(rev) > 12 {
			rev = rev[:12]
		}
		details = append(details, rev)
	}
	if b.time != "" {
		details = append(details, b.time)
	}
	if b.dirty {
		details = append(details, "dirty")
	}

	line := "feedmirror " + b.version
	if len(details) > 0 {
		line += " (" + strings.Join(details, ", ") + ")"
	}
	return fmt.Sprintf("%s %s %s/%s", line, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := readBuildInfo()
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), info.version)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "print only the version")

	return cmd
}
