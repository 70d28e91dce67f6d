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
	"os/signal"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/gvawood/feedmirror/cmd/feedmirror/opts"
	"github.com/gvawood/feedmirror/pkg/log"
	"github.com/gvawood/feedmirror/pkg/tsv"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit status
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		log.New(stderr, zerolog.Nop()).Error(err.Error())
		return exitCode(err)
	}
	return 0
}

// exitCode maps input and usage problems to 2 and everything else to 1
func exitCode(err error) int {
	switch {
	case errors.Is(err, tsv.ErrEmpty),
		errors.Is(err, tsv.ErrMissingColumn),
		errors.Is(err, opts.ErrUsage):
		return 2
	default:
		return 1
	}
}
