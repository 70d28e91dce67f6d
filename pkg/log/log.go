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

package log

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	imageIndent = 4  // spaces to indent image entries
	nameWidth   = 40 // Width for the destination name
	statusWidth = 12 // Width for status text
)

// 📊 ImageStatus is the outcome of handling one image URL
type ImageStatus string

const (
	ImageDownloaded ImageStatus = "downloaded"
	ImageSkipped    ImageStatus = "exists"
	ImagePlanned    ImageStatus = "dry-run"
	ImageFailed     ImageStatus = "failed"
)

// 🖼️ ImageOperation represents one image URL being mirrored
type ImageOperation struct {
	Row    int         // 1-based row position in the feed
	Source string      // Source URL
	Dest   string      // Destination relative path
	Status ImageStatus // Outcome
}

// 📦 RowOperation represents one feed row being processed
type RowOperation struct {
	Row    int    // 1-based row position in the feed
	Title  string // Product title
	Folder string // Destination folder name
	Images int    // Number of source URLs
}

// 🧮 Summary holds the counters shown at the end of a run
type Summary struct {
	Rows       int
	Downloaded int
	Skipped    int
	Planned    int
	Failed     int
}

// 🎯 Logger writes human-readable progress to a console writer and mirrors
// each line as a structured zerolog event
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔇 Discard returns a logger that prints nothing
func Discard() *Logger {
	return New(io.Discard, zerolog.Nop())
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context, falling back to Discard
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		return Discard()
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatImageOperation formats an image operation for display
func (l *Logger) formatImageOperation(op ImageOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch op.Status {
	case ImageDownloaded:
		symbol = '✓'
		symbolColor = color.FgGreen
	case ImageSkipped:
		symbol = '•'
		symbolColor = color.FgCyan
	case ImagePlanned:
		symbol = '○'
		symbolColor = color.FgBlue
	default:
		symbol = '✗'
		symbolColor = color.FgRed
	}

	return fmt.Sprintf("%s%s %s %s",
		fmt.Sprintf("%*s", imageIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Dest),
		fmt.Sprintf("%-*s", statusWidth, string(op.Status)))
}

// 📝 LogImage logs the outcome for one image
func (l *Logger) LogImage(ctx context.Context, op ImageOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, l.formatImageOperation(op))

	l.zlog.Debug().
		Int("row", op.Row).
		Str("source", op.Source).
		Str("dest", op.Dest).
		Str("status", string(op.Status)).
		Msg("image")
}

// 📝 StartRow prints the row header
func (l *Logger) StartRow(ctx context.Context, op RowOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Folder),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprintf("%d images", op.Images))

	l.zlog.Debug().
		Int("row", op.Row).
		Str("title", op.Title).
		Str("folder", op.Folder).
		Int("images", op.Images).
		Msg("processing row")
}

// 📊 LogSummary renders the run counters as a table
func (l *Logger) LogSummary(ctx context.Context, s Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data := pterm.TableData{
		{"rows", "downloaded", "exists", "dry-run", "failed"},
		{
			strconv.Itoa(s.Rows),
			strconv.Itoa(s.Downloaded),
			strconv.Itoa(s.Skipped),
			strconv.Itoa(s.Planned),
			strconv.Itoa(s.Failed),
		},
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		l.zlog.Error().Err(err).Msg("rendering summary table")
		return
	}
	fmt.Fprintln(l.console, table)

	l.zlog.Info().
		Int("rows", s.Rows).
		Int("downloaded", s.Downloaded).
		Int("skipped", s.Skipped).
		Int("planned", s.Planned).
		Int("failed", s.Failed).
		Msg("summary")
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("feedmirror")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
