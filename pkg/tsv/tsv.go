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

// Package tsv reads and writes tab-separated feed files.
package tsv

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrEmpty is returned when an input file holds no rows at all.
	ErrEmpty = errors.Base("empty input")

	// ErrMissingColumn is returned when a header lacks a required column.
	ErrMissingColumn = errors.Base("missing required column")
)

// parser states
const (
	startRecord = iota
	startField
	inField
	inQuotedField
	quoteInQuotedField
)

// 📖 Read parses every row of r. Rows may have differing widths and a blank
// line is returned as an empty row.
//
// A quote only opens a quoted field at the start of a field. Inside one, a
// doubled quote is a literal quote, and a closing quote followed by anything
// other than a tab or line break ends the quoting; the text after it is kept
// as part of the same field. Line breaks are \n, \r\n or a lone \r.
func Read(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)

	var (
		rows   [][]string
		record []string
		field  strings.Builder
		state  = startRecord
	)

	saveField := func() {
		record = append(record, field.String())
		field.Reset()
	}
	saveRecord := func() {
		if record == nil {
			record = []string{}
		}
		rows = append(rows, record)
		record = nil
		state = startRecord
	}
	// endOfLine consumes the \n of a \r\n pair
	endOfLine := func(c rune) error {
		if c != '\r' {
			return nil
		}
		next, _, err := br.ReadRune()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if next != '\n' {
			return br.UnreadRune()
		}
		return nil
	}

	for {
		c, _, err := br.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Errorf("parsing tab-separated rows: %w", err)
		}

		switch state {
		case startRecord, startField:
			switch c {
			case '\n', '\r':
				if state == startField {
					saveField()
				}
				saveRecord()
				if err := endOfLine(c); err != nil {
					return nil, errors.Errorf("parsing tab-separated rows: %w", err)
				}
			case '"':
				state = inQuotedField
			case '\t':
				saveField()
				state = startField
			default:
				field.WriteRune(c)
				state = inField
			}
		case inField:
			switch c {
			case '\n', '\r':
				saveField()
				saveRecord()
				if err := endOfLine(c); err != nil {
					return nil, errors.Errorf("parsing tab-separated rows: %w", err)
				}
			case '\t':
				saveField()
				state = startField
			default:
				field.WriteRune(c)
			}
		case inQuotedField:
			if c == '"' {
				state = quoteInQuotedField
			} else {
				field.WriteRune(c)
			}
		case quoteInQuotedField:
			switch c {
			case '"':
				field.WriteRune('"')
				state = inQuotedField
			case '\t':
				saveField()
				state = startField
			case '\n', '\r':
				saveField()
				saveRecord()
				if err := endOfLine(c); err != nil {
					return nil, errors.Errorf("parsing tab-separated rows: %w", err)
				}
			default:
				field.WriteRune(c)
				state = inField
			}
		}
	}

	// a final line without a line break
	if state != startRecord {
		saveField()
		saveRecord()
	}

	return rows, nil
}

// 📖 ReadFile reads all rows from the file at path.
func ReadFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Read(f)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

// ✍️ Write encodes rows to w with a tab separator and \n line endings.
// Fields are quoted only when they hold a tab, a quote or a line break.
func Write(w io.Writer, rows [][]string) error {
	bw := bufio.NewWriter(w)

	for _, row := range rows {
		// a lone empty field would read back as a blank line
		if len(row) == 1 && row[0] == "" {
			bw.WriteString(`""`)
		}
		for i, field := range row {
			if i > 0 {
				bw.WriteByte('\t')
			}
			if strings.ContainsAny(field, "\t\"\r\n") {
				bw.WriteByte('"')
				bw.WriteString(strings.ReplaceAll(field, `"`, `""`))
				bw.WriteByte('"')
			} else {
				bw.WriteString(field)
			}
		}
		bw.WriteByte('\n')
	}

	if err := bw.Flush(); err != nil {
		return errors.Errorf("writing tab-separated rows: %w", err)
	}
	return nil
}

// ✍️ WriteFile truncates path and writes rows to it, creating parent
// directories as needed.
func WriteFile(path string, rows [][]string) error {
	var buf bytes.Buffer
	if err := Write(&buf, rows); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Pad returns row extended with empty fields up to width. Longer rows are
// returned unchanged.
func Pad(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

// Normalize returns row padded or truncated to exactly width fields.
func Normalize(row []string, width int) []string {
	if len(row) > width {
		return row[:width]
	}
	return Pad(row, width)
}

// Contains reports whether header has a field equal to name.
func Contains(header []string, name string) bool {
	for _, field := range header {
		if field == name {
			return true
		}
	}
	return false
}

// 🔍 Columns returns the position of each name in header, in the order given.
// The error wraps ErrMissingColumn and names every absent column.
func Columns(header []string, names ...string) ([]int, error) {
	positions := make([]int, len(names))
	var missing []string
	for i, name := range names {
		positions[i] = -1
		for j, field := range header {
			if field == name {
				positions[i] = j
				break
			}
		}
		if positions[i] < 0 {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return nil, errors.Errorf("%w: %q", ErrMissingColumn, missing)
	}
	return positions, nil
}
