// Copyright 2026 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/stockparfait/errors"
)

// Table of Records whose columns are the union of all the record keys.
//
// Columns appear in the order they are first seen, starting with the optional
// leading columns given to NewTable:
//
//	t := NewTable("token_id", "image")
//	r := NewRecord()
//	r.Set("token_id", "26")
//	r.Set("color", "red")
//	t.AddRow(r) // t.Header is now [token_id image color]
type Table struct {
	Header  []string
	Rows    []*Record
	columns map[string]struct{}
}

// NewTable creates a new Table with optional leading columns.
func NewTable(header ...string) *Table {
	t := &Table{columns: make(map[string]struct{})}
	t.addColumns(header)
	return t
}

func (t *Table) addColumns(keys []string) {
	for _, k := range keys {
		if _, ok := t.columns[k]; ok {
			continue
		}
		t.columns[k] = struct{}{}
		t.Header = append(t.Header, k)
	}
}

// AddRow adds one or more rows to the table, extending the header with any
// previously unseen keys.
func (t *Table) AddRow(rows ...*Record) {
	for _, r := range rows {
		t.addColumns(r.keys)
	}
	t.Rows = append(t.Rows, rows...)
}

// Params are parameters for pretty-printing or CSV export of Table data.
type Params struct {
	Rows        int  // max. number of rows to write; 0 = unlimited (default)
	NoHeader    bool // whether to print the header, default - yes
	MaxColWidth int  // for WriteText only; 0 = unlimited, otherwise must be >= 4
}

// rows returns the rows to be written according to p.
func (t *Table) rows(p Params) []*Record {
	if p.Rows > 0 && p.Rows < len(t.Rows) {
		return t.Rows[:p.Rows]
	}
	return t.Rows
}

// WriteCSV writes the table to w in CSV format. Cells for the keys missing in
// a row are empty.
func (t *Table) WriteCSV(w io.Writer, p Params) error {
	cw := csv.NewWriter(w)
	if !p.NoHeader && len(t.Header) > 0 {
		if err := cw.Write(t.Header); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
	}
	for i, r := range t.rows(p) {
		if err := cw.Write(r.Values(t.Header)); err != nil {
			return errors.Annotate(err, "failed to write row %d", i)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Annotate(err, "failed to flush written rows")
	}
	return nil
}

// WriteText writes the table as a text formatted for ease of reading.
func (t *Table) WriteText(w io.Writer, p Params) error {
	if p.MaxColWidth != 0 && p.MaxColWidth < 4 {
		return errors.Reason("MaxColWidth [%d] must be 0 or >= 4", p.MaxColWidth)
	}
	if len(t.Header) == 0 {
		return nil
	}
	widths := make([]int, len(t.Header))
	update := func(row []string) {
		for i, s := range row {
			if n := utf8.RuneCountInString(s); widths[i] < n {
				widths[i] = n
			}
			if p.MaxColWidth > 0 && widths[i] > p.MaxColWidth {
				widths[i] = p.MaxColWidth
			}
		}
	}
	write := func(row []string) error {
		cells := make([]string, len(row))
		for i, s := range row {
			if r := []rune(s); len(r) > widths[i] {
				s = string(r[:widths[i]-2]) + ".."
			}
			cells[i] = fmt.Sprintf("%[2]*[1]s", s, widths[i])
		}
		_, err := fmt.Fprintf(w, "%s\n", strings.Join(cells, " | "))
		return err
	}

	rows := make([][]string, len(t.rows(p)))
	for i, r := range t.rows(p) {
		rows[i] = r.Values(t.Header)
		update(rows[i])
	}
	if !p.NoHeader {
		update(t.Header)
		if err := write(t.Header); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
		dashes := make([]string, len(widths))
		for i, n := range widths {
			dashes[i] = strings.Repeat("-", n)
		}
		if err := write(dashes); err != nil {
			return errors.Annotate(err, "failed to write header separator")
		}
	}
	for i, row := range rows {
		if err := write(row); err != nil {
			return errors.Annotate(err, "failed to write row %d", i)
		}
	}
	return nil
}
