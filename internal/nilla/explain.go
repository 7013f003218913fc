// Copyright 2025 Jetify Inc. and contributors. All rights reserved.
// Use of this source code is governed by the license in the LICENSE file.

package nilla

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.jetify.com/nilla/internal/ux"
)

// ExplainEntry is a project's description of one of its attributes.
type ExplainEntry struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Data        ExplainData    `json:"data"`
	Entries     []ExplainEntry `json:"entries"`
}

// ExplainData is tabular detail attached to an entry.
type ExplainData struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Render writes the entry and its sub-entries to w as a heading, the
// description and a table.
func (e *ExplainEntry) Render(w io.Writer) error {
	ux.Fheading(w, "%s", e.Name)

	if e.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, e.Description)
	}

	if len(e.Data.Columns) > 0 && len(e.Data.Rows) > 0 {
		fmt.Fprintln(w)
		table := tablewriter.NewWriter(w)
		table.Header(lo.ToAnySlice(e.Data.Columns)...)
		for _, row := range e.Data.Rows {
			if err := table.Append(fitRow(row, len(e.Data.Columns))); err != nil {
				return errors.WithStack(err)
			}
		}
		if err := table.Render(); err != nil {
			return errors.WithStack(err)
		}
	}

	for i := range e.Entries {
		fmt.Fprintln(w)
		if err := e.Entries[i].Render(w); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)
	return nil
}

// fitRow pads or truncates row to n cells.
func fitRow(row []string, n int) []string {
	if len(row) >= n {
		return row[:n]
	}
	return append(append(make([]string, 0, n), row...), make([]string, n-len(row))...)
}
