/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"subkit/internal/document"
	"subkit/internal/textio"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var encoding string
	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Show which formats can read a file and what it contains",
		Args:  exactArgs(1, "subkit info <file>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			ctrl, err := ctx.newController()
			if err != nil {
				return err
			}
			rd, err := textio.Open(path, encodingOr(ctx, encoding))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			candidates := ctrl.Registry().GetCompatibleFormatList(rd)
			rows := make([][]string, 0, len(candidates))
			for _, c := range candidates {
				rows = append(rows, []string{c.Format.Name(), strconv.FormatFloat(c.Score, 'f', 2, 64)})
			}
			fmt.Fprintf(out, "File: %s\n", filepath.Base(path))
			if len(rows) == 0 {
				fmt.Fprintln(out, "No format recognises this file.")
				return nil
			}
			fmt.Fprintln(out, renderTable(out, []string{"Format", "Score"}, rows, []columnAlignment{alignLeft, alignRight}))

			if err := ctrl.LoadFile(path, nil, encoding); err != nil {
				return err
			}
			fmt.Fprintf(out, "Loaded as: %s\n", ctrl.Format().Name())
			fmt.Fprintln(out, renderTable(out, []string{"Section", "Entries", "Properties"}, sectionRows(ctrl.Model()),
				[]columnAlignment{alignLeft, alignRight, alignRight}))
			return nil
		},
	}
	cmd.Flags().StringVar(&encoding, "encoding", "", "Character set of the file (default from config)")
	return cmd
}

func sectionRows(m *document.Model) [][]string {
	rows := make([][]string, 0, m.SectionCount())
	for _, sec := range m.Sections() {
		rows = append(rows, []string{sec.Name(), strconv.Itoa(sec.Len()), strconv.Itoa(len(sec.PropertyKeys()))})
	}
	return rows
}

func encodingOr(ctx *commandContext, enc string) string {
	if enc != "" {
		return enc
	}
	if ctx.config != nil && ctx.config.Document.Encoding != "" {
		return ctx.config.Document.Encoding
	}
	return "UTF-8"
}
