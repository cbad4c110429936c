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
	"strconv"

	"github.com/spf13/cobra"

	"subkit/internal/subtitle"
)

func newStylesCommand(ctx *commandContext) *cobra.Command {
	var encoding string
	cmd := &cobra.Command{
		Use:   "styles <file>",
		Short: "List the styles defined in a script",
		Args:  exactArgs(1, "subkit styles <file>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := ctx.openDocument(args[0], "", encoding)
			if err != nil {
				return err
			}
			sec, err := ctrl.Model().Section(subtitle.SectionStyles)
			if err != nil {
				return err
			}
			var rows [][]string
			for _, e := range sec.Entries() {
				st, ok := e.(*subtitle.Style)
				if !ok {
					continue
				}
				rows = append(rows, []string{
					st.Name, st.Font, strconv.FormatFloat(st.Size, 'f', -1, 64),
					st.Primary.ASS(), strconv.Itoa(st.Alignment), flags(st),
				})
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No styles.")
				return nil
			}
			fmt.Fprintln(out, renderTable(out, []string{"Name", "Font", "Size", "Primary", "Align", "Flags"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft}))
			return nil
		},
	}
	cmd.Flags().StringVar(&encoding, "encoding", "", "Character set of the file (default from config)")
	return cmd
}

func flags(st *subtitle.Style) string {
	s := ""
	for _, f := range []struct {
		on  bool
		tag string
	}{{st.Bold, "B"}, {st.Italic, "I"}, {st.Underline, "U"}, {st.StrikeOut, "S"}} {
		if f.on {
			s += f.tag
		}
	}
	return s
}
