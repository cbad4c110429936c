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
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"subkit/internal/crash"
	applog "subkit/internal/log"
	"subkit/internal/subtitle"
)

func newShiftCommand(ctx *commandContext) *cobra.Command {
	var by time.Duration
	var out, encoding string
	cmd := &cobra.Command{
		Use:   "shift <file>",
		Short: "Move every dialogue and comment line in time",
		Long:  "Shift adds --by (for example 1.5s or -250ms) to the start and end of every event line, comments included.\nTimes are clamped at zero.",
		Args:  exactArgs(1, "subkit shift <file> --by DURATION"),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if by == 0 {
				return fmt.Errorf("--by must be a non-zero duration")
			}
			ctrl, err := ctx.openDocument(path, "", encoding)
			if err != nil {
				return err
			}
			defer crash.Recover(ctrl, path)
			target := path
			if out != "" {
				target = out
			}
			closeHistory := ctx.watchHistory(cmd.Context(), ctrl, target)
			defer closeHistory()

			sel := ctrl.DialogueSelection()
			if sel.Count() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No dialogue lines to shift.")
				return nil
			}
			offset := subtitle.Time(by.Milliseconds())
			entries := make([]subtitle.Entry, 0, sel.Count())
			for _, n := range sel.Lines() {
				d, err := ctrl.GetDialogue(n)
				if err != nil {
					return err
				}
				d.Start = clampTime(d.Start + offset)
				d.End = clampTime(d.End + offset)
				entries = append(entries, d)
			}
			list := ctrl.CreateActionList(fmt.Sprintf("shift by %s", by), "cli", true)
			list.ModifyLines(entries, sel, subtitle.SectionEvents, true)
			if err := list.Finish(); err != nil {
				return err
			}
			if err := ctrl.SaveFile(target, nil, encoding); err != nil {
				return err
			}
			applog.WithComponent("cli").InfoContext(applog.WithDocument(cmd.Context(), target), "shifted",
				slog.Int("lines", sel.Count()), slog.Duration("by", by))
			fmt.Fprintf(cmd.OutOrStdout(), "Shifted %d lines by %s into %s\n", sel.Count(), by, target)
			return nil
		},
	}
	cmd.Flags().DurationVar(&by, "by", 0, "Offset to add, e.g. 2s or -500ms")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of replacing the input")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Character set of the file (default from config)")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}

func clampTime(t subtitle.Time) subtitle.Time {
	if t < 0 {
		return 0
	}
	return t
}
