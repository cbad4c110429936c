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
	"strings"

	"github.com/spf13/cobra"

	"subkit/internal/storage"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and restore autosaved snapshots",
	}
	cmd.AddCommand(newHistoryListCommand(ctx), newHistoryRestoreCommand(ctx))
	return cmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list [file]",
		Short: "List snapshots, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := ctx.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer h.Close()
			doc := ""
			if len(args) == 1 {
				doc = documentKey(args[0])
			}
			snaps, err := h.List(cmd.Context(), doc, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(snaps) == 0 {
				fmt.Fprintln(out, "No snapshots.")
				return nil
			}
			rows := make([][]string, 0, len(snaps))
			for _, s := range snaps {
				rows = append(rows, []string{
					strconv.FormatInt(s.ID, 10),
					s.TS.Local().Format("2006-01-02 15:04:05"),
					s.Document,
					s.Format,
					strconv.Itoa(strings.Count(s.Text, "\n")),
					s.Session.String()[:8],
				})
			}
			fmt.Fprintln(out, renderTable(out, []string{"ID", "Time", "Document", "Format", "Lines", "Session"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of snapshots to show")
	return cmd
}

func newHistoryRestoreCommand(ctx *commandContext) *cobra.Command {
	var out, encoding string
	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Write a snapshot back to disk",
		Long:  "Restore writes snapshot <id> to --out, or over the document it was taken from.",
		Args:  exactArgs(1, "subkit history restore <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("snapshot id %q is not a number", args[0])
			}
			h, err := ctx.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer h.Close()
			snap, err := h.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return restoreSnapshot(ctx, cmd, snap, out, encoding)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Target file (default: the original document)")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Character set to write (default from config)")
	return cmd
}

func restoreSnapshot(ctx *commandContext, cmd *cobra.Command, snap storage.Snapshot, out, encoding string) error {
	ctrl, err := ctx.newController()
	if err != nil {
		return err
	}
	f, err := lookupFormat(ctrl, snap.Format)
	if err != nil {
		return err
	}
	if err := ctrl.Load(strings.NewReader(snap.Text), snap.Document, f, "UTF-8"); err != nil {
		return err
	}
	target := out
	if target == "" {
		target = snap.Document
	}
	if err := ctrl.SaveFile(target, nil, encoding); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Restored snapshot %d to %s\n", snap.ID, target)
	return nil
}
