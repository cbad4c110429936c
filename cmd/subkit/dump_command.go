/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"github.com/spf13/cobra"

	"subkit/internal/export"
)

func newDumpCommand(ctx *commandContext) *cobra.Command {
	var encoding string
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print a script as schema-checked JSON",
		Args:  exactArgs(1, "subkit dump <file>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := ctx.openDocument(args[0], "", encoding)
			if err != nil {
				return err
			}
			return export.WriteJSON(cmd.OutOrStdout(), ctrl.Model())
		},
	}
	cmd.Flags().StringVar(&encoding, "encoding", "", "Character set of the file (default from config)")
	return cmd
}
