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

	"github.com/spf13/cobra"

	"subkit/internal/crash"
	"subkit/internal/stylepack"
)

func newStylepackCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stylepack",
		Short: "Share styles between scripts as zip packs",
	}
	cmd.AddCommand(newStylepackExportCommand(ctx), newStylepackImportCommand(ctx))
	return cmd
}

func newStylepackExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file> <pack.zip>",
		Short: "Write the styles of a script to a pack",
		Args:  exactArgs(2, "subkit stylepack export <file> <pack.zip>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := ctx.openDocument(args[0], "", "")
			if err != nil {
				return err
			}
			n, err := stylepack.Export(ctrl, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d styles to %s\n", n, args[1])
			return nil
		},
	}
}

func newStylepackImportCommand(ctx *commandContext) *cobra.Command {
	var replace bool
	var out string
	cmd := &cobra.Command{
		Use:   "import <file> <pack.zip>",
		Short: "Add the styles of a pack to a script",
		Args:  exactArgs(2, "subkit stylepack import <file> <pack.zip>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			ctrl, err := ctx.openDocument(path, "", "")
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

			res, err := stylepack.Import(ctrl, args[1], replace)
			if err != nil {
				return err
			}
			if res.Added+res.Replaced > 0 {
				if err := ctrl.SaveFile(target, nil, ""); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d, replaced %d, skipped %d styles\n", res.Added, res.Replaced, res.Skipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "Overwrite styles that already exist")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of replacing the input")
	return cmd
}
