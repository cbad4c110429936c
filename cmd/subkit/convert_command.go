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
	"strings"

	"github.com/spf13/cobra"

	"subkit/internal/document"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var formatName, inEncoding, outEncoding, from string
	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a script to another dialect or character set",
		Long: "Convert reads <in>, autodetecting its format unless --from is given, and writes <out>.\n" +
			"The target format is --format, or else the one matching the extension of <out>, or else the input format.",
		Args: exactArgs(2, "subkit convert <in> <out>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]
			ctrl, err := ctx.openDocument(in, from, inEncoding)
			if err != nil {
				return err
			}
			var target document.Format
			switch {
			case strings.TrimSpace(formatName) != "":
				if target, err = ctrl.Registry().ByName(formatName); err != nil {
					return err
				}
			case !strings.EqualFold(filepath.Ext(out), filepath.Ext(in)):
				// a changed extension picks the format that writes it
				if target, err = ctrl.Registry().ByExtension(filepath.Ext(out)); err != nil {
					return err
				}
			}
			if err := ctrl.SaveFile(out, target, outEncoding); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", out, ctrl.Format().Name())
			return nil
		},
	}
	cmd.Flags().StringVar(&formatName, "format", "", "Target format: SSA, ASS or ASS2, or a full format name")
	cmd.Flags().StringVar(&from, "from", "", "Input format (default: autodetect)")
	cmd.Flags().StringVar(&inEncoding, "in-encoding", "", "Character set of <in> (default from config)")
	cmd.Flags().StringVar(&outEncoding, "out-encoding", "", "Character set of <out> (default from config)")
	return cmd
}
