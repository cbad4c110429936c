/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package stylepack moves style catalogs between documents as zip archives.
package stylepack

import (
	"archive/zip"
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subkit/internal/controller"
	"subkit/internal/format"
	applog "subkit/internal/log"
	"subkit/internal/subtitle"
)

const (
	ManifestName = "manifest.txt"
	StylesName   = "styles.sty"

	// Owner tags the undo history written by Import.
	Owner = "stylepack"
)

// Result counts what Import did with the styles of a pack.
type Result struct {
	Added    int
	Replaced int
	Skipped  int
}

// Export writes every style of the controller's document to a new zip at
// destZipPath and returns how many were written.
func Export(ctrl *controller.Controller, destZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "export").With(slog.String("zip", destZipPath))
	if strings.TrimSpace(destZipPath) == "" {
		return 0, errors.New("destZipPath is required")
	}
	sec, err := ctrl.Model().Section(subtitle.SectionStyles)
	if err != nil {
		return 0, err
	}
	var lines []string
	for _, e := range sec.Entries() {
		if st, ok := e.(*subtitle.Style); ok {
			lines = append(lines, format.StyleLine(st, subtitle.DialectASS))
		}
	}

	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return 0, fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)
	zf, err := os.Create(destZipPath)
	if err != nil {
		return 0, fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	source := ctrl.Path()
	if source == "" {
		source = "(unsaved)"
	}
	manifest := fmt.Sprintf("subkit style pack\nCreated: %s\nSource: %s\nStyles: %d\n",
		time.Now().Format(time.RFC3339), source, len(lines))
	if err := addFile(zw, ManifestName, manifest); err != nil {
		return 0, err
	}
	body := ""
	if len(lines) > 0 {
		body = strings.Join(lines, "\n") + "\n"
	}
	if err := addFile(zw, StylesName, body); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("finish zip: %w", err)
	}
	l.Info("style pack exported", slog.Int("styles", len(lines)))
	return len(lines), nil
}

func addFile(zw *zip.Writer, name, content string) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := io.WriteString(w, content); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Import adds the styles of the pack at packZipPath to the controller's
// document as one undoable edit owned by Owner. A style whose name is
// already taken is replaced when replace is set and skipped otherwise.
// Repeated names inside the pack are skipped after the first.
func Import(ctrl *controller.Controller, packZipPath string, replace bool) (Result, error) {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "import").With(slog.String("zip", packZipPath))
	var res Result
	styles, err := readPack(packZipPath)
	if err != nil {
		return res, err
	}
	dialect := subtitle.DialectASS
	if f, ok := ctrl.Format().(*format.ASSFormat); ok {
		dialect = f.Dialect()
	}
	list := ctrl.CreateActionList("import styles", Owner, true)
	seen := map[string]bool{}
	for _, st := range styles {
		if seen[st.Name] {
			res.Skipped++
			continue
		}
		seen[st.Name] = true
		st.Dialect = dialect
		line := ctrl.StyleLine(st.Name)
		switch {
		case line < 0:
			list.InsertLine(st, -1, subtitle.SectionStyles)
			res.Added++
		case replace:
			list.ModifyLine(st, line, subtitle.SectionStyles, false)
			res.Replaced++
		default:
			res.Skipped++
		}
	}
	if list.Len() == 0 {
		l.Info("nothing to import", slog.Int("skipped", res.Skipped))
		return res, nil
	}
	if err := list.Finish(); err != nil {
		return Result{}, err
	}
	l.Info("style pack imported", slog.Int("added", res.Added), slog.Int("replaced", res.Replaced), slog.Int("skipped", res.Skipped))
	return res, nil
}

func readPack(path string) ([]*subtitle.Style, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("packZipPath is required")
	}
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()
	for _, f := range r.File {
		if f.Name != StylesName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer func() { _ = rc.Close() }()
		var out []*subtitle.Style
		sc := bufio.NewScanner(rc)
		n := 0
		for sc.Scan() {
			n++
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, ";") {
				continue
			}
			st, err := format.ParseStyle(line, subtitle.DialectASS)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", StylesName, n, err)
			}
			out = append(out, st)
		}
		return out, sc.Err()
	}
	return nil, fmt.Errorf("pack has no %s", StylesName)
}
