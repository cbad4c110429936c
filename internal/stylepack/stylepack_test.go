/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package stylepack

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subkit/internal/controller"
	"subkit/internal/docerr"
	"subkit/internal/subtitle"
)

const source = `[Script Info]
ScriptType: v4.00+

[V4+ Styles]
Style: Default,Arial,20,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1
Style: Sign,Verdana,28,&H0000FFFF,&H000000FF,&H00000000,&H00000000,-1,0,0,0,100,100,0,0,1,2,2,8,10,10,10,1

[Events]
`

func loaded(t *testing.T, text string) *controller.Controller {
	t.Helper()
	c, err := controller.New(controller.Options{})
	if err != nil {
		t.Fatalf("controller.New: %v", err)
	}
	if text != "" {
		if err := c.Load(strings.NewReader(text), "src.ass", nil, ""); err != nil {
			t.Fatalf("Load: %v", err)
		}
	}
	return c
}

func TestExportAndImportPack(t *testing.T) {
	src := loaded(t, source)
	zipPath := filepath.Join(t.TempDir(), "packs", "out.zip")
	n, err := Export(src, zipPath)
	if err != nil || n != 2 {
		t.Fatalf("Export = %d, %v", n, err)
	}
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range r.File {
		names[f.Name] = true
	}
	_ = r.Close()
	if !names[ManifestName] || !names[StylesName] {
		t.Fatalf("zip entries = %v", names)
	}

	dst := loaded(t, "")
	res, err := Import(dst, zipPath, false)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res != (Result{Added: 2}) {
		t.Fatalf("Import result = %+v", res)
	}
	sign, err := dst.GetStyleByName("Sign")
	if err != nil || sign.Font != "Verdana" || !sign.Bold || sign.Alignment != 8 {
		t.Fatalf("imported Sign = %+v, %v", sign, err)
	}
	if !dst.CanUndo(Owner) {
		t.Fatalf("import not undoable under owner %q", Owner)
	}
	if err := dst.Undo(Owner); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if _, err := dst.GetStyleByName("Sign"); !errors.Is(err, docerr.ErrOutOfRange) {
		t.Fatalf("undo left the imported style: %v", err)
	}
}

func TestImportSkipsOrReplacesExisting(t *testing.T) {
	src := loaded(t, source)
	zipPath := filepath.Join(t.TempDir(), "out.zip")
	if _, err := Export(src, zipPath); err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst := loaded(t, strings.Replace(source, "Verdana,28", "Times,12", 1))
	res, err := Import(dst, zipPath, false)
	if err != nil || res != (Result{Skipped: 2}) {
		t.Fatalf("Import without replace = %+v, %v", res, err)
	}
	if dst.CanUndo("") {
		t.Fatalf("a no-op import should not leave history")
	}

	res, err = Import(dst, zipPath, true)
	if err != nil || res != (Result{Replaced: 2}) {
		t.Fatalf("Import with replace = %+v, %v", res, err)
	}
	if st, _ := dst.GetStyleByName("Sign"); st.Font != "Verdana" || st.Size != 28 {
		t.Fatalf("Sign not replaced: %+v", st)
	}
	if err := dst.Undo(Owner); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if st, _ := dst.GetStyleByName("Sign"); st.Font != "Times" {
		t.Fatalf("undo did not restore Sign: %+v", st)
	}
}

func TestImportRejectsBadPacks(t *testing.T) {
	dir := t.TempDir()
	c := loaded(t, "")
	if _, err := Import(c, filepath.Join(dir, "missing.zip"), false); err == nil {
		t.Fatalf("missing zip accepted")
	}

	noStyles := filepath.Join(dir, "empty.zip")
	writeZip(t, noStyles, map[string]string{ManifestName: "x"})
	if _, err := Import(c, noStyles, false); err == nil {
		t.Fatalf("pack without %s accepted", StylesName)
	}

	broken := filepath.Join(dir, "broken.zip")
	writeZip(t, broken, map[string]string{StylesName: "; comment\nStyle: only,three\n"})
	if _, err := Import(c, broken, false); !errors.Is(err, docerr.ErrParse) {
		t.Fatalf("broken style err = %v", err)
	}
	if sec, _ := c.Model().Section(subtitle.SectionStyles); sec.Len() != 0 {
		t.Fatalf("failed import changed the document")
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()
}
