/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const episode = `[Script Info]
Title: Episode
ScriptType: v4.00+
PlayResX: 1280
PlayResY: 720

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,Arial,20,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,2,2,10,10,10,1
Style: Sign,Verdana,28,&H0000FFFF,&H000000FF,&H00000000,&H00000000,-1,0,0,0,100,100,0,0,1,2,2,8,10,10,10,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Dialogue: 0,0:00:01.00,0:00:02.50,Default,Ann,0,0,0,,Hello there
Comment: 0,0:00:03.00,0:00:04.00,Default,,0,0,0,,note to self
Dialogue: 0,0:00:05.00,0:00:06.00,Sign,,0,0,0,,{\pos(640,40)}Station
`

type cliEnv struct {
	dir        string
	configPath string
}

func setupCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("SUBKIT_TELEMETRY_OPT_IN", "")
	cfg := "history:\n  enabled: true\n  dir: " + filepath.Join(dir, "history") + "\n  keep_last: 5\n" +
		"logging:\n  level: error\n  format: json\n"
	path := filepath.Join(dir, "subkit.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliEnv{dir: dir, configPath: path}
}

func (e *cliEnv) file(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(e.dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func runCLI(t *testing.T, env *cliEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in:\n%s", needle, haystack)
	}
}

func TestVersionCommand(t *testing.T) {
	env := setupCLIEnv(t)
	out, _, err := runCLI(t, env, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "subkit ")
}

func TestInfoAndStylesCommands(t *testing.T) {
	env := setupCLIEnv(t)
	src := env.file(t, "episode.ass", episode)

	out, _, err := runCLI(t, env, "info", src)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	requireContains(t, out, "Advanced Substation Alpha")
	requireContains(t, out, "Loaded as: Advanced Substation Alpha")
	requireContains(t, out, "Events")

	out, _, err = runCLI(t, env, "styles", src)
	if err != nil {
		t.Fatalf("styles: %v", err)
	}
	requireContains(t, out, "Verdana")
	requireContains(t, out, "&H0000FFFF")

	notSubs := env.file(t, "notes.txt", "just some text\n")
	out, _, err = runCLI(t, env, "info", notSubs)
	if err != nil {
		t.Fatalf("info on foreign text: %v", err)
	}
	requireContains(t, out, "No format recognises this file.")
}

func TestConvertCommand(t *testing.T) {
	env := setupCLIEnv(t)
	src := env.file(t, "episode.ass", episode)
	dst := filepath.Join(env.dir, "episode.ssa")

	out, _, err := runCLI(t, env, "convert", src, dst)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	requireContains(t, out, "Substation Alpha")
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	s := string(data)
	requireContains(t, s, "ScriptType: v4.00\n")
	requireContains(t, s, "[V4 Styles]")
	requireContains(t, s, "Dialogue: Marked=0,0:00:01.00,0:00:02.50,Default,Ann,")

	latin := filepath.Join(env.dir, "latin1.ass")
	if _, _, err := runCLI(t, env, "convert", "--format", "ASS2", "--out-encoding", "windows-1252", src, latin); err != nil {
		t.Fatalf("convert to ASS2: %v", err)
	}
	data, _ = os.ReadFile(latin)
	requireContains(t, string(data), "ScriptType: v4.00++")

	if _, _, err := runCLI(t, env, "convert", "--format", "SRT", src, dst); err == nil {
		t.Fatalf("unknown target format accepted")
	}
}

func TestShiftRecordsHistoryAndRestores(t *testing.T) {
	env := setupCLIEnv(t)
	src := env.file(t, "episode.ass", episode)

	out, _, err := runCLI(t, env, "shift", src, "--by", "1s")
	if err != nil {
		t.Fatalf("shift: %v", err)
	}
	requireContains(t, out, "Shifted 3 lines")
	data, _ := os.ReadFile(src)
	shifted := string(data)
	requireContains(t, shifted, "0:00:02.00,0:00:03.50,Default,Ann")
	requireContains(t, shifted, "0:00:06.00,0:00:07.00,Sign")
	requireContains(t, shifted, "Comment: 0,0:00:04.00,0:00:05.00")

	out, _, err = runCLI(t, env, "history", "list", src)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "Advanced Substation Alpha")

	restored := filepath.Join(env.dir, "restored.ass")
	out, _, err = runCLI(t, env, "history", "restore", "1", "--out", restored)
	if err != nil {
		t.Fatalf("history restore: %v", err)
	}
	requireContains(t, out, "Restored snapshot 1")
	data, _ = os.ReadFile(restored)
	if string(data) != shifted {
		t.Fatalf("restored snapshot differs from saved file:\n%s\n---\n%s", data, shifted)
	}

	if _, _, err := runCLI(t, env, "shift", src, "--by", "0s"); err == nil {
		t.Fatalf("zero shift accepted")
	}
	if _, _, err := runCLI(t, env, "history", "restore", "x"); err == nil {
		t.Fatalf("non-numeric id accepted")
	}
}

func TestDumpCommand(t *testing.T) {
	env := setupCLIEnv(t)
	src := env.file(t, "episode.ass", episode)
	out, _, err := runCLI(t, env, "dump", src)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	var doc struct {
		Format   string `json:"format"`
		Sections []struct {
			Name string `json:"name"`
		} `json:"sections"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("dump is not JSON: %v\n%s", err, out)
	}
	if doc.Format != "Advanced Substation Alpha" || len(doc.Sections) != 3 {
		t.Fatalf("dump = %+v", doc)
	}
}

func TestStylepackCommands(t *testing.T) {
	env := setupCLIEnv(t)
	src := env.file(t, "episode.ass", episode)
	other := env.file(t, "other.ass", "[Script Info]\nScriptType: v4.00+\n\n[V4+ Styles]\n\n[Events]\n")
	pack := filepath.Join(env.dir, "styles.zip")

	out, _, err := runCLI(t, env, "stylepack", "export", src, pack)
	if err != nil {
		t.Fatalf("stylepack export: %v", err)
	}
	requireContains(t, out, "Exported 2 styles")

	out, _, err = runCLI(t, env, "stylepack", "import", other, pack)
	if err != nil {
		t.Fatalf("stylepack import: %v", err)
	}
	requireContains(t, out, "Added 2, replaced 0, skipped 0")
	data, _ := os.ReadFile(other)
	requireContains(t, string(data), "Style: Sign,Verdana,28")

	out, _, err = runCLI(t, env, "stylepack", "import", other, pack)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	requireContains(t, out, "skipped 2")
}
