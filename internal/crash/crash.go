/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report and a rescued copy of the
// open document.
package crash

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"subkit/internal/controller"
	"subkit/internal/document"
	"subkit/internal/format"
	applog "subkit/internal/log"
	"subkit/internal/subtitle"
	"subkit/internal/telemetry"
	"subkit/internal/version"
)

// RecoveredSuffix is appended to the document path for the rescued copy.
const RecoveredSuffix = ".recovered.ass"

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// reportDir is where crash reports go; tests point it elsewhere.
var reportDir = os.TempDir

// Recover captures a panic, logs it with the stack, writes a crash report
// and tries to save ctrl's document next to path. ctrl may be nil.
//
// Usage: defer crash.Recover(ctrl, path)
func Recover(ctrl *controller.Controller, path string) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, err := writeReport(path, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if ctrl != nil {
		if saved, err := rescue(ctrl, path); err != nil {
			l.Error("rescue save failed", slog.Any("err", err))
		} else {
			l.Info("document rescued", slog.String("path", saved))
			_, _ = fmt.Fprintf(os.Stderr, "Unsaved work was written to: %s\n", saved)
		}
	}

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

// rescue saves the document as ASS, the richest dialect, so nothing is
// lost whatever format it was loaded from.
func rescue(ctrl *controller.Controller, path string) (string, error) {
	if path == "" {
		path = filepath.Join(reportDir(), "untitled")
	}
	target := path + RecoveredSuffix
	var f document.Format = format.NewFamily(format.Options{}).Format(subtitle.DialectASS)
	if reg := ctrl.Registry(); reg != nil {
		if named, err := reg.ByName("ASS"); err == nil {
			f = named
		}
	}
	var buf bytes.Buffer
	if err := ctrl.Save(&buf, f, "UTF-8"); err != nil {
		return target, err
	}
	return target, os.WriteFile(target, buf.Bytes(), 0o644)
}

func writeReport(docPath string, panicVal any, stack []byte) (string, error) {
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(reportDir(), fmt.Sprintf("subkit-crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "subkit Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if docPath != "" {
		_, _ = fmt.Fprintf(&buf, "Document: %s\n", docPath)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()
	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = telemetry.Default().UploadCrash(ctx, buf.Bytes())
	return path, nil
}
