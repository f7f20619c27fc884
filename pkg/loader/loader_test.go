// Copyright 2025 The Ember Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package loader

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/emberos/ember/pkg/riscv"
)

func writeImage(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpen(t *testing.T) {
	data := bytes.Repeat([]byte{0xab}, riscv.PageSize+100)
	path := writeImage(t, data)

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if img.Name != path {
		t.Errorf("Name = %q, want %q", img.Name, path)
	}
	if !bytes.Equal(img.Data, data) {
		t.Errorf("Data differs from the file contents")
	}
	if got := img.Pages(); got != 2 {
		t.Errorf("Pages() = %d, want 2 for a page plus a partial page", got)
	}
}

func TestOpenEmptyImage(t *testing.T) {
	path := writeImage(t, nil)
	if _, err := Open(path); err == nil {
		t.Error("Open accepted an empty image")
	}
}

func TestOpenMissingImage(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "absent.bin")); err == nil {
		t.Error("Open accepted a missing file")
	}
}

func TestPagesExactMultiple(t *testing.T) {
	img := &Image{Data: make([]byte, 3*riscv.PageSize)}
	if got := img.Pages(); got != 3 {
		t.Errorf("Pages() = %d, want 3", got)
	}
}
