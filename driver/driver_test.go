package driver

import (
	"os"
	"path/filepath"
	"testing"
)

func Test_Driver_NamespaceToRelPath(t *testing.T) {
	if got := NamespaceToRelPath("app.core.util"); got != filepath.Join("app", "core", "util") {
		t.Fatalf("got %q", got)
	}
}

func Test_Driver_TargetFilePath(t *testing.T) {
	got := TargetFilePath("out", "app.core", ".dart")
	want := filepath.Join("out", "app", "core.dart")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func Test_Driver_ResolveNamespaceFile_FindsSourceExt(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "app"), 0o755); err != nil {
		t.Fatalf("MkdirAll error: %v", err)
	}
	path := filepath.Join(dir, "app", "core.cljd")
	if err := os.WriteFile(path, []byte("(ns app.core)"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	got, err := ResolveNamespaceFile("app.core", []string{dir})
	if err != nil {
		t.Fatalf("ResolveNamespaceFile error: %v", err)
	}
	wantAbs, _ := filepath.Abs(path)
	if got != filepath.Clean(wantAbs) {
		t.Fatalf("got %q, want %q", got, wantAbs)
	}
}

func Test_Driver_ResolveNamespaceFile_FirstRootWins(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	mustWrite := func(dir string) {
		if err := os.WriteFile(filepath.Join(dir, "core.cljd"), []byte("(ns core)"), 0o644); err != nil {
			t.Fatalf("WriteFile error: %v", err)
		}
	}
	mustWrite(dir1)
	mustWrite(dir2)

	got, err := ResolveNamespaceFile("core", []string{dir1, dir2})
	if err != nil {
		t.Fatalf("ResolveNamespaceFile error: %v", err)
	}
	wantAbs, _ := filepath.Abs(filepath.Join(dir1, "core.cljd"))
	if got != filepath.Clean(wantAbs) {
		t.Fatalf("got %q, want the first search root's file %q", got, wantAbs)
	}
}

func Test_Driver_ResolveNamespaceFile_NotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := ResolveNamespaceFile("missing.ns", []string{dir})
	if err == nil {
		t.Fatal("expected a NotFoundError")
	}
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("error = %T, want *NotFoundError", err)
	}
}

func Test_Driver_ReadNamespaceSource(t *testing.T) {
	dir := t.TempDir()
	want := "(ns app.core)\n(def x 1)\n"
	if err := os.MkdirAll(filepath.Join(dir, "app"), 0o755); err != nil {
		t.Fatalf("MkdirAll error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app", "core.cljd"), []byte(want), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	src, path, err := ReadNamespaceSource("app.core", []string{dir})
	if err != nil {
		t.Fatalf("ReadNamespaceSource error: %v", err)
	}
	if src != want {
		t.Fatalf("src = %q, want %q", src, want)
	}
	if filepath.Base(path) != "core.cljd" {
		t.Fatalf("path = %q", path)
	}
}

func Test_Driver_WriteGeneratedFile_CreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "deep", "core.dart")
	if err := WriteGeneratedFile(target, "dynamic x = 1;\n"); err != nil {
		t.Fatalf("WriteGeneratedFile error: %v", err)
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(got) != "dynamic x = 1;\n" {
		t.Fatalf("got %q", got)
	}
}

func Test_Driver_DefaultSearchPath_FallsBackToCwd(t *testing.T) {
	t.Setenv(PathEnvVar, "")
	path := DefaultSearchPath()
	if len(path) != 1 || path[0] != "." {
		t.Fatalf("DefaultSearchPath() = %v, want [\".\"] with CLJD_PATH unset", path)
	}
}

func Test_Driver_DefaultSearchPath_SplitsEnvVar(t *testing.T) {
	t.Setenv(PathEnvVar, "/a"+string(os.PathListSeparator)+"/b")
	path := DefaultSearchPath()
	if len(path) != 3 || path[0] != "." || path[1] != "/a" || path[2] != "/b" {
		t.Fatalf("DefaultSearchPath() = %v", path)
	}
}
