package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newFileRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(zap.NewNop())
	if err := RegisterFileTools(r); err != nil {
		t.Fatalf("unexpected error registering file tools: %v", err)
	}
	return r
}

// dispatchJSON dispatches a tool call and decodes its JSON result.
func dispatchJSON(t *testing.T, r *Registry, tool string, args map[string]any) map[string]any {
	t.Helper()
	raw, err := r.Dispatch(context.Background(), tool, args)
	if err != nil {
		t.Fatalf("unexpected error dispatching %s: %v", tool, err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("result of %s is not valid JSON: %v\n%s", tool, err, raw)
	}
	return payload
}

func assertStatus(t *testing.T, payload map[string]any, status, message string) {
	t.Helper()
	if payload["status"] != status {
		t.Errorf("expected status %q, got %v", status, payload["status"])
	}
	if payload["message"] != message {
		t.Errorf("expected message %q, got %v", message, payload["message"])
	}
}

// ---------- writing files ----------

func TestCreateTextFile(t *testing.T) {
	r := newFileRegistry(t)
	path := filepath.Join(t.TempDir(), "notes", "todo.txt")

	payload := dispatchJSON(t, r, "create_text_file", map[string]any{
		"file_path": path,
		"content":   "buy seeds\n",
	})
	assertStatus(t, payload, "ok", "text file written")

	reported, _ := payload["path"].(string)
	if !filepath.IsAbs(reported) {
		t.Errorf("expected an absolute path in the result, got %q", reported)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error reading back the file: %v", err)
	}
	if string(data) != "buy seeds\n" {
		t.Errorf("unexpected file content: %q", data)
	}
}

func TestCreatePythonFileAddsSuffix(t *testing.T) {
	r := newFileRegistry(t)
	dir := t.TempDir()

	cases := []struct {
		in   string
		want string
	}{
		{"script.txt", "script.py"},
		{"tool", "tool.py"},
		{"keep.py", "keep.py"},
	}
	for _, tc := range cases {
		payload := dispatchJSON(t, r, "create_python_file", map[string]any{
			"file_path": filepath.Join(dir, tc.in),
			"code":      "print('hi')\n",
		})
		assertStatus(t, payload, "ok", "python file written")

		if _, err := os.Stat(filepath.Join(dir, tc.want)); err != nil {
			t.Errorf("%s: expected %s on disk: %v", tc.in, tc.want, err)
		}
		if reported, _ := payload["path"].(string); !strings.HasSuffix(reported, ".py") {
			t.Errorf("%s: expected a .py path in the result, got %q", tc.in, reported)
		}
	}
}

// ---------- directory structure ----------

func TestDirectoryStructure(t *testing.T) {
	r := newFileRegistry(t)
	root := t.TempDir()
	for _, dir := range []string{".git", "sub"} {
		if err := os.Mkdir(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("unexpected error creating %s: %v", dir, err)
		}
	}
	for _, file := range []string{filepath.Join(".git", "config"), "b.txt", filepath.Join("sub", "c.txt")} {
		if err := os.WriteFile(filepath.Join(root, file), []byte("x"), 0o644); err != nil {
			t.Fatalf("unexpected error creating %s: %v", file, err)
		}
	}

	payload := dispatchJSON(t, r, "get_directory_structure", map[string]any{"root": root})
	if payload["type"] != "dir" {
		t.Fatalf("expected a dir node at the root, got %v", payload["type"])
	}

	children, ok := payload["children"].([]any)
	if !ok || len(children) != 2 {
		t.Fatalf("expected 2 children after skipping .git, got %v", payload["children"])
	}
	first := children[0].(map[string]any)
	second := children[1].(map[string]any)
	if first["name"] != "sub" || first["type"] != "dir" {
		t.Errorf("expected the sub directory first, got %v", first)
	}
	if second["name"] != "b.txt" || second["type"] != "file" {
		t.Errorf("expected b.txt after directories, got %v", second)
	}

	grandchildren, ok := first["children"].([]any)
	if !ok || len(grandchildren) != 1 {
		t.Fatalf("expected one child under sub, got %v", first["children"])
	}
	if name := grandchildren[0].(map[string]any)["name"]; name != "c.txt" {
		t.Errorf("expected c.txt under sub, got %v", name)
	}
}

func TestDirectoryStructureMissingRoot(t *testing.T) {
	r := newFileRegistry(t)
	payload := dispatchJSON(t, r, "get_directory_structure", map[string]any{
		"root": filepath.Join(t.TempDir(), "nope"),
	})
	assertStatus(t, payload, "error", "root does not exist")
}

// ---------- renaming ----------

func TestRenameFileCreatesParents(t *testing.T) {
	r := newFileRegistry(t)
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "a.txt")
	newPath := filepath.Join(dir, "nested", "b.txt")
	if err := os.WriteFile(oldPath, []byte("payload"), 0o644); err != nil {
		t.Fatalf("unexpected error creating the source file: %v", err)
	}

	payload := dispatchJSON(t, r, "rename_file", map[string]any{
		"old_path": oldPath,
		"new_path": newPath,
	})
	assertStatus(t, payload, "ok", "renamed")

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Errorf("expected the source to be gone, stat returned %v", err)
	}
	data, err := os.ReadFile(newPath)
	if err != nil {
		t.Fatalf("unexpected error reading the renamed file: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("unexpected content after rename: %q", data)
	}
}

func TestRenameFileMissingSource(t *testing.T) {
	r := newFileRegistry(t)
	dir := t.TempDir()
	payload := dispatchJSON(t, r, "rename_file", map[string]any{
		"old_path": filepath.Join(dir, "ghost.txt"),
		"new_path": filepath.Join(dir, "real.txt"),
	})
	assertStatus(t, payload, "error", "failed to rename")
}

// ---------- listing ----------

func TestListFiles(t *testing.T) {
	r := newFileRegistry(t)
	dir := t.TempDir()
	for _, file := range []string{"a.txt", "b.log", filepath.Join("sub", "c.txt")} {
		path := filepath.Join(dir, file)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("unexpected error creating parents for %s: %v", file, err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("unexpected error creating %s: %v", file, err)
		}
	}

	payload := dispatchJSON(t, r, "list_files", map[string]any{
		"directory": dir,
		"pattern":   "*.txt",
	})
	assertStatus(t, payload, "ok", "files listed")
	if count := payload["count"].(float64); count != 2 {
		t.Errorf("expected 2 matches with the default recursion, got %v", count)
	}
	files := payload["files"].([]any)
	first := files[0].(map[string]any)
	if first["name"] != "a.txt" {
		t.Errorf("expected results sorted by path, first was %v", first["name"])
	}
	for _, key := range []string{"name", "path", "size_bytes", "modified", "extension"} {
		if _, ok := first[key]; !ok {
			t.Errorf("expected file entries to carry %q", key)
		}
	}

	flat := dispatchJSON(t, r, "list_files", map[string]any{
		"directory": dir,
		"pattern":   "*.txt",
		"recursive": false,
	})
	if count := flat["count"].(float64); count != 1 {
		t.Errorf("expected 1 match without recursion, got %v", count)
	}
}

func TestListFilesMissingDirectory(t *testing.T) {
	r := newFileRegistry(t)
	payload := dispatchJSON(t, r, "list_files", map[string]any{
		"directory": filepath.Join(t.TempDir(), "nope"),
	})
	assertStatus(t, payload, "error", "directory does not exist")
}

// ---------- reading ----------

func TestReadFileContent(t *testing.T) {
	r := newFileRegistry(t)
	path := filepath.Join(t.TempDir(), "hello.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("unexpected error creating the file: %v", err)
	}

	payload := dispatchJSON(t, r, "read_file_content", map[string]any{"file_path": path})
	assertStatus(t, payload, "ok", "file read")
	if payload["content"] != "hello" {
		t.Errorf("unexpected content: %v", payload["content"])
	}
	if size := payload["size_mb"].(float64); size != 0 {
		t.Errorf("expected a 5-byte file to round to 0 MB, got %v", size)
	}
}

func TestReadFileContentMissingOrDirectory(t *testing.T) {
	r := newFileRegistry(t)
	dir := t.TempDir()

	payload := dispatchJSON(t, r, "read_file_content", map[string]any{
		"file_path": filepath.Join(dir, "ghost.txt"),
	})
	assertStatus(t, payload, "error", "file does not exist")

	payload = dispatchJSON(t, r, "read_file_content", map[string]any{"file_path": dir})
	assertStatus(t, payload, "error", "path is not a file")
}

func TestReadFileContentTooLarge(t *testing.T) {
	r := newFileRegistry(t)
	path := filepath.Join(t.TempDir(), "big.txt")
	// 1.5 MiB, above a 1 MB cap.
	if err := os.WriteFile(path, []byte(strings.Repeat("a", 3<<19)), 0o644); err != nil {
		t.Fatalf("unexpected error creating the file: %v", err)
	}

	payload := dispatchJSON(t, r, "read_file_content", map[string]any{
		"file_path":   path,
		"max_size_mb": 1,
	})
	assertStatus(t, payload, "error", "file too large (1.5MB > 1MB)")
}

// ---------- directories and deletion ----------

func TestCreateDirectory(t *testing.T) {
	r := newFileRegistry(t)
	path := filepath.Join(t.TempDir(), "a", "b", "c")

	payload := dispatchJSON(t, r, "create_directory", map[string]any{"dir_path": path})
	assertStatus(t, payload, "ok", "directory created")

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("unexpected error on Stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected a directory on disk")
	}
}

func TestDeleteFile(t *testing.T) {
	r := newFileRegistry(t)
	path := filepath.Join(t.TempDir(), "gone.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("unexpected error creating the file: %v", err)
	}

	payload := dispatchJSON(t, r, "delete_file", map[string]any{"file_path": path})
	assertStatus(t, payload, "ok", "file deleted")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected the file to be gone, stat returned %v", err)
	}

	payload = dispatchJSON(t, r, "delete_file", map[string]any{"file_path": path})
	assertStatus(t, payload, "error", "file does not exist")
}

func TestDeleteDirectory(t *testing.T) {
	r := newFileRegistry(t)
	base := t.TempDir()

	empty := filepath.Join(base, "empty")
	if err := os.Mkdir(empty, 0o755); err != nil {
		t.Fatalf("unexpected error creating the directory: %v", err)
	}
	payload := dispatchJSON(t, r, "delete_file", map[string]any{"file_path": empty})
	assertStatus(t, payload, "ok", "directory deleted")

	full := filepath.Join(base, "full")
	if err := os.Mkdir(full, 0o755); err != nil {
		t.Fatalf("unexpected error creating the directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(full, "keep.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("unexpected error creating the file: %v", err)
	}
	payload = dispatchJSON(t, r, "delete_file", map[string]any{"file_path": full})
	assertStatus(t, payload, "error", "directory is not empty")
	if _, err := os.Stat(full); err != nil {
		t.Errorf("expected the non-empty directory to survive: %v", err)
	}
}
