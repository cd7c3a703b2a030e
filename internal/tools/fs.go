package tools

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Directories skipped when building directory trees.
var skippedDirs = map[string]bool{
	".git":         true,
	"__pycache__":  true,
	"node_modules": true,
}

type createTextFileArgs struct {
	FilePath string `json:"file_path" jsonschema:"description=Target file path; parent directories are created as needed"`
	Content  string `json:"content" jsonschema:"description=Text content to write"`
}

type createPythonFileArgs struct {
	FilePath string `json:"file_path" jsonschema:"description=Target file path; a .py suffix is added if missing"`
	Code     string `json:"code" jsonschema:"description=Python source code to write"`
}

type directoryStructureArgs struct {
	Root string `json:"root,omitempty" jsonschema:"description=Root directory to inspect,default=."`
}

type renameFileArgs struct {
	OldPath string `json:"old_path" jsonschema:"description=Existing file or directory path"`
	NewPath string `json:"new_path" jsonschema:"description=New path; parent directories are created as needed"`
}

type listFilesArgs struct {
	Directory string `json:"directory,omitempty" jsonschema:"description=Directory to list,default=."`
	Pattern   string `json:"pattern,omitempty" jsonschema:"description=Glob pattern matched against file names,default=*"`
	Recursive bool   `json:"recursive,omitempty" jsonschema:"description=Descend into subdirectories (default true)"`
}

type readFileContentArgs struct {
	FilePath  string `json:"file_path" jsonschema:"description=File to read"`
	MaxSizeMB int    `json:"max_size_mb,omitempty" jsonschema:"description=Reject files larger than this many megabytes (default 10)"`
}

type createDirectoryArgs struct {
	DirPath string `json:"dir_path" jsonschema:"description=Directory path to create; parents are created as needed"`
}

type deleteFileArgs struct {
	FilePath string `json:"file_path" jsonschema:"description=File or empty directory to delete"`
}

// RegisterFileTools adds the filesystem toolset to r.
func RegisterFileTools(r *Registry) error {
	return register(r, []registration{
		{
			name:        "create_text_file",
			description: "Create or overwrite a text file with UTF-8 content. Parent directories are created as needed.",
			schema:      ReflectSchema[createTextFileArgs],
			handler:     handleCreateTextFile,
		},
		{
			name:        "create_python_file",
			description: "Create or overwrite a Python file with UTF-8 code. A .py suffix is added when the path has a different one.",
			schema:      ReflectSchema[createPythonFileArgs],
			handler:     handleCreatePythonFile,
		},
		{
			name:        "get_directory_structure",
			description: "Return a JSON tree of the directory structure rooted at the given path. Noisy directories (.git, __pycache__, node_modules) are skipped.",
			schema:      ReflectSchema[directoryStructureArgs],
			handler:     handleDirectoryStructure,
		},
		{
			name:        "rename_file",
			description: "Rename or move a file or directory.",
			schema:      ReflectSchema[renameFileArgs],
			handler:     handleRenameFile,
		},
		{
			name:        "list_files",
			description: "List files in a directory with optional glob pattern matching, including size and modification time.",
			schema:      ReflectSchema[listFilesArgs],
			handler:     handleListFiles,
		},
		{
			name:        "read_file_content",
			description: "Read a file's content as UTF-8 text. Files above the size limit (default 10MB) are rejected.",
			schema:      ReflectSchema[readFileContentArgs],
			handler:     handleReadFileContent,
		},
		{
			name:        "create_directory",
			description: "Create a directory and all missing parent directories.",
			schema:      ReflectSchema[createDirectoryArgs],
			handler:     handleCreateDirectory,
		},
		{
			name:        "delete_file",
			description: "Delete a file or an empty directory. Non-empty directories are refused.",
			schema:      ReflectSchema[deleteFileArgs],
			handler:     handleDeleteFile,
		},
	})
}

func handleCreateTextFile(_ context.Context, args map[string]any) (string, error) {
	path := getStringArg(args, "file_path")
	content := getStringArg(args, "content")

	if err := writeFileWithParents(path, content); err != nil {
		return errorJSON("failed to write text file", map[string]any{"error": err.Error(), "path": path})
	}
	return okJSON("text file written", map[string]any{"path": absPath(path)})
}

func handleCreatePythonFile(_ context.Context, args map[string]any) (string, error) {
	path := getStringArg(args, "file_path")
	code := getStringArg(args, "code")

	if ext := filepath.Ext(path); ext != ".py" {
		path = strings.TrimSuffix(path, ext) + ".py"
	}
	if err := writeFileWithParents(path, code); err != nil {
		return errorJSON("failed to write python file", map[string]any{"error": err.Error(), "path": path})
	}
	return okJSON("python file written", map[string]any{"path": absPath(path)})
}

func handleDirectoryStructure(_ context.Context, args map[string]any) (string, error) {
	root := getStringArg(args, "root")
	if root == "" {
		root = "."
	}

	info, err := os.Stat(root)
	if err != nil {
		return errorJSON("root does not exist", map[string]any{"root": root})
	}
	tree, err := buildTree(root, info.IsDir())
	if err != nil {
		return errorJSON("failed to build structure", map[string]any{"error": err.Error(), "root": root})
	}
	return marshalResult(tree)
}

// buildTree walks the tree depth-first, directories before files, names
// compared case-insensitively.
func buildTree(path string, isDir bool) (map[string]any, error) {
	name := filepath.Base(path)
	if !isDir {
		return map[string]any{"type": "file", "name": name, "path": path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		di, dj := entries[i].IsDir(), entries[j].IsDir()
		if di != dj {
			return di
		}
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	children := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		if skippedDirs[entry.Name()] {
			continue
		}
		child, err := buildTree(filepath.Join(path, entry.Name()), entry.IsDir())
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return map[string]any{"type": "dir", "name": name, "path": path, "children": children}, nil
}

func handleRenameFile(_ context.Context, args map[string]any) (string, error) {
	oldPath := getStringArg(args, "old_path")
	newPath := getStringArg(args, "new_path")

	if dir := filepath.Dir(newPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errorJSON("failed to rename", map[string]any{"error": err.Error(), "src": oldPath, "dst": newPath})
		}
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return errorJSON("failed to rename", map[string]any{"error": err.Error(), "src": oldPath, "dst": newPath})
	}
	return okJSON("renamed", map[string]any{"src": oldPath, "dst": newPath})
}

func handleListFiles(_ context.Context, args map[string]any) (string, error) {
	dir := getStringArg(args, "directory")
	if dir == "" {
		dir = "."
	}
	pattern := getStringArg(args, "pattern")
	if pattern == "" {
		pattern = "*"
	}
	recursive := true
	if _, present := args["recursive"]; present {
		recursive = getBoolArg(args, "recursive")
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return errorJSON("directory does not exist", map[string]any{"directory": dir})
	}

	files, err := collectFiles(dir, pattern, recursive)
	if err != nil {
		return errorJSON("failed to list files", map[string]any{"error": err.Error(), "directory": dir})
	}
	return okJSON("files listed", map[string]any{"files": files, "count": len(files)})
}

func collectFiles(dir, pattern string, recursive bool) ([]map[string]any, error) {
	files := make([]map[string]any, 0)

	appendMatch := func(path string, name string) error {
		matched, err := filepath.Match(pattern, name)
		if err != nil {
			return fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if !matched {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		files = append(files, map[string]any{
			"name":       name,
			"path":       path,
			"size_bytes": info.Size(),
			"modified":   info.ModTime().Unix(),
			"extension":  filepath.Ext(name),
		})
		return nil
	}

	if recursive {
		err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				return nil
			}
			return appendMatch(path, entry.Name())
		})
		if err != nil {
			return nil, err
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if err := appendMatch(filepath.Join(dir, entry.Name()), entry.Name()); err != nil {
				return nil, err
			}
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i]["path"].(string) < files[j]["path"].(string)
	})
	return files, nil
}

func handleReadFileContent(_ context.Context, args map[string]any) (string, error) {
	path := getStringArg(args, "file_path")
	maxMB := getIntArg(args, "max_size_mb", 10)

	info, err := os.Stat(path)
	if err != nil {
		return errorJSON("file does not exist", map[string]any{"file_path": path})
	}
	if info.IsDir() {
		return errorJSON("path is not a file", map[string]any{"file_path": path})
	}

	sizeMB := float64(info.Size()) / (1 << 20)
	if sizeMB > float64(maxMB) {
		return errorJSON(fmt.Sprintf("file too large (%.1fMB > %dMB)", sizeMB, maxMB),
			map[string]any{"file_path": path})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errorJSON("failed to read file", map[string]any{"error": err.Error(), "file_path": path})
	}
	return okJSON("file read", map[string]any{
		"content": string(data),
		"size_mb": math.Round(sizeMB*100) / 100,
	})
}

func handleCreateDirectory(_ context.Context, args map[string]any) (string, error) {
	path := getStringArg(args, "dir_path")

	if err := os.MkdirAll(path, 0o755); err != nil {
		return errorJSON("failed to create directory", map[string]any{"error": err.Error(), "dir_path": path})
	}
	return okJSON("directory created", map[string]any{"path": absPath(path)})
}

func handleDeleteFile(_ context.Context, args map[string]any) (string, error) {
	path := getStringArg(args, "file_path")

	info, err := os.Stat(path)
	if err != nil {
		return errorJSON("file does not exist", map[string]any{"file_path": path})
	}

	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return errorJSON("failed to delete file", map[string]any{"error": err.Error(), "file_path": path})
		}
		if len(entries) > 0 {
			return errorJSON("directory is not empty", map[string]any{"file_path": path})
		}
		if err := os.Remove(path); err != nil {
			return errorJSON("failed to delete file", map[string]any{"error": err.Error(), "file_path": path})
		}
		return okJSON("directory deleted", map[string]any{"path": path})
	}

	if err := os.Remove(path); err != nil {
		return errorJSON("failed to delete file", map[string]any{"error": err.Error(), "file_path": path})
	}
	return okJSON("file deleted", map[string]any{"path": path})
}

func writeFileWithParents(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
