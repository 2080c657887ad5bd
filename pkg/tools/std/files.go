// Package std предоставляет стандартные инструменты для демо-агента.
//
// Файловые инструменты работают внутри корневой директории и не дают
// модели выйти за её пределы.
package std

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ilkoid/poncho-toolcall/pkg/tools"
)

// ErrOutsideRoot - путь указывает за пределы корневой директории.
var ErrOutsideRoot = errors.New("path is outside of the workspace root")

// DefaultMaxReadBytes - сколько байт файла read_file возвращает по умолчанию.
const DefaultMaxReadBytes = 64 * 1024

// ErrNotText - содержимое не является текстом в UTF-8.
var ErrNotText = errors.New("content is not UTF-8 text")

// resolve превращает относительный путь модели в абсолютный путь внутри root.
// Симлинки раскрываются: ссылка внутри root на путь снаружи тоже ErrOutsideRoot.
func resolve(root, rel string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	full := filepath.Join(absRoot, filepath.Clean("/"+rel))
	if !within(absRoot, full) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}

	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	realFull, err := filepath.EvalSymlinks(full)
	if errors.Is(err, fs.ErrNotExist) {
		// несуществующий путь: ошибку вернёт open/readdir
		return full, nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if !within(realRoot, realFull) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}
	return realFull, nil
}

func within(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// textContent проверяет, что data - текст в UTF-8. У обрезанных данных
// недописанная последняя руна отбрасывается перед проверкой.
func textContent(data []byte, truncated bool) (string, error) {
	if truncated {
		for i := 0; i < utf8.UTFMax-1 && len(data) > 0 && !utf8.Valid(data); i++ {
			data = data[:len(data)-1]
		}
	}
	if !utf8.Valid(data) {
		return "", ErrNotText
	}
	out := string(data)
	if truncated {
		out += "\n[truncated]"
	}
	return out, nil
}

// --- Tool: list_dir ---

// ListDirTool - аналог ls внутри корневой директории.
type ListDirTool struct {
	root string
}

// NewListDirTool создаёт list_dir для директории root.
func NewListDirTool(root string) *ListDirTool {
	return &ListDirTool{root: root}
}

func (t *ListDirTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "list_dir",
		Description: "Lists files and directories at the given path inside the workspace. Directories end with '/'.",
		Parameters: tools.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Directory path relative to the workspace root. Empty for the root itself.",
				},
			},
			"required": []string{},
		},
	}
}

func (t *ListDirTool) Execute(ctx context.Context, args tools.Arguments) (string, error) {
	var a struct {
		Path string `json:"path"`
	}
	if err := args.Decode(&a); err != nil {
		return "", err
	}

	dir, err := resolve(t.root, a.Path)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	raw, err := json.Marshal(names)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// --- Tool: read_file ---

// ReadFileTool - аналог cat внутри корневой директории.
type ReadFileTool struct {
	root     string
	maxBytes int
}

// NewReadFileTool создаёт read_file. maxBytes <= 0 - DefaultMaxReadBytes.
func NewReadFileTool(root string, maxBytes int) *ReadFileTool {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxReadBytes
	}
	return &ReadFileTool{root: root, maxBytes: maxBytes}
}

func (t *ReadFileTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "read_file",
		Description: "Reads a text file inside the workspace. Long files are truncated.",
		Parameters: tools.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "File path relative to the workspace root.",
				},
			},
			"required": []string{"path"},
		},
	}
}

func (t *ReadFileTool) Execute(ctx context.Context, args tools.Arguments) (string, error) {
	var a struct {
		Path string `json:"path"`
	}
	if err := args.Decode(&a); err != nil {
		return "", err
	}
	if strings.TrimSpace(a.Path) == "" {
		return "", errors.New("path is required")
	}

	full, err := resolve(t.root, a.Path)
	if err != nil {
		return "", err
	}

	f, err := os.Open(full)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, t.maxBytes+1)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("read file: %w", err)
	}
	if n > t.maxBytes {
		return textContent(buf[:t.maxBytes], true)
	}
	return textContent(buf[:n], false)
}

