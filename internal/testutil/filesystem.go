package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mdx-go/internal/mdx"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	IsDirectory bool
}

// MockFilesystemManager is an in-memory filesystem for testing.
type MockFilesystemManager struct {
	files map[string]*MockFile
}

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files: make(map[string]*MockFile),
	}
}

// AddFile adds a file to the mock filesystem.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.files[path] = &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     time.Now(),
		IsDirectory: false,
	}
}

// SetContent replaces a file's content and bumps its mtime, simulating an
// external tool mutating the file.
func (m *MockFilesystemManager) SetContent(path string, content []byte) {
	file, ok := m.files[path]
	if !ok {
		m.AddFile(path, content)
		return
	}
	file.Content = content
	file.ModTime = file.ModTime.Add(time.Second)
}

// RemoveFile deletes a file, simulating a file disappearing mid-batch.
func (m *MockFilesystemManager) RemoveFile(path string) {
	delete(m.files, path)
}

// AddDirectory adds a directory to the mock filesystem.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.files[path] = &MockFile{
		Permissions: 0755,
		ModTime:     time.Now(),
		IsDirectory: true,
	}
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*mdx.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, err
	}

	file, ok := m.files[absPath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", absPath)
	}

	return mdx.NewPath(absPath, file.IsDirectory, m.infoFor(absPath, file)), nil
}

func (m *MockFilesystemManager) Open(path *mdx.Path) (io.ReadCloser, error) {
	file, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path.String())
	}
	if file.IsDirectory {
		return nil, fmt.Errorf("cannot open directory: %s", path.String())
	}
	return io.NopCloser(bytes.NewReader(file.Content)), nil
}

func (m *MockFilesystemManager) Stat(path *mdx.Path) (fs.FileInfo, error) {
	file, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path.String())
	}
	return m.infoFor(path.String(), file), nil
}

// FindFiles returns regular files under the root in lexical order,
// honoring the filter, depth limit and result limit.
func (m *MockFilesystemManager) FindFiles(path *mdx.Path, opts mdx.WalkOptions) ([]*mdx.Path, error) {
	root := path.String()
	rootFile, ok := m.files[root]
	if !ok || !rootFile.IsDirectory {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}

	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	sort.Strings(names)

	prefix := root + string(filepath.Separator)
	var paths []*mdx.Path
	for _, name := range names {
		file := m.files[name]
		if file.IsDirectory || !strings.HasPrefix(name, prefix) {
			continue
		}
		if opts.MaxDepth > 0 {
			rel := strings.TrimPrefix(name, prefix)
			if strings.Count(rel, string(filepath.Separator))+1 > opts.MaxDepth {
				continue
			}
		}
		if !opts.Filter.Match(name) {
			continue
		}
		paths = append(paths, mdx.NewPath(name, false, m.infoFor(name, file)))
		if opts.Limit > 0 && len(paths) >= opts.Limit {
			break
		}
	}
	return paths, nil
}

func (m *MockFilesystemManager) infoFor(path string, file *MockFile) fs.FileInfo {
	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(file.Content)),
		mode:    file.Permissions,
		modTime: file.ModTime,
		isDir:   file.IsDirectory,
	}
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

// Compile-time check
var _ mdx.FilesystemManager = (*MockFilesystemManager)(nil)
