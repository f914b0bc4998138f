package assets

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pierrec/lz4"
	"github.com/spaghettifunk/marmot/engine/core"
)

// CompressedExt marks a payload compressed with lz4. A request for "a.png"
// is served from "a.png.lz4" when only the compressed file exists.
const CompressedExt = ".lz4"

// FileSystem resolves asset paths against an ordered list of data
// directories.
type FileSystem struct {
	mutex sync.RWMutex
	dirs  []string
}

func NewFileSystem(dirs ...string) (*FileSystem, error) {
	fsys := &FileSystem{}
	for _, d := range dirs {
		if err := fsys.AddDirectory(d); err != nil {
			return nil, err
		}
	}
	return fsys, nil
}

// AddDirectory appends a data directory. The directory must exist.
func (fsys *FileSystem) AddDirectory(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("%w: data directory %q: %v", core.ErrBadParam, dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: data directory %q", core.ErrNotFound, dir)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %q is not a directory", core.ErrBadParam, dir)
	}

	fsys.mutex.Lock()
	defer fsys.mutex.Unlock()
	for _, d := range fsys.dirs {
		if d == abs {
			return fmt.Errorf("%w: data directory %q", core.ErrAlreadyExists, dir)
		}
	}
	fsys.dirs = append(fsys.dirs, abs)
	return nil
}

// RemoveDirectory drops a data directory from the search path.
func (fsys *FileSystem) RemoveDirectory(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("%w: data directory %q: %v", core.ErrBadParam, dir, err)
	}
	fsys.mutex.Lock()
	defer fsys.mutex.Unlock()
	for i, d := range fsys.dirs {
		if d == abs {
			fsys.dirs = append(fsys.dirs[:i], fsys.dirs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: data directory %q", core.ErrNotFound, dir)
}

// Directories returns the data directories in search order.
func (fsys *FileSystem) Directories() []string {
	fsys.mutex.RLock()
	defer fsys.mutex.RUnlock()
	out := make([]string, len(fsys.dirs))
	copy(out, fsys.dirs)
	return out
}

// Resolve finds path. Absolute paths are used as they are. Relative paths are
// tried against relativeTo, then every data directory in registration order.
// The working directory is never searched.
func (fsys *FileSystem) Resolve(path, relativeTo string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", core.ErrBadParam)
	}
	candidates := []string{}
	if filepath.IsAbs(path) {
		candidates = append(candidates, path)
	} else {
		if relativeTo != "" {
			candidates = append(candidates, filepath.Join(relativeTo, path))
		}
		for _, d := range fsys.Directories() {
			candidates = append(candidates, filepath.Join(d, path))
		}
	}
	for _, c := range candidates {
		if exists(c) || exists(c+CompressedExt) {
			return filepath.Clean(c), nil
		}
	}
	return "", fmt.Errorf("%w: %q", core.ErrNotFound, path)
}

// Open opens a resolved path. When only the lz4 compressed variant exists the
// returned reader decompresses it.
func (fsys *FileSystem) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	cf, cerr := os.Open(path + CompressedExt)
	if cerr != nil {
		return nil, fmt.Errorf("%w: %q", core.ErrNotFound, path)
	}
	return &compressedFile{Reader: lz4.NewReader(cf), file: cf}, nil
}

// ReadFile resolves and reads a whole file.
func (fsys *FileSystem) ReadFile(path, relativeTo string) ([]byte, error) {
	resolved, err := fsys.Resolve(path, relativeTo)
	if err != nil {
		return nil, err
	}
	f, err := fsys.Open(resolved)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

type compressedFile struct {
	*lz4.Reader
	file *os.File
}

func (c *compressedFile) Close() error {
	return c.file.Close()
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
