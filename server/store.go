package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Kinds of stored files.
const (
	KindImage     = "images"
	KindRecording = "recordings"
)

// Store lays out captured images and recordings below a root
// directory. The SDK writes the files itself, so paths handed out by
// Store must be valid on the filesystem the SDK sees.
type Store struct {
	fs   afero.Fs
	root string
}

func NewStore(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: root}
}

// Prepare creates the directories for each kind.
func (s *Store) Prepare() error {
	for _, k := range []string{KindImage, KindRecording} {
		if err := s.fs.MkdirAll(filepath.Join(s.root, k), 0755); err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}
	return nil
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

// Path returns where a file of kind is stored.
func (s *Store) Path(kind, name string) string {
	return filepath.Join(s.root, kind, name)
}

// Exists reports whether a non-empty regular file is at path.
func (s *Store) Exists(path string) bool {
	fi, err := s.fs.Stat(path)
	return err == nil && fi.Mode().IsRegular() && fi.Size() > 0
}

// Open opens a stored file. Names with path elements are rejected as
// not found.
func (s *Store) Open(kind, name string) (afero.File, os.FileInfo, error) {
	if !validName(name) {
		return nil, nil, os.ErrNotExist
	}
	f, err := s.fs.Open(s.Path(kind, name))
	if err != nil {
		return nil, nil, err
	}
	fi, err := f.Stat()
	if err != nil || !fi.Mode().IsRegular() {
		f.Close()
		return nil, nil, os.ErrNotExist
	}
	return f, fi, nil
}
