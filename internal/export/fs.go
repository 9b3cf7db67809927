package export

import (
	"io"
	"io/fs"
	"os"
)

// FileSystem is the subset of filesystem operations the writer needs
type FileSystem interface {
	Stat(name string) (fs.FileInfo, error)
	Rename(oldpath, newpath string) error
	MkdirAll(path string, perm fs.FileMode) error
	Create(name string) (io.WriteCloser, error)
}

// OSFileSystem is a FileSystem backed by the os package
type OSFileSystem struct{}

func (OSFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (OSFileSystem) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (OSFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (OSFileSystem) Create(name string) (io.WriteCloser, error) {
	return os.Create(name)
}
