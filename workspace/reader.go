package workspace

import (
	"errors"
	"io/fs"
	"os"
)

// FileReader reads workspace files from disk. Read reports found=false for
// a file that does not exist; callers treat that as empty content, since
// watcher notifications do not distinguish deleted files from changed ones.
type FileReader interface {
	Read(path string) (contents string, found bool, err error)
}

// DiskReader is the os-backed FileReader.
type DiskReader struct{}

func (DiskReader) Read(path string) (string, bool, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(d), true, nil
}
