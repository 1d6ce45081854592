// Package fsutil provides the filesystem helpers the sort pipeline needs:
// sizes, existence checks, directory creation, and a move that survives
// filesystem boundaries.
package fsutil

import (
	"io"
	"os"

	"github.com/karrick/godirwalk"
)

// FileSize returns the size of the file at path in bytes.
func FileSize(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// Exists reports whether a filesystem entry exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDir creates the directory at path, along with any missing parents.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// Move renames src to dst. When the rename fails because src and dst live
// on different filesystems, the file is copied and the source removed.
func Move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	if cerr := copyFile(src, dst); cerr != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// TreeSize walks the directory rooted at path and returns the total size of
// the regular files below it.
func TreeSize(path string) (int64, error) {
	var total int64

	err := godirwalk.Walk(path, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsRegular() {
				fi, err := os.Stat(osPathname)
				if err != nil {
					return err
				}
				total += fi.Size()
			}
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
