package store

import (
	"fmt"
	"io"
	"os"
)

const BackupSuffix = ".backup"

// FS keeps pre-edit copies next to the documents it protects.
type FS struct{ Suffix string }

func New() *FS { return &FS{Suffix: BackupSuffix} }

func (s *FS) BackupPath(path string) string { return path + s.Suffix }

// Backup copies path to its backup sibling unless one already exists.
// It reports whether a copy was made.
func (s *FS) Backup(path string) (string, bool, error) {
	dst := s.BackupPath(path)
	if _, err := os.Lstat(dst); err == nil {
		return dst, false, nil
	} else if !os.IsNotExist(err) {
		return dst, false, err
	}
	if err := copyFile(path, dst); err != nil {
		return dst, false, fmt.Errorf("backup %s: %w", path, err)
	}
	return dst, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	fi, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Chtimes(dst, fi.ModTime(), fi.ModTime())
}
