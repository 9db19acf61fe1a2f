package common

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// rotatingFile is an append-only log file that rotates itself once it grows
// past maxSize. Rotated files are gzipped next to it and only the newest
// maxBackups are kept. It is not safe for concurrent use; AppLogger
// serializes writes.
type rotatingFile struct {
	path       string
	maxSize    int64
	maxBackups int

	file *os.File
	size int64
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}

func openRotatingFile(path string, maxSize int64, maxBackups int) (*rotatingFile, error) {
	dir := filepath.Dir(path)
	if isSymlink(dir) {
		return nil, fmt.Errorf("security error: log directory is a symlink")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	if isSymlink(path) {
		return nil, fmt.Errorf("security error: log file is a symlink")
	}

	r := &rotatingFile{path: path, maxSize: maxSize, maxBackups: maxBackups}
	if info, err := os.Stat(path); err == nil && info.Size() >= maxSize {
		r.rotate()
	}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *rotatingFile) open() error {
	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}
	r.file = file
	r.size = info.Size()
	return nil
}

func (r *rotatingFile) Write(p []byte) (int, error) {
	if r.size > 0 && r.size+int64(len(p)) > r.maxSize {
		r.rotate()
		if err := r.open(); err != nil {
			return 0, err
		}
	}
	if r.file == nil {
		return 0, os.ErrClosed
	}
	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// rotate closes the current file, compresses it and prunes old backups.
func (r *rotatingFile) rotate() {
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}

	base := fmt.Sprintf("%s.%s", r.path, time.Now().Format("20060102-150405"))
	rotated := base + ".gz"
	for i := 1; FileExists(rotated); i++ {
		rotated = fmt.Sprintf("%s-%d.gz", base, i)
	}
	if err := compressFile(r.path, rotated); err != nil {
		os.Remove(rotated)
		os.Rename(r.path, strings.TrimSuffix(rotated, ".gz"))
	} else {
		os.Remove(r.path)
	}
	r.size = 0

	pruneBackups(r.path, r.maxBackups)
}

func (r *rotatingFile) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func compressFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	gz := gzip.NewWriter(dstFile)
	if _, err := io.Copy(gz, srcFile); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

// pruneBackups keeps the newest keep rotated copies of path.
func pruneBackups(path string, keep int) {
	matches, err := filepath.Glob(path + ".*")
	if err != nil || len(matches) <= keep {
		return
	}

	modTime := func(p string) time.Time {
		info, err := os.Stat(p)
		if err != nil {
			return time.Time{}
		}
		return info.ModTime()
	}
	sort.Slice(matches, func(i, j int) bool {
		ti, tj := modTime(matches[i]), modTime(matches[j])
		if ti.Equal(tj) {
			return matches[i] < matches[j]
		}
		return ti.Before(tj)
	})

	for _, m := range matches[:len(matches)-keep] {
		os.Remove(m)
	}
}
