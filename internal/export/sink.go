package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrDownloadUnsupported is returned by sinks that cannot deliver files in
// the current environment.
var ErrDownloadUnsupported = errors.New("当前环境不支持文件下载功能")

// Sink delivers a finished calendar file.
type Sink interface {
	Deliver(ctx context.Context, filename string, content []byte) error
}

// DirSink writes files into Dir. A file appears complete or not at all.
type DirSink struct {
	Dir string
}

func (s DirSink) Deliver(ctx context.Context, filename string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	return atomicWriteFile(filepath.Join(dir, filename), content, 0o644)
}

// WriterSink copies the file content to W, e.g. stdout.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Deliver(ctx context.Context, _ string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.W.Write(content)
	return err
}

// UnsupportedSink always fails with ErrDownloadUnsupported.
type UnsupportedSink struct{}

func (UnsupportedSink) Deliver(context.Context, string, []byte) error {
	return ErrDownloadUnsupported
}

// Filename derives the export filename from a plan title. Path separators
// and characters that are invalid on common filesystems become underscores.
func Filename(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "goal"
	}
	return name + "_学习计划.ics"
}

func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	// Temp file in the same directory so the rename is atomic
	tmp, err := os.CreateTemp(dir, fmt.Sprintf(".%s.*", filepath.Base(path)))
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanupTmp := true

	defer func() {
		_ = tmp.Close()
		if cleanupTmp {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file into place: %w", err)
	}
	cleanupTmp = false

	// Windows can't fsync a directory
	if runtime.GOOS != "windows" {
		if err := fsyncDir(dir); err != nil {
			return fmt.Errorf("fsync export directory: %w", err)
		}
	}
	return nil
}

func fsyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
