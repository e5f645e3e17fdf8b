package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pdfvault/pdfvault-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// LocalStore keeps uploaded files on the local filesystem, one
// subdirectory per owner. Directory names are derived from the owner
// email, never the raw address, so reserved characters cannot leak
// into paths.
type LocalStore struct {
	baseDir string
	tempDir string
	logger  *logger.Logger
}

// NewLocalStore creates a LocalStore rooted at baseDir
func NewLocalStore(baseDir, tempDir string, log *logger.Logger) (*LocalStore, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}
	absTemp, err := filepath.Abs(tempDir)
	if err != nil {
		return nil, fmt.Errorf("resolve temp dir: %w", err)
	}

	if err := os.MkdirAll(absBase, 0o755); err != nil {
		return nil, fmt.Errorf("create base dir: %w", err)
	}
	if err := os.MkdirAll(absTemp, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	return &LocalStore{
		baseDir: absBase,
		tempDir: absTemp,
		logger:  log,
	}, nil
}

// ownerDirName derives a stable directory name from the owner email
func ownerDirName(owner string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(owner)))
	return hex.EncodeToString(sum[:])[:16]
}

// OwnerDir returns the absolute directory for an owner's files
func (s *LocalStore) OwnerDir(owner string) string {
	return filepath.Join(s.baseDir, ownerDirName(owner))
}

// PathFor returns the absolute final path for a file in the owner's namespace
func (s *LocalStore) PathFor(owner, filename string) string {
	return filepath.Join(s.OwnerDir(owner), filename)
}

// TempDir returns the directory for in-flight uploads
func (s *LocalStore) TempDir() string {
	return s.tempDir
}

// EnsureOwnerDir creates the owner's directory if missing
func (s *LocalStore) EnsureOwnerDir(owner string) error {
	return os.MkdirAll(s.OwnerDir(owner), 0o755)
}

// Exists reports whether path resolves to an existing regular file
func (s *LocalStore) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Relocate moves src to dst. It prefers a single rename and falls back
// to copy+remove when src and dst live on different filesystems. The
// source never survives next to a complete destination.
func (s *LocalStore) Relocate(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create destination dir: %w", err)
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	} else if !isCrossDevice(err) {
		return fmt.Errorf("rename %s: %w", filepath.Base(dst), err)
	}

	return s.copyFallback(src, dst)
}

// copyFallback moves src to dst across filesystem boundaries. A failed
// copy removes the partial destination so a retry starts clean.
func (s *LocalStore) copyFallback(src, dst string) error {
	if err := s.copyFile(src, dst); err != nil {
		os.Remove(dst)
		return fmt.Errorf("copy %s: %w", filepath.Base(dst), err)
	}

	if err := os.Remove(src); err != nil {
		s.logger.Warn("failed to remove source after copy",
			zap.String("src", src),
			zap.Error(err))
	}
	return nil
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return false
	}
	return errors.Is(linkErr.Err, syscall.EXDEV)
}

// Remove deletes a stored file. Missing files are not an error.
func (s *LocalStore) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// RemoveOwnerDir deletes an owner's entire directory tree
func (s *LocalStore) RemoveOwnerDir(owner string) error {
	return os.RemoveAll(s.OwnerDir(owner))
}

func (s *LocalStore) copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
