package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

var errTxDone = errors.New("transaction already committed")

// CopyOnWriteTx stages changes to the data directory in a full copy and
// swaps the copy into place on commit. Readers of the live directory never
// see a half-written changelog.
type CopyOnWriteTx struct {
	baseDir   string
	stageDir  string // <data>.tmp.<nanos>
	backupDir string // <data>.backup.<nanos>
	done      bool
}

// NewCopyOnWriteTx creates a transaction over baseDir.
func NewCopyOnWriteTx(baseDir string) *CopyOnWriteTx {
	stamp := time.Now().UnixNano()
	return &CopyOnWriteTx{
		baseDir:   baseDir,
		stageDir:  fmt.Sprintf("%s.tmp.%d", baseDir, stamp),
		backupDir: fmt.Sprintf("%s.backup.%d", baseDir, stamp),
	}
}

// Update runs fn inside a transaction over baseDir. The staged changes are
// committed when fn returns nil and discarded otherwise.
func Update(ctx context.Context, baseDir string, fn func(tx *CopyOnWriteTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := NewCopyOnWriteTx(baseDir)
	if err := tx.Begin(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Begin stages a copy of the data directory. A missing data directory
// stages an empty records layout.
func (tx *CopyOnWriteTx) Begin() error {
	_, err := os.Stat(tx.baseDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Join(tx.stageDir, recordsDir), 0755); err != nil {
			return fmt.Errorf("create staging layout: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("stat data directory: %w", err)
	}

	if err := copyTree(tx.baseDir, tx.stageDir); err != nil {
		_ = os.RemoveAll(tx.stageDir)
		return fmt.Errorf("stage data directory: %w", err)
	}
	return nil
}

// WriteFile writes content to relativePath inside the staging directory.
func (tx *CopyOnWriteTx) WriteFile(relativePath string, content []byte) error {
	if tx.done {
		return errTxDone
	}
	fullPath := filepath.Join(tx.stageDir, relativePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		return fmt.Errorf("write %s: %w", relativePath, err)
	}
	return nil
}

// ReadFile reads relativePath from the staging directory.
func (tx *CopyOnWriteTx) ReadFile(relativePath string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(tx.stageDir, relativePath))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", relativePath, err)
	}
	return data, nil
}

// Commit swaps the staging directory into place. The live directory is
// moved aside first and restored if the swap fails.
func (tx *CopyOnWriteTx) Commit() error {
	if tx.done {
		return errTxDone
	}

	if _, err := os.Stat(tx.baseDir); errors.Is(err, fs.ErrNotExist) {
		if err := os.Rename(tx.stageDir, tx.baseDir); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		tx.done = true
		return nil
	} else if err != nil {
		return fmt.Errorf("stat data directory: %w", err)
	}

	if err := os.Rename(tx.baseDir, tx.backupDir); err != nil {
		return fmt.Errorf("move data directory aside: %w", err)
	}
	if err := os.Rename(tx.stageDir, tx.baseDir); err != nil {
		if restoreErr := os.Rename(tx.backupDir, tx.baseDir); restoreErr != nil {
			return fmt.Errorf("swap failed: %w (restore: %v)", err, restoreErr)
		}
		return fmt.Errorf("swap failed, data directory restored: %w", err)
	}
	_ = os.RemoveAll(tx.backupDir)
	tx.done = true
	return nil
}

// Rollback discards the staging directory.
func (tx *CopyOnWriteTx) Rollback() error {
	if tx.done {
		return errors.New("cannot roll back a committed transaction")
	}
	if err := os.RemoveAll(tx.stageDir); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// TempDir returns the staging directory.
func (tx *CopyOnWriteTx) TempDir() string {
	return tx.stageDir
}

// copyTree copies the regular files and directories under src to dst.
// Files are copied rather than linked so staged writes stay private.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return copyFile(path, target, info.Mode().Perm())
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
