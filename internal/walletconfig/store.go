// File: internal/walletconfig/store.go
package walletconfig

import (
	"os"
	"path/filepath"

	"wallet.module/internal/errors"
)

// createSecureTempFile creates a temporary file with secure permissions (0600)
func createSecureTempFile(dir string) (*os.File, error) {
	tmpfile, err := os.CreateTemp(dir, "wallet-tmp-*")
	if err != nil {
		return nil, err
	}

	// Tighten permissions before any content lands on disk.
	if err := tmpfile.Chmod(0600); err != nil {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
		return nil, err
	}

	return tmpfile, nil
}

// Save writes the container to path atomically: content goes to a
// secure temp file in the same directory, which then replaces the
// target via rename. A .lock sentinel rejects concurrent saves.
func Save(w *WalletConfig, path string) error {
	data, err := w.Marshal()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.NewFileSystemError("mkdir", dir, err)
	}

	lockPath := path + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			return errors.NewFileSystemError("lock", path, err).
				WithDetails("wallet file is locked by another process")
		}
		return errors.NewFileSystemError("create", lockPath, err)
	}
	defer func() {
		lockFile.Close()
		os.Remove(lockPath)
	}()

	tmpfile, err := createSecureTempFile(dir)
	if err != nil {
		return errors.NewFileSystemError("create", dir, err).
			WithDetails("could not create temp file")
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write(data); err != nil {
		tmpfile.Close()
		return errors.NewFileSystemError("write", tmpfile.Name(), err)
	}
	if err := tmpfile.Sync(); err != nil {
		tmpfile.Close()
		return errors.NewFileSystemError("sync", tmpfile.Name(), err)
	}
	if err := tmpfile.Close(); err != nil {
		return errors.NewFileSystemError("close", tmpfile.Name(), err)
	}

	if err := os.Rename(tmpfile.Name(), path); err != nil {
		return errors.NewFileSystemError("rename", tmpfile.Name(), err).
			WithDetails("failed to atomically move wallet file")
	}

	if err := os.Chmod(path, 0600); err != nil {
		return errors.NewFileSystemError("chmod", path, err)
	}
	return nil
}

// Load reads a container from path.
func Load(path string) (*WalletConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FromOSError(err, path)
	}
	return Unmarshal(data)
}

// Exists reports whether a wallet file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
