// File: internal/security/file_ops.go
package security

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
)

// SecureFileDelete securely deletes a file by overwriting it multiple times
func SecureFileDelete(filePath string) error {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, nothing to delete
		}
		return fmt.Errorf("failed to stat file %s: %v", filePath, err)
	}

	fileSize := fileInfo.Size()
	if fileSize == 0 {
		return os.Remove(filePath)
	}

	file, err := os.OpenFile(filePath, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open file %s for overwriting: %v", filePath, err)
	}
	defer file.Close()

	// Overwrite file with random data multiple times
	const overwritePasses = 3
	buffer := make([]byte, min(4096, int(fileSize)))

	for pass := 0; pass < overwritePasses; pass++ {
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("failed to seek to beginning of file %s: %v", filePath, err)
		}

		remaining := fileSize
		for remaining > 0 {
			chunkSize := int64(len(buffer))
			if remaining < chunkSize {
				chunkSize = remaining
			}

			randomChunk := buffer[:chunkSize]
			if _, err := rand.Read(randomChunk); err != nil {
				return fmt.Errorf("could not get random data to securely delete file %s: %v", filePath, err)
			}

			if _, err := file.Write(randomChunk); err != nil {
				return fmt.Errorf("failed to overwrite file %s: %v", filePath, err)
			}

			remaining -= chunkSize
		}

		if err := file.Sync(); err != nil {
			return fmt.Errorf("failed to sync file %s: %v", filePath, err)
		}
	}

	file.Close()

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file %s: %v", filePath, err)
	}

	return nil
}

// SecureCreateTempFile creates a temporary file with secure permissions
func SecureCreateTempFile(pattern string, content []byte) (string, error) {
	tempFile, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %v", err)
	}

	filePath := tempFile.Name()

	// Tighten permissions before any sensitive content lands on disk.
	if err := tempFile.Chmod(0600); err != nil {
		tempFile.Close()
		os.Remove(filePath)
		return "", fmt.Errorf("failed to set secure permissions on temp file: %v", err)
	}

	if len(content) > 0 {
		if _, err := tempFile.Write(content); err != nil {
			tempFile.Close()
			os.Remove(filePath)
			return "", fmt.Errorf("failed to write to temp file: %v", err)
		}
	}

	if err := tempFile.Close(); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to close temp file: %v", err)
	}

	return filePath, nil
}
