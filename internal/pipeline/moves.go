package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// moveFile moves src into dstDir, keeping the base name, and returns the
// destination path. Rename is the atomic ownership-transfer primitive; when
// it fails (typically a cross-device link), the file is copied to a hidden
// temp name and renamed into place, so a partial file is never visible under
// its final name.
func moveFile(src, dstDir string) (string, error) {
	dst := filepath.Join(dstDir, filepath.Base(src))

	if err := os.Rename(src, dst); err == nil {
		return dst, nil
	}

	if err := copyToTempAndRename(src, dst); err != nil {
		return "", fmt.Errorf("move %s: %w", filepath.Base(src), err)
	}
	if err := os.Remove(src); err != nil {
		return "", fmt.Errorf("remove source %s: %w", filepath.Base(src), err)
	}
	return dst, nil
}

func copyToTempAndRename(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
