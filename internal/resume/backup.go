package resume

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// backupStamp renders now as an ISO-8601 UTC instant with ':' and '.'
// replaced by '-', e.g. 2024-06-15T12-00-00-000Z.
func backupStamp(now time.Time) string {
	s := now.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(s)
}

// Backup copies dir to {backupDir}-{stamp} and then over {backupDir}, which
// always holds the most recent copy. It returns the stamped directory. An
// empty backupDir disables the backup.
func Backup(dir, backupDir string, now time.Time) (string, error) {
	if backupDir == "" {
		return "", nil
	}
	stamped := backupDir + "-" + backupStamp(now)
	if err := copyTree(dir, stamped); err != nil {
		return "", err
	}
	if err := copyTree(dir, backupDir); err != nil {
		return "", err
	}
	return stamped, nil
}

// copyTree copies every regular file under src into dst, creating
// directories as needed and overwriting existing files.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("resume: backup read %s: %w", rel, err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("resume: backup write %s: %w", rel, err)
		}
		return nil
	})
}
