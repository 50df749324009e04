package kaggle

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractCSVs extracts the CSV members of a zip archive into destDir and
// returns how many files were written. Directory structure inside the
// archive is flattened to base names, which also keeps traversal-crafted
// member names from escaping destDir. Non-CSV members are skipped.
func ExtractCSVs(zipPath, destDir string) (int, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() { _ = r.Close() }()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	count := 0
	for _, member := range r.File {
		if member.FileInfo().IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(member.Name), ".csv") {
			continue
		}
		if err := extractMember(member, destDir); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func extractMember(member *zip.File, destDir string) error {
	name := filepath.Base(member.Name)

	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive member %s: %w", member.Name, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(filepath.Join(destDir, name))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to extract %s: %w", name, err)
	}
	return dst.Close()
}
