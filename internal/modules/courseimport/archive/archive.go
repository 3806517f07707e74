package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yungbote/neurobridge-coursepack/internal/domain/aggregates"
)

// Limits bounds what a single upload may expand to.
type Limits struct {
	MaxFiles int
	MaxBytes int64
}

var DefaultLimits = Limits{
	MaxFiles: 20000,
	MaxBytes: 2 << 30,
}

// Entries ignored when checking the top-level layout.
var ignoredTopLevel = map[string]struct{}{
	"__MACOSX":  {},
	".DS_Store": {},
}

// Extract unpacks zipPath into dest. Entries that would land outside dest
// are rejected.
func Extract(zipPath, dest string, lim Limits) error {
	if lim.MaxFiles <= 0 {
		lim.MaxFiles = DefaultLimits.MaxFiles
	}
	if lim.MaxBytes <= 0 {
		lim.MaxBytes = DefaultLimits.MaxBytes
	}
	reader, err := zip.OpenReader(zipPath)
	if errors.Is(err, zip.ErrInsecurePath) {
		if reader != nil {
			_ = reader.Close()
		}
		return layoutErr("archive contains paths outside the course directory")
	}
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer reader.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	var (
		files   int
		totalSz int64
	)
	for _, f := range reader.File {
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		files++
		if files > lim.MaxFiles {
			return fmt.Errorf("archive exceeds max files (%d)", lim.MaxFiles)
		}
		totalSz += int64(f.UncompressedSize64)
		if totalSz > lim.MaxBytes {
			return fmt.Errorf("archive exceeds max size (%d bytes)", lim.MaxBytes)
		}
		if err := writeEntry(f, target); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func writeEntry(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func safeJoin(base, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSpace(name)))
	if clean == "." || clean == "" {
		return "", layoutErr(fmt.Sprintf("invalid archive path %q", name))
	}
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", layoutErr(fmt.Sprintf("absolute archive path %q", name))
	}
	target := filepath.Join(base, clean)
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", layoutErr(fmt.Sprintf("archive path %q escapes the extraction root", name))
	}
	return target, nil
}

// CourseDir returns the single top-level directory under root and its name.
func CourseDir(root string) (string, string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", "", err
	}
	var dirs, loose []string
	for _, e := range entries {
		if _, skip := ignoredTopLevel[e.Name()]; skip {
			continue
		}
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		} else {
			loose = append(loose, e.Name())
		}
	}
	switch {
	case len(dirs) == 0:
		return "", "", layoutErr("archive has no top-level directory")
	case len(dirs) > 1:
		sort.Strings(dirs)
		return "", "", layoutErr(fmt.Sprintf("archive has %d top-level directories (%s)", len(dirs), strings.Join(dirs, ", ")))
	case len(loose) > 0:
		return "", "", layoutErr(fmt.Sprintf("archive has files outside the course directory (%s)", strings.Join(loose, ", ")))
	}
	return filepath.Join(root, dirs[0]), dirs[0], nil
}

// Zip writes root/baseDir into outPath with entry names relative to root,
// so the archive's only top-level entry is baseDir.
func Zip(root, baseDir, outPath string) error {
	src := filepath.Join(root, baseDir)
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)

	walkErr := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if d.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(fi)
		if err != nil {
			return err
		}
		hdr.Name = name
		hdr.Method = zip.Deflate
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		return copyFile(w, path)
	})
	closeErr := zw.Close()
	fileErr := out.Close()
	if err := errors.Join(walkErr, closeErr, fileErr); err != nil {
		_ = os.Remove(outPath)
		return fmt.Errorf("zip %s: %w", baseDir, err)
	}
	return nil
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

func layoutErr(msg string) error {
	return aggregates.NewError(aggregates.CodeArchiveLayoutInvalid, "archive.extract", msg, nil)
}
