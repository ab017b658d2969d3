// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package archive creates, verifies and restores tar.gz snapshots of a
// gateway configuration directory.
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/logging"
	"github.com/clawmacdo/clawmacdo/internal/model"
)

const (
	// ConfigPrefix is the top-level directory of the config tree inside an archive.
	ConfigPrefix = "openclaw"
	// LaunchAgentEntry is where a macOS LaunchAgent plist is stored.
	LaunchAgentEntry = "launchagent/ai.openclaw.gateway.plist"

	// BackupPrefix names archives made from the local machine.
	BackupPrefix = "openclaw_backup"
	// MigratePrefix names archives pulled from a source droplet.
	MigratePrefix = "openclaw_migrate"

	ext        = ".tar.gz"
	timeLayout = "20060102_150405"
)

// Service owns the archives in one backups directory.
type Service struct {
	dir string
	now func() time.Time
}

// NewService returns a Service for dir.
func NewService(dir string) *Service {
	return &Service{dir: dir, now: time.Now}
}

// Dir is the backups directory.
func (s *Service) Dir() string { return s.dir }

// NewPath returns a fresh timestamped archive path in the backups dir.
func (s *Service) NewPath(prefix string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s%s", prefix, s.now().Format(timeLayout), ext))
}

// Extra is a single file stored at a fixed archive path.
type Extra struct {
	Name string // slash separated archive path
	Path string // local file
}

// Create archives srcDir under ConfigPrefix plus any extras that exist.
func (s *Service) Create(srcDir string, extras ...Extra) (model.BackupArchive, error) {
	st, err := os.Stat(srcDir)
	if err != nil || !st.IsDir() {
		return model.BackupArchive{}, &apperr.ArchiveError{Path: srcDir, Kind: apperr.ArchiveMissing, Err: err}
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return model.BackupArchive{}, fmt.Errorf("create backups directory: %w", err)
	}

	dst := s.NewPath(BackupPrefix)
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return model.BackupArchive{}, fmt.Errorf("create archive: %w", err)
	}

	files, werr := writeArchive(f, srcDir, extras)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil && files == 0 {
		werr = &apperr.ArchiveError{Path: srcDir, Kind: apperr.ArchiveEmpty}
	}
	if werr != nil {
		_ = os.Remove(dst)
		return model.BackupArchive{}, werr
	}

	info, err := os.Stat(dst)
	if err != nil {
		return model.BackupArchive{}, err
	}
	return model.BackupArchive{Path: dst, CreatedAt: info.ModTime(), Size: info.Size(), Files: files}, nil
}

func writeArchive(w io.Writer, srcDir string, extras []Extra) (int, error) {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	files := 0

	err := filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		name := ConfigPrefix
		if rel != "." {
			name = path.Join(ConfigPrefix, filepath.ToSlash(rel))
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			logging.Debugf("archive: skipping non-regular file %s", p)
			return nil
		}
		if err := addEntry(tw, p, name, info); err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			files++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("archive %s: %w", srcDir, err)
	}

	for _, e := range extras {
		info, err := os.Stat(e.Path)
		if err != nil {
			logging.Debugf("archive: extra %s not present, skipping", e.Path)
			continue
		}
		if err := addEntry(tw, e.Path, e.Name, info); err != nil {
			return 0, err
		}
		files++
	}

	if err := tw.Close(); err != nil {
		return 0, err
	}
	return files, gz.Close()
}

func addEntry(tw *tar.Writer, local, name string, info fs.FileInfo) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	f, err := os.Open(local)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}

// Verify reads an archive end to end and reports its metadata.
func (s *Service) Verify(p string) (model.BackupArchive, error) {
	info, err := os.Stat(p)
	if err != nil {
		return model.BackupArchive{}, &apperr.ArchiveError{Path: p, Kind: apperr.ArchiveMissing, Err: err}
	}
	if info.Size() == 0 {
		return model.BackupArchive{}, &apperr.ArchiveError{Path: p, Kind: apperr.ArchiveEmpty}
	}
	files := 0
	err = walk(p, func(hdr *tar.Header, r io.Reader) error {
		if hdr.Typeflag != tar.TypeReg {
			return nil
		}
		files++
		if _, err := io.Copy(io.Discard, r); err != nil {
			return &apperr.ArchiveError{Path: p, Kind: apperr.ArchiveCorrupt, Err: err}
		}
		return nil
	})
	if err != nil {
		return model.BackupArchive{}, err
	}
	if files == 0 {
		return model.BackupArchive{}, &apperr.ArchiveError{Path: p, Kind: apperr.ArchiveEmpty}
	}
	return model.BackupArchive{Path: p, CreatedAt: info.ModTime(), Size: info.Size(), Files: files}, nil
}

// Extract restores every entry of the archive below dest.
func (s *Service) Extract(p, dest string) error {
	return s.ExtractPrefix(p, "", dest)
}

// ExtractPrefix restores only the entries under prefix, with the prefix
// stripped. File modes are preserved; entries escaping dest are rejected.
func (s *Service) ExtractPrefix(p, prefix, dest string) error {
	if _, err := os.Stat(p); err != nil {
		return &apperr.ArchiveError{Path: p, Kind: apperr.ArchiveMissing, Err: err}
	}
	if err := os.MkdirAll(dest, 0o700); err != nil {
		return err
	}
	root, err := filepath.Abs(dest)
	if err != nil {
		return err
	}
	prefix = strings.Trim(prefix, "/")

	return walk(p, func(hdr *tar.Header, r io.Reader) error {
		name := strings.TrimPrefix(path.Clean("/"+hdr.Name), "/")
		if prefix != "" {
			if name != prefix && !strings.HasPrefix(name, prefix+"/") {
				return nil
			}
			name = strings.TrimPrefix(strings.TrimPrefix(name, prefix), "/")
		}
		target := filepath.Join(root, filepath.FromSlash(name))
		if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
			return &apperr.ArchiveError{Path: p, Kind: apperr.ArchiveCorrupt, Err: fmt.Errorf("entry %q escapes destination", hdr.Name)}
		}
		mode := hdr.FileInfo().Mode().Perm()

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o700); err != nil {
				return err
			}
			return os.Chmod(target, mode|0o700)
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, r); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			// OpenFile applies the umask; set the recorded mode explicitly.
			return os.Chmod(target, mode)
		default:
			logging.Debugf("archive: skipping entry %s of type %c", hdr.Name, hdr.Typeflag)
			return nil
		}
	})
}

func walk(p string, fn func(*tar.Header, io.Reader) error) error {
	f, err := os.Open(p)
	if err != nil {
		return &apperr.ArchiveError{Path: p, Kind: apperr.ArchiveMissing, Err: err}
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return &apperr.ArchiveError{Path: p, Kind: apperr.ArchiveCorrupt, Err: err}
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &apperr.ArchiveError{Path: p, Kind: apperr.ArchiveCorrupt, Err: err}
		}
		if err := fn(hdr, tr); err != nil {
			var ae *apperr.ArchiveError
			if errors.As(err, &ae) {
				return err
			}
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, gzip.ErrChecksum) {
				return &apperr.ArchiveError{Path: p, Kind: apperr.ArchiveCorrupt, Err: err}
			}
			return err
		}
	}
}

// List returns the archives in the backups directory, newest first. A
// missing directory is an empty list.
func (s *Service) List() ([]model.BackupArchive, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backups directory: %w", err)
	}
	var out []model.BackupArchive
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, model.BackupArchive{
			Path:      filepath.Join(s.dir, e.Name()),
			CreatedAt: info.ModTime(),
			Size:      info.Size(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Path > out[j].Path
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
