package recipe

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrChecksumMismatch is returned when a downloaded archive does not hash to
// the expected SHA-256.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// httpClient is swapped out in tests.
var httpClient = http.DefaultClient

// Download fetches url into destPath and verifies its SHA-256.
//
// The file is written to a temporary name first and only renamed on
// success, so a failed download never leaves a partial archive behind.
func Download(ctx context.Context, url, sha256sum, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", url, err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), filepath.Base(destPath)+".part-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hasher), resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if sha256sum != "" {
		got := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(got, sha256sum) {
			return fmt.Errorf("%w for %s: expected %s, got %s", ErrChecksumMismatch, url, sha256sum, got)
		}
	}

	return os.Rename(tmpName, destPath)
}

// VerifyChecksum checks that the file at path hashes to sha256sum.
func VerifyChecksum(path, sha256sum string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return err
	}
	if got := hex.EncodeToString(hasher.Sum(nil)); !strings.EqualFold(got, sha256sum) {
		return fmt.Errorf("%w for %s: expected %s, got %s", ErrChecksumMismatch, path, sha256sum, got)
	}
	return nil
}

// ExtractTarGz unpacks a gzip-compressed tarball into destDir.
//
// Entries that would escape destDir are rejected, including paths reached
// through symlinks extracted earlier in the same archive. Only regular
// files, directories and symlinks pointing inside destDir are materialised.
func ExtractTarGz(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", archivePath, err)
	}
	defer gz.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	if root, err = filepath.EvalSymlinks(root); err != nil {
		return err
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", archivePath, err)
		}

		target, err := containedPath(root, hdr.Name)
		if err != nil {
			return err
		}
		if err := checkNoSymlinkParents(root, target, hdr.Name); err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeTarEntry(tr, target, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				return fmt.Errorf("archive entry %q links outside destination", hdr.Name)
			}
			if err := checkLinkTarget(root, filepath.Dir(target), hdr.Name, hdr.Linkname); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		}
	}
}

func containedPath(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if !isWithin(root, target) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return target, nil
}

func isWithin(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// checkNoSymlinkParents fails if any existing directory between root and
// target is a symlink. Entries are never written through a link.
func checkNoSymlinkParents(root, target, name string) error {
	rel, err := filepath.Rel(root, filepath.Dir(target))
	if err != nil || rel == "." {
		return err
	}

	dir := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		dir = filepath.Join(dir, part)
		info, err := os.Lstat(dir)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("archive entry %q is written through symlink %q", name, part)
		}
	}
	return nil
}

// checkLinkTarget walks linkname from linkDir one element at a time,
// following links already extracted, and fails if any step leaves root.
func checkLinkTarget(root, linkDir, name, linkname string) error {
	escaped := fmt.Errorf("archive entry %q links outside destination", name)

	current := linkDir
	for _, part := range strings.Split(filepath.FromSlash(linkname), string(filepath.Separator)) {
		switch part {
		case "", ".":
			continue
		case "..":
			current = filepath.Dir(current)
		default:
			current = filepath.Join(current, part)
			info, err := os.Lstat(current)
			if err == nil && info.Mode()&os.ModeSymlink != 0 {
				if current, err = filepath.EvalSymlinks(current); err != nil {
					return escaped
				}
			}
		}
		if !isWithin(root, current) {
			return escaped
		}
	}
	return nil
}

func writeTarEntry(r io.Reader, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
