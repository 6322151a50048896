package recipe

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// CopyRule copies files matching Pattern from Src into Dst.
//
// Src is relative to the directory passed to Copy, Dst to the package
// directory. A Pattern without a slash is matched against the base name,
// otherwise against the slash-separated path relative to Src. With KeepPath
// false every match lands directly in Dst.
type CopyRule struct {
	Pattern  string
	Src      string
	Dst      string
	KeepPath bool
}

// Copy applies the rule and returns the copied files relative to packageDir.
func (r CopyRule) Copy(fromDir, packageDir string) ([]string, error) {
	srcRoot := filepath.Join(fromDir, filepath.FromSlash(r.Src))
	if _, err := os.Stat(srcRoot); os.IsNotExist(err) {
		return nil, nil
	}

	var copied []string
	err := filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !r.matches(rel) {
			return nil
		}

		destRel := filepath.Base(rel)
		if r.KeepPath {
			destRel = rel
		}
		destRel = safeRelativePath(filepath.Join(filepath.FromSlash(r.Dst), filepath.FromSlash(destRel)))

		if err := copyFile(path, filepath.Join(packageDir, destRel)); err != nil {
			return fmt.Errorf("failed to copy %s: %w", rel, err)
		}
		copied = append(copied, filepath.ToSlash(destRel))
		return nil
	})
	if err != nil {
		return copied, err
	}
	return copied, nil
}

func (r CopyRule) matches(rel string) bool {
	name := rel
	if !strings.Contains(r.Pattern, "/") {
		name = filepath.Base(rel)
	}
	matched, err := filepath.Match(r.Pattern, name)
	return err == nil && matched
}

// CopyAll applies rules in order and returns every copied file with
// duplicates removed.
func CopyAll(rules []CopyRule, fromDir, packageDir string) ([]string, error) {
	var all []string
	for _, rule := range rules {
		copied, err := rule.Copy(fromDir, packageDir)
		all = append(all, copied...)
		if err != nil {
			return lo.Uniq(all), err
		}
	}
	return lo.Uniq(all), nil
}

// quantLibPackageRules assembles headers, libraries and the license.
// Only header files are taken from ql, not the sources and CMake files next
// to them. Library rules search the configuration's build tree and flatten.
func quantLibPackageRules(sourceSubfolder, buildSubfolder string) []CopyRule {
	return []CopyRule{
		{Pattern: "LICENSE*", Src: sourceSubfolder, Dst: "licenses", KeepPath: false},
		{Pattern: "*.h*", Src: sourceSubfolder + "/ql", Dst: "include/ql", KeepPath: true},
		{Pattern: "*.dll", Src: buildSubfolder, Dst: "bin"},
		{Pattern: "*.lib", Src: buildSubfolder, Dst: "lib"},
		{Pattern: "*.a", Src: buildSubfolder, Dst: "lib"},
		{Pattern: "*.so*", Src: buildSubfolder, Dst: "lib"},
		{Pattern: "*.dylib", Src: buildSubfolder, Dst: "lib"},
	}
}

// copyFile copies src to dest, creating dest's directory and keeping
// src's permission bits.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func safeRelativePath(path string) string {
	clean := filepath.Clean(path)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return filepath.Base(path)
	}
	return clean
}
