package recipe

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func TestCopyRuleFlattensWithoutKeepPath(t *testing.T) {
	work := t.TempDir()
	pkg := t.TempDir()

	buildDir := filepath.Join(work, "build")
	if err := os.MkdirAll(filepath.Join(buildDir, "ql", "Release"), 0o755); err != nil {
		t.Fatalf("failed to create build directory: %v", err)
	}
	for _, name := range []string{"ql/Release/libQuantLib.so.0.0.0", "ql/libQuantLib.so", "ql/object.o"} {
		if err := os.WriteFile(filepath.Join(buildDir, filepath.FromSlash(name)), []byte("binary"), 0o755); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	copied, err := CopyRule{Pattern: "*.so*", Src: "build", Dst: "lib"}.Copy(work, pkg)
	if err != nil {
		t.Fatalf("Copy returned error: %v", err)
	}

	sort.Strings(copied)
	expected := []string{"lib/libQuantLib.so", "lib/libQuantLib.so.0.0.0"}
	if !reflect.DeepEqual(copied, expected) {
		t.Fatalf("expected copied %v, got %v", expected, copied)
	}

	if _, err := os.Stat(filepath.Join(pkg, "lib", "object.o")); !os.IsNotExist(err) {
		t.Fatalf("object file should not be packaged")
	}

	info, err := os.Stat(filepath.Join(pkg, "lib", "libQuantLib.so"))
	if err != nil {
		t.Fatalf("expected library in package: %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Fatalf("expected file mode to be preserved, got %v", info.Mode().Perm())
	}
}

func TestCopyRuleKeepsPath(t *testing.T) {
	work := t.TempDir()
	pkg := t.TempDir()
	writeTree(t, work, map[string]string{
		"src/ql/quantlib.hpp":        "",
		"src/ql/time/date.hpp":       "",
		"src/ql/time/date.cpp":       "",
		"src/ql/experimental/fx.hpp": "",
	})

	copied, err := CopyRule{Pattern: "*.h*", Src: "src/ql", Dst: "include/ql", KeepPath: true}.Copy(work, pkg)
	if err != nil {
		t.Fatalf("Copy returned error: %v", err)
	}

	sort.Strings(copied)
	expected := []string{
		"include/ql/experimental/fx.hpp",
		"include/ql/quantlib.hpp",
		"include/ql/time/date.hpp",
	}
	if !reflect.DeepEqual(copied, expected) {
		t.Fatalf("expected copied %v, got %v", expected, copied)
	}
}

func TestCopyRuleMissingSourceIsEmpty(t *testing.T) {
	copied, err := CopyRule{Pattern: "*", Src: "missing", Dst: "lib"}.Copy(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("expected no error for missing source, got %v", err)
	}
	if len(copied) != 0 {
		t.Fatalf("expected nothing copied, got %v", copied)
	}
}

func TestCopyAllPackagesQuantLibLayout(t *testing.T) {
	work := t.TempDir()
	pkg := t.TempDir()
	writeTree(t, work, map[string]string{
		"source_subfolder/LICENSE.TXT":         "BSD",
		"source_subfolder/ql/quantlib.hpp":     "",
		"source_subfolder/ql/CMakeLists.txt":   "",
		"build_subfolder/cfg/ql/QuantLib.lib":  "",
		"build_subfolder/cfg/ql/QuantLib.dll":  "",
		"build_subfolder/cfg/ql/libQuantLib.a": "",
	})

	copied, err := CopyAll(quantLibPackageRules("source_subfolder", "build_subfolder/cfg"), work, pkg)
	if err != nil {
		t.Fatalf("CopyAll returned error: %v", err)
	}

	sort.Strings(copied)
	expected := []string{
		"bin/QuantLib.dll",
		"include/ql/quantlib.hpp",
		"lib/QuantLib.lib",
		"lib/libQuantLib.a",
		"licenses/LICENSE.TXT",
	}
	if !reflect.DeepEqual(copied, expected) {
		t.Fatalf("expected copied %v, got %v", expected, copied)
	}
}

func TestCopyAllReportsOverlappingRulesOnce(t *testing.T) {
	work := t.TempDir()
	pkg := t.TempDir()
	writeTree(t, work, map[string]string{"build/libQuantLib.so.0": "elf"})

	rules := []CopyRule{
		{Pattern: "*.so*", Src: "build", Dst: "lib"},
		{Pattern: "libQuantLib*", Src: "build", Dst: "lib"},
	}
	copied, err := CopyAll(rules, work, pkg)
	if err != nil {
		t.Fatalf("CopyAll returned error: %v", err)
	}
	if !reflect.DeepEqual(copied, []string{"lib/libQuantLib.so.0"}) {
		t.Fatalf("expected a single artifact, got %v", copied)
	}
}

func TestSafeRelativePath(t *testing.T) {
	testCases := map[string]string{
		"lib/libQuantLib.a": filepath.FromSlash("lib/libQuantLib.a"),
		"../escape.a":       "escape.a",
	}
	for input, expected := range testCases {
		if got := safeRelativePath(filepath.FromSlash(input)); got != expected {
			t.Errorf("safeRelativePath(%q) = %q, want %q", input, got, expected)
		}
	}
}
