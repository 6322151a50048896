package recipe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/phuslu/log"
)

// Default working-tree layout.
const (
	DefaultSourceSubfolder = "source_subfolder"
	DefaultBuildSubfolder  = "build_subfolder"
)

// Recipe describes how to fetch, patch, build and package one upstream
// release.
type Recipe struct {
	Name        string
	Version     string
	Description string
	Homepage    string
	License     string
	Topics      []string
	Requires    []string

	// ArchiveURL is a format string taking the version.
	ArchiveURL string
	SHA256     string
	// ArchivePrefix is the top-level directory inside the archive.
	ArchivePrefix string

	SourceSubfolder string
	BuildSubfolder  string

	Patches []Patch
}

// QuantLib returns the recipe for QuantLib 1.15.
func QuantLib() *Recipe {
	const version = "1.15"
	return &Recipe{
		Name:            "quantlib",
		Version:         version,
		Description:     "The QuantLib C++ library",
		Homepage:        "https://github.com/lballabio/QuantLib",
		License:         "BSD-3-Clause",
		Topics:          []string{"cpp", "quantitative-finance", "finance"},
		Requires:        []string{"boost/1.67.0@conan/stable"},
		ArchiveURL:      "https://github.com/lballabio/QuantLib/archive/QuantLib-v%s.tar.gz",
		SHA256:          "c8d457e7605c443b3b60a010d8e3662676c2f77872e47a08cbc91c77064a7add",
		ArchivePrefix:   "QuantLib-QuantLib-v" + version,
		SourceSubfolder: DefaultSourceSubfolder,
		BuildSubfolder:  DefaultBuildSubfolder,
		Patches:         quantLibPatches(),
	}
}

// SourceURL returns the archive URL for r's version.
func (r *Recipe) SourceURL() string {
	return fmt.Sprintf(r.ArchiveURL, r.Version)
}

// SourceDir returns the patched source tree under workDir.
func (r *Recipe) SourceDir(workDir string) string {
	return filepath.Join(workDir, r.SourceSubfolder)
}

// PackageRules returns the copy rules that assemble a package from
// buildSubfolder, a slash-separated path relative to the working directory.
func (r *Recipe) PackageRules(buildSubfolder string) []CopyRule {
	return quantLibPackageRules(r.SourceSubfolder, buildSubfolder)
}

// Source downloads, extracts and patches the upstream sources into
// <workDir>/<SourceSubfolder>. An archive already present in workDir is
// reused when its checksum still matches.
func (r *Recipe) Source(ctx context.Context, workDir string, logger *log.Logger) error {
	if logger == nil {
		logger = nopLogger()
	}

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return err
	}

	archive := filepath.Join(workDir, fmt.Sprintf("%s-%s.tar.gz", r.Name, r.Version))
	if err := VerifyChecksum(archive, r.SHA256); err == nil {
		logger.Info().Str("archive", archive).Msg("reusing downloaded sources")
	} else {
		logger.Info().Str("url", r.SourceURL()).Str("dest", archive).Msg("downloading sources")
		if err := Download(ctx, r.SourceURL(), r.SHA256, archive); err != nil {
			return err
		}
	}

	extracted := filepath.Join(workDir, r.ArchivePrefix)
	if err := os.RemoveAll(extracted); err != nil {
		return err
	}
	if err := ExtractTarGz(archive, workDir); err != nil {
		return err
	}

	for _, patch := range r.Patches {
		logger.Debug().Str("file", patch.File).Str("reason", patch.Reason).Msg("applying patch")
		if err := patch.Apply(extracted); err != nil {
			return err
		}
	}

	sourceDir := r.SourceDir(workDir)
	if err := os.RemoveAll(sourceDir); err != nil {
		return err
	}
	if err := os.Rename(extracted, sourceDir); err != nil {
		return fmt.Errorf("failed to move sources into %s: %w", sourceDir, err)
	}

	logger.Info().Str("source", sourceDir).Int("patches", len(r.Patches)).Msg("sources ready")
	return nil
}

// PackageInfo describes what a consumer needs to link against a package.
type PackageInfo struct {
	Libs        []string `json:"libs"`
	IncludeDirs []string `json:"include_dirs"`
	LibDirs     []string `json:"lib_dirs"`
	BinDirs     []string `json:"bin_dirs"`
}

// PackageInfo returns consumer information for cfg.
func (r *Recipe) PackageInfo(cfg BuildConfiguration) (*PackageInfo, error) {
	lib, err := LibraryName(cfg)
	if err != nil {
		return nil, err
	}
	return &PackageInfo{
		Libs:        []string{lib},
		IncludeDirs: []string{"include"},
		LibDirs:     []string{"lib"},
		BinDirs:     []string{"bin"},
	}, nil
}
