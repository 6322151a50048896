package recipe

import (
	"errors"
	"fmt"
)

// ErrUnsupportedCompilerVersion is returned when a compiler family needs a
// toolset identifier and the version has none.
var ErrUnsupportedCompilerVersion = errors.New("unsupported compiler version")

const libraryBaseName = "QuantLib"

type toolsetKey struct {
	compiler Compiler
	version  string
}

// toolsets maps compiler versions to the suffix QuantLib's CMake uses for
// the library name. Only msvc encodes a toolset.
var toolsets = map[toolsetKey]string{
	{CompilerMSVC, "15"}: "vc141",
	{CompilerMSVC, "14"}: "vc140",
	{CompilerMSVC, "13"}: "vc120",
	{CompilerMSVC, "12"}: "vc120",
	{CompilerMSVC, "11"}: "vc110",
	{CompilerMSVC, "10"}: "vc100",
}

// RequiresToolset reports whether artifacts built by compiler carry a
// toolset suffix.
func RequiresToolset(compiler Compiler) bool {
	return compiler == CompilerMSVC
}

// Toolset returns the toolset identifier for compiler at version.
//
// Families that don't encode a toolset return "" and no error. An msvc
// version missing from the table returns ErrUnsupportedCompilerVersion.
func Toolset(compiler Compiler, version string) (string, error) {
	if !RequiresToolset(compiler) {
		return "", nil
	}
	toolset, ok := toolsets[toolsetKey{compiler, version}]
	if !ok {
		return "", fmt.Errorf("%w: %s %s (Visual Studio 2010 or later is required)", ErrUnsupportedCompilerVersion, compiler, version)
	}
	return toolset, nil
}

// TargetName returns the CMake target that builds the library for cfg,
// e.g. "QuantLib-vc141-x64-mt" for msvc 15 on x86_64.
func TargetName(cfg BuildConfiguration) (string, error) {
	if !RequiresToolset(cfg.Compiler) {
		return libraryBaseName, nil
	}

	toolset, err := Toolset(cfg.Compiler, cfg.CompilerVersion)
	if err != nil {
		return "", err
	}

	platform := ""
	if cfg.Arch == archX86_64 {
		platform = "-x64"
	}
	return fmt.Sprintf("%s-%s%s-mt", libraryBaseName, toolset, platform), nil
}

// LibraryName returns the name consumers link against. Debug msvc builds
// carry a "-gd" suffix.
func LibraryName(cfg BuildConfiguration) (string, error) {
	target, err := TargetName(cfg)
	if err != nil {
		return "", err
	}
	if cfg.Compiler == CompilerMSVC && cfg.BuildType == BuildTypeDebug {
		return target + "-gd", nil
	}
	return target, nil
}
