package recipe

import (
	"fmt"
	"strings"
)

// Compiler identifies a compiler family.
type Compiler string

// Known compiler families.
const (
	CompilerMSVC       Compiler = "msvc"
	CompilerGCC        Compiler = "gcc"
	CompilerClang      Compiler = "clang"
	CompilerAppleClang Compiler = "apple-clang"
)

// StandardLibrary identifies the C++ standard library implementation.
type StandardLibrary string

// Known standard libraries. The empty value means "not applicable"
// (msvc has no selectable standard library).
const (
	LibStdCxx   StandardLibrary = "libstdc++"
	LibStdCxx11 StandardLibrary = "libstdc++11"
	LibCxx      StandardLibrary = "libc++"
)

// RuntimeLinkage selects the C/C++ runtime an msvc build links against.
type RuntimeLinkage string

// Runtime linkage modes. Only meaningful for CompilerMSVC.
const (
	RuntimeDynamicDebug   RuntimeLinkage = "dynamic-debug"
	RuntimeDynamicRelease RuntimeLinkage = "dynamic-release"
	RuntimeStaticDebug    RuntimeLinkage = "static-debug"
	RuntimeStaticRelease  RuntimeLinkage = "static-release"
)

// BuildType is the CMake build type.
type BuildType string

// Build types.
const (
	BuildTypeRelease BuildType = "Release"
	BuildTypeDebug   BuildType = "Debug"
)

// Platform constants
const (
	osWindows = "Windows"
	osLinux   = "Linux"
	osMacos   = "Macos"

	archX86    = "x86"
	archX86_64 = "x86_64"
	archArmv8  = "armv8"
)

// BuildConfiguration describes one candidate build of the packaged library.
//
// Values are compared and copied freely; nothing in this package mutates a
// configuration after construction.
type BuildConfiguration struct {
	OS              string          `toml:"os" yaml:"os" json:"os"`
	Arch            string          `toml:"arch" yaml:"arch" json:"arch"`
	Compiler        Compiler        `toml:"compiler" yaml:"compiler" json:"compiler"`
	CompilerVersion string          `toml:"compiler_version" yaml:"compiler_version" json:"compiler_version"`
	StandardLibrary StandardLibrary `toml:"standard_library" yaml:"standard_library" json:"standard_library,omitempty"`
	RuntimeLinkage  RuntimeLinkage  `toml:"runtime_linkage" yaml:"runtime_linkage" json:"runtime_linkage,omitempty"`
	BuildType       BuildType       `toml:"build_type" yaml:"build_type" json:"build_type"`
	Shared          bool            `toml:"shared" yaml:"shared" json:"shared"`
	FPIC            bool            `toml:"fpic" yaml:"fpic" json:"fpic"`
}

// String renders the configuration as a stable single line, e.g.
// "Linux/x86_64 gcc-9 libstdc++ Release static".
func (c BuildConfiguration) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%s %s-%s", c.OS, c.Arch, c.Compiler, c.CompilerVersion)
	if c.StandardLibrary != "" {
		fmt.Fprintf(&b, " %s", c.StandardLibrary)
	}
	if c.RuntimeLinkage != "" {
		fmt.Fprintf(&b, " %s", c.RuntimeLinkage)
	}
	fmt.Fprintf(&b, " %s", c.BuildType)
	if c.Shared {
		b.WriteString(" shared")
	} else {
		b.WriteString(" static")
	}
	return b.String()
}

var slugReplacer = strings.NewReplacer("/", "-", " ", "-", "+", "x")

// Slug is String() made safe for use as a directory name.
func (c BuildConfiguration) Slug() string {
	return slugReplacer.Replace(strings.ToLower(c.String()))
}

// ParseCompiler accepts the canonical names plus the conan spellings
// ("Visual Studio", "msvc", "apple-clang").
func ParseCompiler(s string) (Compiler, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "msvc", "visual studio", "vs":
		return CompilerMSVC, nil
	case "gcc":
		return CompilerGCC, nil
	case "clang":
		return CompilerClang, nil
	case "apple-clang", "apple clang":
		return CompilerAppleClang, nil
	}
	return "", fmt.Errorf("unknown compiler %q", s)
}

// ParseRuntimeLinkage accepts the canonical names and the MSVC flag
// spellings MD, MDd, MT and MTd.
func ParseRuntimeLinkage(s string) (RuntimeLinkage, error) {
	switch strings.TrimSpace(s) {
	case "MD", string(RuntimeDynamicRelease):
		return RuntimeDynamicRelease, nil
	case "MDd", string(RuntimeDynamicDebug):
		return RuntimeDynamicDebug, nil
	case "MT", string(RuntimeStaticRelease):
		return RuntimeStaticRelease, nil
	case "MTd", string(RuntimeStaticDebug):
		return RuntimeStaticDebug, nil
	case "":
		return "", nil
	}
	return "", fmt.Errorf("unknown runtime linkage %q", s)
}

// BuildResult contains the output and status of building one configuration.
type BuildResult struct {
	Configuration BuildConfiguration
	Success       bool     // True if build completed successfully
	Output        []string // Lines of output from cmake
	Artifacts     []string // Packaged files, relative to the package directory
	Libs          []string // Library names a consumer links against
	Error         error    // Error if build failed, nil otherwise
}
