package recipe

import (
	"fmt"
	"strings"
)

// CompilerAxis lists the versions and library variants of one compiler
// family that a matrix should enumerate.
type CompilerAxis struct {
	Compiler          Compiler          `toml:"compiler" yaml:"compiler" validate:"required,oneof=msvc gcc clang apple-clang"`
	Versions          []string          `toml:"versions" yaml:"versions" validate:"required,min=1,dive,required"`
	StandardLibraries []StandardLibrary `toml:"standard_libraries" yaml:"standard_libraries"`
	Runtimes          []RuntimeLinkage  `toml:"runtimes" yaml:"runtimes" validate:"dive,oneof=dynamic-debug dynamic-release static-debug static-release"`
}

// MatrixSpec describes the axes of a build matrix for one platform.
type MatrixSpec struct {
	OS         string         `toml:"os" yaml:"os" validate:"required"`
	Archs      []string       `toml:"archs" yaml:"archs" validate:"required,min=1"`
	BuildTypes []BuildType    `toml:"build_types" yaml:"build_types" validate:"required,min=1,dive,oneof=Release Debug"`
	Shared     []bool         `toml:"shared" yaml:"shared"`
	Compilers  []CompilerAxis `toml:"compilers" yaml:"compilers" validate:"required,min=1,dive"`
}

// Generate enumerates every configuration described by m.
//
// Order is deterministic: compiler, version, standard library, runtime,
// arch, build type, shared. Debug runtimes are only paired with Debug
// builds and release runtimes with Release builds, matching how msvc
// matrices are normally assembled. An empty Shared axis means both values.
func (m *MatrixSpec) Generate() []BuildConfiguration {
	shared := m.Shared
	if len(shared) == 0 {
		shared = []bool{false, true}
	}
	fpic := m.OS != osWindows

	var matrix []BuildConfiguration
	for _, axis := range m.Compilers {
		libs := axis.StandardLibraries
		if len(libs) == 0 {
			libs = []StandardLibrary{""}
		}
		runtimes := axis.Runtimes
		if len(runtimes) == 0 {
			runtimes = []RuntimeLinkage{""}
		}

		for _, version := range axis.Versions {
			for _, lib := range libs {
				for _, runtime := range runtimes {
					for _, arch := range m.Archs {
						for _, buildType := range m.BuildTypes {
							if !runtimeMatchesBuildType(runtime, buildType) {
								continue
							}
							for _, s := range shared {
								matrix = append(matrix, BuildConfiguration{
									OS:              m.OS,
									Arch:            arch,
									Compiler:        axis.Compiler,
									CompilerVersion: version,
									StandardLibrary: lib,
									RuntimeLinkage:  runtime,
									BuildType:       buildType,
									Shared:          s,
									FPIC:            fpic,
								})
							}
						}
					}
				}
			}
		}
	}
	return matrix
}

func runtimeMatchesBuildType(runtime RuntimeLinkage, buildType BuildType) bool {
	switch runtime {
	case RuntimeDynamicDebug, RuntimeStaticDebug:
		return buildType == BuildTypeDebug
	case RuntimeDynamicRelease, RuntimeStaticRelease:
		return buildType == BuildTypeRelease
	}
	return true
}

// Validate checks structural constraints on m.
func (m *MatrixSpec) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("invalid matrix for %s: %w", m.OS, err)
	}
	return nil
}

// LoadMatrix reads and validates a matrix description from TOML or YAML.
func LoadMatrix(path string) (*MatrixSpec, error) {
	spec := &MatrixSpec{}
	if err := decodeFile(path, spec); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// DefaultMatrix returns the default axes for a Go GOOS value.
func DefaultMatrix(goos string) (*MatrixSpec, error) {
	buildTypes := []BuildType{BuildTypeRelease, BuildTypeDebug}

	switch strings.ToLower(goos) {
	case "linux":
		return &MatrixSpec{
			OS:         osLinux,
			Archs:      []string{archX86_64},
			BuildTypes: buildTypes,
			Compilers: []CompilerAxis{
				{
					Compiler:          CompilerGCC,
					Versions:          []string{"5", "6", "7", "8", "9"},
					StandardLibraries: []StandardLibrary{LibStdCxx, LibStdCxx11},
				},
				{
					Compiler:          CompilerClang,
					Versions:          []string{"7", "8", "9"},
					StandardLibraries: []StandardLibrary{LibStdCxx, LibCxx},
				},
			},
		}, nil
	case "darwin":
		return &MatrixSpec{
			OS:         osMacos,
			Archs:      []string{archX86_64, archArmv8},
			BuildTypes: buildTypes,
			Compilers: []CompilerAxis{
				{
					Compiler:          CompilerAppleClang,
					Versions:          []string{"10.0", "11.0"},
					StandardLibraries: []StandardLibrary{LibCxx},
				},
			},
		}, nil
	case "windows":
		return &MatrixSpec{
			OS:         osWindows,
			Archs:      []string{archX86, archX86_64},
			BuildTypes: buildTypes,
			Compilers: []CompilerAxis{
				{
					Compiler: CompilerMSVC,
					Versions: []string{"14", "15"},
					Runtimes: []RuntimeLinkage{RuntimeStaticRelease, RuntimeDynamicRelease, RuntimeStaticDebug, RuntimeDynamicDebug},
				},
			},
		}, nil
	}
	return nil, fmt.Errorf("no default build matrix for %s", goos)
}
