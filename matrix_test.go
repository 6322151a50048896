package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrderAndDefaults(t *testing.T) {
	spec := &MatrixSpec{
		OS:         osLinux,
		Archs:      []string{archX86_64},
		BuildTypes: []BuildType{BuildTypeRelease},
		Compilers: []CompilerAxis{
			{Compiler: CompilerGCC, Versions: []string{"8", "9"}, StandardLibraries: []StandardLibrary{LibStdCxx}},
		},
	}

	matrix := spec.Generate()
	require.Len(t, matrix, 4)

	assert.Equal(t, gnu(CompilerGCC, "8", LibStdCxx, false), matrix[0])
	assert.Equal(t, gnu(CompilerGCC, "8", LibStdCxx, true), matrix[1])
	assert.Equal(t, gnu(CompilerGCC, "9", LibStdCxx, false), matrix[2])
	assert.Equal(t, gnu(CompilerGCC, "9", LibStdCxx, true), matrix[3])
}

func TestGeneratePairsRuntimeWithBuildType(t *testing.T) {
	spec, err := DefaultMatrix("windows")
	require.NoError(t, err)

	matrix := spec.Generate()
	// 2 versions * 4 runtimes * 2 archs * 1 matching build type * 2 shared
	require.Len(t, matrix, 32)

	for _, cfg := range matrix {
		assert.False(t, cfg.FPIC, "fPIC is not an option on Windows")
		switch cfg.RuntimeLinkage {
		case RuntimeDynamicDebug, RuntimeStaticDebug:
			assert.Equal(t, BuildTypeDebug, cfg.BuildType, cfg.String())
		default:
			assert.Equal(t, BuildTypeRelease, cfg.BuildType, cfg.String())
		}
	}
}

func TestDefaultMatrixUnderPolicies(t *testing.T) {
	testCases := []struct {
		goos    string
		total   int
		legacy  int
		current int
	}{
		// gcc: 5 versions * 2 libs * 2 build types * 2 shared = 40
		// clang: 3 versions * 2 libs * 2 build types * 2 shared = 24
		{goos: "linux", total: 64, legacy: 60, current: 20},
		{goos: "windows", total: 32, legacy: 4, current: 4},
		{goos: "darwin", total: 16, legacy: 16, current: 8},
	}

	for _, tc := range testCases {
		t.Run(tc.goos, func(t *testing.T) {
			spec, err := DefaultMatrix(tc.goos)
			require.NoError(t, err)
			require.NoError(t, spec.Validate())

			matrix := spec.Generate()
			assert.Len(t, matrix, tc.total)
			assert.Len(t, LegacyPolicy().Filter().Reduce(matrix), tc.legacy)
			assert.Len(t, CurrentPolicy().Filter().Reduce(matrix), tc.current)
		})
	}
}

func TestDefaultMatrixUnknownPlatform(t *testing.T) {
	_, err := DefaultMatrix("plan9")
	assert.Error(t, err)
}

func TestLoadMatrix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.toml")
	content := `
os = "Linux"
archs = ["x86_64"]
build_types = ["Release"]
shared = [false]

[[compilers]]
compiler = "clang"
versions = ["8"]
standard_libraries = ["libstdc++", "libc++"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	spec, err := LoadMatrix(path)
	require.NoError(t, err)

	matrix := spec.Generate()
	require.Len(t, matrix, 2)
	assert.Equal(t, LibStdCxx, matrix[0].StandardLibrary)
	assert.Equal(t, LibCxx, matrix[1].StandardLibrary)

	kept := CurrentPolicy().Filter().Reduce(matrix)
	require.Len(t, kept, 1)
	assert.Equal(t, LibCxx, kept[0].StandardLibrary)
}

func TestLoadMatrixRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.yml")
	content := `
os: Windows
archs: [x86_64]
build_types: [RelWithDebInfo]
compilers:
  - compiler: msvc
    versions: ["15"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := LoadMatrix(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid matrix")
}

func TestConfigurationSlug(t *testing.T) {
	cfg := gnu(CompilerGCC, "9", LibStdCxx, false)
	assert.Equal(t, "Linux/x86_64 gcc-9 libstdc++ Release static", cfg.String())
	assert.Equal(t, "linux-x86_64-gcc-9-libstdcxx-release-static", cfg.Slug())

	assert.Equal(t, "windows-x86_64-msvc-15-dynamic-release-release-shared", msvc(true, RuntimeDynamicRelease).Slug())
}

func TestParseAliases(t *testing.T) {
	c, err := ParseCompiler("Visual Studio")
	require.NoError(t, err)
	assert.Equal(t, CompilerMSVC, c)

	_, err = ParseCompiler("icc")
	assert.Error(t, err)

	rt, err := ParseRuntimeLinkage("MDd")
	require.NoError(t, err)
	assert.Equal(t, RuntimeDynamicDebug, rt)

	rt, err = ParseRuntimeLinkage("MT")
	require.NoError(t, err)
	assert.Equal(t, RuntimeStaticRelease, rt)

	_, err = ParseRuntimeLinkage("MX")
	assert.Error(t, err)
}
