package recipe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/phuslu/log"
)

// Build tool constants
const (
	unixMakefiles = "Unix Makefiles"
	cmakeProgram  = "cmake"
)

// runCommand executes name in dir and returns its combined output.
// Swapped out in tests.
var runCommand = func(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env
	return cmd.CombinedOutput()
}

// visualStudioGenerators maps msvc versions to CMake generator names.
var visualStudioGenerators = map[string]string{
	"15": "Visual Studio 15 2017",
	"14": "Visual Studio 14 2015",
	"13": "Visual Studio 12 2013",
	"12": "Visual Studio 12 2013",
	"11": "Visual Studio 11 2012",
	"10": "Visual Studio 10 2010",
}

// msvcRuntimeLibraries maps runtime linkage to CMAKE_MSVC_RUNTIME_LIBRARY.
var msvcRuntimeLibraries = map[RuntimeLinkage]string{
	RuntimeDynamicRelease: "MultiThreadedDLL",
	RuntimeDynamicDebug:   "MultiThreadedDebugDLL",
	RuntimeStaticRelease:  "MultiThreaded",
	RuntimeStaticDebug:    "MultiThreadedDebug",
}

// CMakeBuilder builds the recipe's sources with cmake, one build tree per
// configuration under <WorkDir>/<BuildSubfolder>/<slug>.
type CMakeBuilder struct {
	Recipe *Recipe
	Logger *log.Logger
}

// NewCMakeBuilder returns a builder for r. A nil logger discards output.
func NewCMakeBuilder(r *Recipe, logger *log.Logger) *CMakeBuilder {
	if logger == nil {
		logger = nopLogger()
	}
	return &CMakeBuilder{Recipe: r, Logger: logger}
}

// Name returns the builder name
func (b *CMakeBuilder) Name() string {
	return "CMake"
}

// RequiredTools implements ToolChecker.
func (b *CMakeBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{Name: cmakeProgram, Purpose: "CMake build system"},
		{Name: "ninja", Optional: true, Purpose: "Ninja generator"},
	}
}

// CheckTools implements ToolChecker.
func (b *CMakeBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// Build configures, compiles the library target and packages cfg.
func (b *CMakeBuilder) Build(ctx context.Context, opts *BuildOptions, cfg BuildConfiguration) (*BuildResult, error) {
	return runBuildSteps(ctx, opts, cfg, BuildSteps{
		ConfigureFunc: b.runCmake,
		BuildFunc:     b.runBuild,
		PackageFunc:   b.runPackage,
	})
}

// Clean removes the build tree for cfg.
func (b *CMakeBuilder) Clean(_ context.Context, opts *BuildOptions, cfg BuildConfiguration) error {
	return os.RemoveAll(b.buildDir(opts, cfg))
}

func (b *CMakeBuilder) buildDir(opts *BuildOptions, cfg BuildConfiguration) string {
	return filepath.Join(opts.WorkDir, b.Recipe.BuildSubfolder, cfg.Slug())
}

func (b *CMakeBuilder) packageDir(opts *BuildOptions, cfg BuildConfiguration) string {
	root := opts.PackageDir
	if root == "" {
		root = filepath.Join(opts.WorkDir, "package")
	}
	return filepath.Join(root, cfg.Slug())
}

// configureArgs returns the cmake configure command line for cfg.
func (b *CMakeBuilder) configureArgs(opts *BuildOptions, cfg BuildConfiguration) []string {
	sourceDir := filepath.Join(opts.WorkDir, b.Recipe.SourceSubfolder)

	args := []string{
		"-S", sourceDir,
		"-B", b.buildDir(opts, cfg),
		fmt.Sprintf("-DCMAKE_BUILD_TYPE=%s", cfg.BuildType),
		fmt.Sprintf("-DBUILD_SHARED_LIBS=%s", cmakeBool(cfg.Shared)),
		fmt.Sprintf("-DCMAKE_INSTALL_PREFIX=%s", b.packageDir(opts, cfg)),
	}

	if cfg.OS != osWindows {
		args = append(args, fmt.Sprintf("-DCMAKE_POSITION_INDEPENDENT_CODE=%s", cmakeBool(cfg.FPIC)))
	}

	if generator := b.generator(cfg); generator != "" {
		args = append(args, "-G", generator)
	}

	if cfg.Compiler == CompilerMSVC {
		platform := "Win32"
		if cfg.Arch == archX86_64 {
			platform = "x64"
		}
		args = append(args, "-A", platform)
		if rt, ok := msvcRuntimeLibraries[cfg.RuntimeLinkage]; ok {
			// The variable is ignored unless CMP0091 is NEW.
			args = append(args,
				"-DCMAKE_POLICY_DEFAULT_CMP0091=NEW",
				fmt.Sprintf("-DCMAKE_MSVC_RUNTIME_LIBRARY=%s", rt),
			)
		}
	}

	return append(args, opts.BuildArgs...)
}

// runCmake executes cmake to configure the build
func (b *CMakeBuilder) runCmake(ctx context.Context, opts *BuildOptions, cfg BuildConfiguration, result *BuildResult) error {
	if opts.CleanFirst {
		if err := b.Clean(ctx, opts, cfg); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(b.buildDir(opts, cfg), 0o755); err != nil {
		return err
	}

	if err := writeBuildInfo(b.buildDir(opts, cfg), b.Recipe.Requires); err != nil {
		return err
	}

	args := b.configureArgs(opts, cfg)
	return b.run(ctx, opts, result, "CMake Configure", args)
}

// buildInfoFile is included by the patched top-level CMakeLists.txt.
const buildInfoFile = "conanbuildinfo.cmake"

// cmakePackages maps requirement names to their find_package names.
var cmakePackages = map[string]string{
	"boost": "Boost",
}

// writeBuildInfo writes the conan_basic_setup() macro into buildDir. Each
// requirement is located with find_package, so <Pkg>_ROOT or BOOST_ROOT in
// the environment selects the installation.
func writeBuildInfo(buildDir string, requires []string) error {
	var sb strings.Builder
	sb.WriteString("# Generated by quantlib-recipe.\n")
	sb.WriteString("macro(conan_basic_setup)\n")
	for _, req := range requires {
		name, _, _ := strings.Cut(req, "/")
		if name == "" {
			continue
		}
		pkg, ok := cmakePackages[name]
		if !ok {
			pkg = name
		}
		fmt.Fprintf(&sb, "    find_package(%s REQUIRED)\n", pkg)
		fmt.Fprintf(&sb, "    include_directories(${%s_INCLUDE_DIRS})\n", pkg)
		fmt.Fprintf(&sb, "    link_directories(${%s_LIBRARY_DIRS})\n", pkg)
	}
	sb.WriteString("endmacro()\n")

	return os.WriteFile(filepath.Join(buildDir, buildInfoFile), []byte(sb.String()), 0o644)
}

// runBuild compiles only the library target
func (b *CMakeBuilder) runBuild(ctx context.Context, opts *BuildOptions, cfg BuildConfiguration, result *BuildResult) error {
	target, err := TargetName(cfg)
	if err != nil {
		return err
	}

	args := []string{"--build", b.buildDir(opts, cfg), "--config", string(cfg.BuildType), "--target", target}
	if opts.Parallel > 0 {
		args = append(args, "--parallel", fmt.Sprintf("%d", opts.Parallel))
	}

	return b.run(ctx, opts, result, "CMake Build", args)
}

// runPackage installs and then copies the recipe's package rules
func (b *CMakeBuilder) runPackage(ctx context.Context, opts *BuildOptions, cfg BuildConfiguration, result *BuildResult) ([]string, error) {
	args := []string{"--install", b.buildDir(opts, cfg), "--config", string(cfg.BuildType)}
	if err := b.run(ctx, opts, result, "CMake Install", args); err != nil {
		return nil, err
	}

	buildRel := filepath.ToSlash(filepath.Join(b.Recipe.BuildSubfolder, cfg.Slug()))
	artifacts, err := CopyAll(b.Recipe.PackageRules(buildRel), opts.WorkDir, b.packageDir(opts, cfg))
	if err != nil {
		return artifacts, err
	}

	info, err := b.Recipe.PackageInfo(cfg)
	if err != nil {
		return artifacts, err
	}
	result.Libs = info.Libs
	return artifacts, nil
}

func (b *CMakeBuilder) run(ctx context.Context, opts *BuildOptions, result *BuildResult, step string, args []string) error {
	if opts.Verbose {
		result.Output = append(result.Output, fmt.Sprintf("Running: cmake %s", strings.Join(args, " ")))
	}
	b.Logger.Debug().Str("step", step).Strs("args", args).Msg("running cmake")

	output, err := runCommand(ctx, opts.WorkDir, envList(os.Environ(), opts.Env), cmakeProgram, args...)
	result.Output = append(result.Output, splitLines(output)...)
	if err != nil {
		return BuildError(step, result.Output, err)
	}
	return nil
}

// generator returns the CMake generator for cfg
func (b *CMakeBuilder) generator(cfg BuildConfiguration) string {
	if generator := os.Getenv("CMAKE_GENERATOR"); generator != "" {
		return generator
	}

	if cfg.Compiler == CompilerMSVC {
		return visualStudioGenerators[cfg.CompilerVersion]
	}

	if runtime.GOOS == "windows" {
		return ""
	}
	return unixMakefiles
}

func cmakeBool(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}
