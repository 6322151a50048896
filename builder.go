package recipe

import "context"

// Builder compiles and packages one build configuration.
//
// # Builder Lifecycle
//
//  1. Runner filters the matrix; excluded configurations never reach Build
//  2. Build() configures, compiles and packages one configuration
//  3. Clean() optionally removes that configuration's build tree
//
// Builder implementations should be stateless. The Runner calls Build
// sequentially, one configuration at a time.
type Builder interface {
	// Name returns the human-readable name of this builder, used in errors
	// and logs.
	Name() string

	// Build compiles cfg and returns the result.
	//
	// Returns:
	//   - BuildResult with Success=true and Artifacts on success
	//   - BuildResult with Success=false and Error on failure
	Build(ctx context.Context, opts *BuildOptions, cfg BuildConfiguration) (*BuildResult, error)

	// Clean removes build artifacts for cfg.
	Clean(ctx context.Context, opts *BuildOptions, cfg BuildConfiguration) error
}

// BuildOptions controls how each configuration is built.
//
// Paths:
//   - WorkDir: recipe working directory holding the patched sources
//   - PackageDir: root under which one package directory per configuration is created
//
// Behavior:
//   - Parallel: number of parallel compile jobs (0 = cmake default)
//   - CleanFirst: remove the configuration's build tree before building
//   - StopOnFailure: stop after the first failed configuration
type BuildOptions struct {
	WorkDir    string
	PackageDir string

	BuildArgs []string          // Additional cmake configure arguments
	Env       map[string]string // Environment variables for cmake

	Verbose    bool
	CleanFirst bool
	Parallel   int

	StopOnFailure bool
}

// BuildSteps is the configure, compile, package sequence a builder runs
// for one configuration.
type BuildSteps struct {
	// ConfigureFunc generates the native build files
	ConfigureFunc func(ctx context.Context, opts *BuildOptions, cfg BuildConfiguration, result *BuildResult) error

	// BuildFunc compiles the configured tree
	BuildFunc func(ctx context.Context, opts *BuildOptions, cfg BuildConfiguration, result *BuildResult) error

	// PackageFunc installs and collects artifacts, returning their paths
	PackageFunc func(ctx context.Context, opts *BuildOptions, cfg BuildConfiguration, result *BuildResult) ([]string, error)
}
