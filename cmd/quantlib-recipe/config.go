package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config is the CLI configuration.
//
// Values are layered: defaults, then the TOML file, then QUANTLIB_RECIPE_*
// environment variables, then command-line flags.
type Config struct {
	Policy     string        `toml:"policy"`      // built-in policy name or path to a policy file
	Matrix     string        `toml:"matrix"`      // path to a matrix file; empty uses the platform default
	OS         string        `toml:"os"`          // GOOS used to pick the default matrix
	WorkDir    string        `toml:"work_dir"`    // recipe working directory
	PackageDir string        `toml:"package_dir"` // package output root; empty means <work_dir>/package
	Build      BuildConfig   `toml:"build"`
	Logging    LoggingConfig `toml:"logging"`
}

// BuildConfig controls the build command.
type BuildConfig struct {
	Parallel   int  `toml:"parallel"`
	KeepGoing  bool `toml:"keep_going"`
	CleanFirst bool `toml:"clean_first"`
	Verbose    bool `toml:"verbose"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `toml:"level"`  // trace, debug, info, warn, error
	Format string `toml:"format"` // console or json
}

// NewDefaultConfig returns the built-in defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Policy:  "current",
		OS:      runtime.GOOS,
		WorkDir: ".quantlib",
		Build: BuildConfig{
			Parallel: runtime.NumCPU(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig returns the defaults overlaid with path (if non-empty) and
// the environment.
func LoadConfig(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

func applyEnvOverrides(config *Config) {
	if policy := os.Getenv("QUANTLIB_RECIPE_POLICY"); policy != "" {
		config.Policy = policy
	}
	if matrix := os.Getenv("QUANTLIB_RECIPE_MATRIX"); matrix != "" {
		config.Matrix = matrix
	}
	if goos := os.Getenv("QUANTLIB_RECIPE_OS"); goos != "" {
		config.OS = goos
	}
	if workDir := os.Getenv("QUANTLIB_RECIPE_WORK_DIR"); workDir != "" {
		config.WorkDir = workDir
	}
	if packageDir := os.Getenv("QUANTLIB_RECIPE_PACKAGE_DIR"); packageDir != "" {
		config.PackageDir = packageDir
	}
	if parallel := os.Getenv("QUANTLIB_RECIPE_PARALLEL"); parallel != "" {
		if n, err := strconv.Atoi(parallel); err == nil {
			config.Build.Parallel = n
		}
	}
	if keepGoing := os.Getenv("QUANTLIB_RECIPE_KEEP_GOING"); keepGoing != "" {
		if b, err := strconv.ParseBool(keepGoing); err == nil {
			config.Build.KeepGoing = b
		}
	}
	if level := os.Getenv("QUANTLIB_RECIPE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("QUANTLIB_RECIPE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
}
