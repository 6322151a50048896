package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	recipe "github.com/contriboss/quantlib-recipe-go"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	config     *Config
	logger     *log.Logger

	// flag values, applied over the loaded config only when set
	policy     string
	matrix     string
	goos       string
	workDir    string
	packageDir string
	logLevel   string
	logFormat  string
	keepGoing  bool
	parallel   int
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "quantlib-recipe",
		Short:         "Filter the build matrix and package QuantLib",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "TOML configuration file")
	flags.StringVar(&a.policy, "policy", "", "built-in policy ("+strings.Join(recipe.PolicyNames(), ", ")+") or policy file")
	flags.StringVar(&a.matrix, "matrix", "", "matrix file (TOML or YAML); default is the platform matrix")
	flags.StringVar(&a.goos, "os", "", "platform for the default matrix (linux, darwin, windows)")
	flags.StringVar(&a.workDir, "work-dir", "", "recipe working directory")
	flags.StringVar(&a.packageDir, "package-dir", "", "package output root")
	flags.StringVar(&a.logLevel, "log-level", "", "log level")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (console, json)")

	root.AddCommand(
		newMatrixCommand(a),
		newPolicyCommand(a),
		newTargetCommand(a),
		newSourceCommand(a),
		newBuildCommand(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	config, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, value string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	override("policy", &config.Policy, a.policy)
	override("matrix", &config.Matrix, a.matrix)
	override("os", &config.OS, a.goos)
	override("work-dir", &config.WorkDir, a.workDir)
	override("package-dir", &config.PackageDir, a.packageDir)
	override("log-level", &config.Logging.Level, a.logLevel)
	override("log-format", &config.Logging.Format, a.logFormat)
	if flags.Changed("keep-going") {
		config.Build.KeepGoing = a.keepGoing
	}
	if flags.Changed("parallel") {
		config.Build.Parallel = a.parallel
	}

	a.config = config
	a.logger = recipe.NewLogger(config.Logging.Level, config.Logging.Format, cmd.ErrOrStderr())
	return nil
}

func (a *app) loadPolicy() (*recipe.Policy, error) {
	return recipe.ResolvePolicy(a.config.Policy)
}

func (a *app) loadMatrix() ([]recipe.BuildConfiguration, error) {
	var spec *recipe.MatrixSpec
	var err error
	if a.config.Matrix != "" {
		spec, err = recipe.LoadMatrix(a.config.Matrix)
	} else {
		spec, err = recipe.DefaultMatrix(a.config.OS)
	}
	if err != nil {
		return nil, err
	}
	return spec.Generate(), nil
}

func newMatrixCommand(a *app) *cobra.Command {
	var showExcluded, asJSON bool

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Print the build matrix after filtering",
		RunE: func(cmd *cobra.Command, _ []string) error {
			policy, err := a.loadPolicy()
			if err != nil {
				return err
			}
			matrix, err := a.loadMatrix()
			if err != nil {
				return err
			}

			kept, excluded := recipe.NewRunner(policy.Filter(), nil, a.logger).Plan(matrix)
			if !showExcluded {
				excluded = nil
			}
			if asJSON {
				return writeMatrixJSON(cmd.OutOrStdout(), kept, excluded)
			}
			return writeMatrixTable(cmd.OutOrStdout(), kept, excluded)
		},
	}
	cmd.Flags().BoolVar(&showExcluded, "excluded", false, "also list excluded configurations")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeMatrixTable(w io.Writer, kept []recipe.BuildConfiguration, excluded []recipe.Exclusion) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, cfg := range kept {
		fmt.Fprintf(tw, "build\t%s\t\n", cfg)
	}
	for _, ex := range excluded {
		fmt.Fprintf(tw, "skip\t%s\t%s\n", ex.Configuration, ex.Predicate)
	}
	return tw.Flush()
}

func writeMatrixJSON(w io.Writer, kept []recipe.BuildConfiguration, excluded []recipe.Exclusion) error {
	type exclusion struct {
		Configuration recipe.BuildConfiguration `json:"configuration"`
		Predicate     string                    `json:"predicate"`
	}
	out := struct {
		Build    []recipe.BuildConfiguration `json:"build"`
		Excluded []exclusion                 `json:"excluded,omitempty"`
	}{Build: kept}
	for _, ex := range excluded {
		out.Excluded = append(out.Excluded, exclusion{Configuration: ex.Configuration, Predicate: ex.Predicate})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newPolicyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "List the predicates the selected policy registers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			policy, err := a.loadPolicy()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "policy %s\n", policy.Name)
			for i, p := range policy.Predicates() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s\n", i+1, p.Name)
			}
			return nil
		},
	}
}

func newTargetCommand(a *app) *cobra.Command {
	var compiler, version, arch, buildType string

	cmd := &cobra.Command{
		Use:   "target",
		Short: "Print the CMake target and library name for a compiler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := recipe.ParseCompiler(compiler)
			if err != nil {
				return err
			}
			cfg := recipe.BuildConfiguration{
				Compiler:        c,
				CompilerVersion: version,
				Arch:            arch,
				BuildType:       recipe.BuildType(buildType),
			}

			target, err := recipe.TargetName(cfg)
			if err != nil {
				return err
			}
			info, err := recipe.QuantLib().PackageInfo(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "target: %s\nlibs:   %v\n", target, info.Libs)
			return nil
		},
	}
	cmd.Flags().StringVar(&compiler, "compiler", "gcc", "compiler family")
	cmd.Flags().StringVar(&version, "compiler-version", "", "compiler version")
	cmd.Flags().StringVar(&arch, "arch", "x86_64", "target architecture")
	cmd.Flags().StringVar(&buildType, "build-type", string(recipe.BuildTypeRelease), "Release or Debug")
	return cmd
}

func newSourceCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "source",
		Short: "Download, extract and patch the upstream sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return recipe.QuantLib().Source(cmd.Context(), a.config.WorkDir, a.logger)
		},
	}
}

func newBuildCommand(a *app) *cobra.Command {
	var skipSource bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build and package every configuration the policy keeps",
		RunE: func(cmd *cobra.Command, _ []string) error {
			policy, err := a.loadPolicy()
			if err != nil {
				return err
			}
			matrix, err := a.loadMatrix()
			if err != nil {
				return err
			}

			r := recipe.QuantLib()
			if !skipSource {
				if err := r.Source(cmd.Context(), a.config.WorkDir, a.logger); err != nil {
					return err
				}
			} else if _, err := os.Stat(r.SourceDir(a.config.WorkDir)); err != nil {
				return fmt.Errorf("no sources in %s: %w", a.config.WorkDir, err)
			}

			opts := &recipe.BuildOptions{
				WorkDir:       a.config.WorkDir,
				PackageDir:    a.config.PackageDir,
				Parallel:      a.config.Build.Parallel,
				CleanFirst:    a.config.Build.CleanFirst,
				Verbose:       a.config.Build.Verbose,
				StopOnFailure: !a.config.Build.KeepGoing,
			}

			runner := recipe.NewRunner(policy.Filter(), recipe.NewCMakeBuilder(r, a.logger), a.logger)
			results, err := runner.Run(cmd.Context(), opts, matrix)
			printSummary(cmd.OutOrStdout(), results)
			return err
		},
	}
	cmd.Flags().BoolVar(&skipSource, "skip-source", false, "reuse sources already in the working directory")
	cmd.Flags().BoolVar(&a.keepGoing, "keep-going", false, "continue after a failed configuration")
	cmd.Flags().IntVarP(&a.parallel, "parallel", "j", 0, "parallel compile jobs")
	return cmd
}

func printSummary(w io.Writer, results []*recipe.BuildResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, res := range results {
		status := "ok"
		if !res.Success {
			status = "FAILED"
		}
		fmt.Fprintf(tw, "%s\t%s\t%v\n", status, res.Configuration, res.Libs)
	}
	tw.Flush()
}
