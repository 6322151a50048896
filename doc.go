// Package recipe builds and packages QuantLib across a matrix of compiler
// configurations.
//
// The package does not compile anything itself. It decides which
// configurations are worth building, prepares the upstream sources and
// drives cmake for each configuration that survives.
//
// # Filtering
//
// A Filter is an ordered list of Predicates. A configuration is excluded
// when any predicate matches; a Filter with no predicates keeps everything.
// Policies describe a predicate list declaratively and can be loaded from
// TOML or YAML:
//
//	policy, err := recipe.ResolvePolicy("current")
//	spec, err := recipe.DefaultMatrix(runtime.GOOS)
//	kept := policy.Filter().Reduce(spec.Generate())
//
// # Building
//
// The Runner hands every kept configuration to a Builder:
//
//	r := recipe.QuantLib()
//	if err := r.Source(ctx, workDir, logger); err != nil {
//	    return err
//	}
//	runner := recipe.NewRunner(policy.Filter(), recipe.NewCMakeBuilder(r, logger), logger)
//	results, err := runner.Run(ctx, &recipe.BuildOptions{WorkDir: workDir}, matrix)
//
// # Architecture
//
//	Runner
//	├── Filter (Policy → []Predicate)
//	└── Builder
//	    └── CMakeBuilder (configure → build target → install + copy rules)
//
// msvc artifacts carry a toolset suffix; Toolset and TargetName resolve it
// and return ErrUnsupportedCompilerVersion for versions outside the table.
package recipe
