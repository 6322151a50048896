package recipe

import (
	"context"
	"errors"
	"fmt"

	"github.com/phuslu/log"
)

// Runner reduces a build matrix with a Filter and hands every surviving
// configuration to a Builder.
//
// # Usage
//
//	policy := recipe.CurrentPolicy()
//	runner := recipe.NewRunner(policy.Filter(), recipe.NewCMakeBuilder(recipe.QuantLib(), logger), logger)
//	results, err := runner.Run(ctx, opts, matrix)
//
// A nil Filter builds every configuration.
type Runner struct {
	Filter  *Filter
	Builder Builder
	Logger  *log.Logger
}

// NewRunner returns a Runner. A nil logger discards output.
func NewRunner(filter *Filter, builder Builder, logger *log.Logger) *Runner {
	if logger == nil {
		logger = nopLogger()
	}
	return &Runner{Filter: filter, Builder: builder, Logger: logger}
}

// Plan partitions matrix into the configurations that will be built and the
// exclusions, logging each exclusion.
func (r *Runner) Plan(matrix []BuildConfiguration) ([]BuildConfiguration, []Exclusion) {
	kept, excluded := r.Filter.Partition(matrix)
	for _, ex := range excluded {
		r.logger().Debug().
			Str("config", ex.Configuration.String()).
			Str("predicate", ex.Predicate).
			Msg("excluded from build matrix")
	}
	r.logger().Info().
		Int("total", len(matrix)).
		Int("kept", len(kept)).
		Int("excluded", len(excluded)).
		Msg("build matrix reduced")
	return kept, excluded
}

// Run builds every configuration in matrix that the filter keeps.
//
// Configurations are processed in order:
//  1. Check for context cancellation
//  2. Build the configuration
//  3. Collect the result
//  4. Stop on first failure if opts.StopOnFailure is true
//
// # Return Values
//
// Returns one BuildResult per configuration processed and the first error
// encountered. Even if an error is returned, the results slice contains the
// partial results gathered so far.
//
// If the builder implements ToolChecker, its tools are checked once before
// anything is built and a missing tool returns no results.
//
// # Context Cancellation
//
// If the context is canceled, processing stops, a BuildResult carrying
// the context error is appended and that error is returned.
func (r *Runner) Run(ctx context.Context, opts *BuildOptions, matrix []BuildConfiguration) ([]*BuildResult, error) {
	if r.Builder == nil {
		return nil, errors.New("runner has no builder")
	}
	if opts == nil {
		opts = &BuildOptions{}
	}

	kept, _ := r.Plan(matrix)
	if len(kept) == 0 {
		return nil, nil
	}

	if checker, ok := r.Builder.(ToolChecker); ok {
		if err := checker.CheckTools(); err != nil {
			return nil, fmt.Errorf("%s build tools missing: %w", r.Builder.Name(), err)
		}
	}

	var results []*BuildResult
	var firstError error

	for _, cfg := range kept {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if firstError == nil {
				firstError = ctxErr
			}
			results = append(results, &BuildResult{
				Configuration: cfg,
				Success:       false,
				Error:         ctxErr,
			})
			break
		}

		r.logger().Info().Str("config", cfg.String()).Str("builder", r.Builder.Name()).Msg("building configuration")

		result, err := r.Builder.Build(ctx, opts, cfg)
		if err != nil {
			if firstError == nil {
				firstError = fmt.Errorf("%s: %w", cfg, err)
			}
			// Ensure we have a result even if the builder didn't return one
			if result == nil {
				result = &BuildResult{
					Configuration: cfg,
					Success:       false,
					Error:         err,
				}
			}
		}

		results = append(results, result)

		if result.Success {
			r.logger().Info().Str("config", cfg.String()).Int("artifacts", len(result.Artifacts)).Msg("configuration packaged")
		} else {
			r.logger().Error().Str("config", cfg.String()).Err(result.Error).Msg("configuration failed")
			if opts.StopOnFailure {
				break
			}
		}
	}

	return results, firstError
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		r.Logger = nopLogger()
	}
	return r.Logger
}
