package recipe

import "context"

// runBuildSteps executes configure, build and package in order.
//
// If any step fails, processing stops, result.Error is set and the error is
// returned with Success=false. Step functions append their own output to
// result.Output as they run.
func runBuildSteps(ctx context.Context, opts *BuildOptions, cfg BuildConfiguration, steps BuildSteps) (*BuildResult, error) {
	result := &BuildResult{
		Configuration: cfg,
		Success:       false,
		Output:        []string{},
	}

	// Step 1: Configure
	if err := steps.ConfigureFunc(ctx, opts, cfg, result); err != nil {
		result.Error = err
		return result, err
	}

	// Step 2: Compile
	if err := steps.BuildFunc(ctx, opts, cfg, result); err != nil {
		result.Error = err
		return result, err
	}

	// Step 3: Install and collect artifacts
	artifacts, err := steps.PackageFunc(ctx, opts, cfg, result)
	if err != nil {
		result.Error = err
		return result, err
	}

	result.Artifacts = artifacts
	result.Success = true
	return result, nil
}
