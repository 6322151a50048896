package recipe

import (
	"fmt"
	"os/exec"
	"strings"
)

// execLookPath is swapped out in tests.
var execLookPath = exec.LookPath

// ToolChecker is an optional interface for builders that require external
// tools. The Runner calls CheckTools once before the first build so a
// missing cmake fails fast instead of once per configuration.
type ToolChecker interface {
	// RequiredTools returns the list of tools this builder needs.
	RequiredTools() []ToolRequirement

	// CheckTools returns nil if every non-optional tool is found.
	CheckTools() error
}

// ToolRequirement describes a build tool dependency.
//
// If Name is not found, each of Alternatives is tried in order. Optional
// tools never cause an error.
type ToolRequirement struct {
	Name         string
	Alternatives []string
	Optional     bool
	Purpose      string
}

// CheckToolAvailable checks if a tool is available in PATH.
func CheckToolAvailable(tool string) error {
	if _, err := execLookPath(tool); err != nil {
		return fmt.Errorf("%s not found in PATH", tool)
	}
	return nil
}

// CheckRequiredTools verifies all required tools are available and reports
// every missing one in a single error:
//
//	missing required tools: cmake (CMake build system), ninja (Ninja generator)
func CheckRequiredTools(requirements []ToolRequirement) error {
	var missingTools []string

	for _, req := range requirements {
		found := CheckToolAvailable(req.Name) == nil

		for _, alt := range req.Alternatives {
			if found {
				break
			}
			found = CheckToolAvailable(alt) == nil
		}

		if !found && !req.Optional {
			if req.Purpose != "" {
				missingTools = append(missingTools, fmt.Sprintf("%s (%s)", req.Name, req.Purpose))
			} else {
				missingTools = append(missingTools, req.Name)
			}
		}
	}

	switch len(missingTools) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%s not found in PATH", missingTools[0])
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missingTools, ", "))
}
