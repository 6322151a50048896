package recipe

import (
	"fmt"
	"strings"
)

// BuildError creates a standardized build error with output context.
//
// With error and output:
//
//	CMake Build failed: exit status 2
//
//	Build output:
//	[ 12%] Building CXX object ql/CMakeFiles/QuantLib.dir/...
//	error: ...
//
// With output but no error the first line is just "<builder> failed".
func BuildError(builder string, output []string, err error) error {
	outputStr := strings.Join(output, "\n")

	var prefix string
	if err != nil {
		prefix = fmt.Sprintf("%s failed: %v", builder, err)
	} else {
		prefix = fmt.Sprintf("%s failed", builder)
	}

	if strings.TrimSpace(outputStr) != "" {
		return fmt.Errorf("%s\n\nBuild output:\n%s", prefix, outputStr)
	}

	return fmt.Errorf("%s", prefix)
}

// envList formats a map as KEY=VALUE pairs appended to base.
func envList(base []string, env map[string]string) []string {
	out := append([]string{}, base...)
	for key, value := range env {
		out = append(out, fmt.Sprintf("%s=%s", key, value))
	}
	return out
}

func splitLines(output []byte) []string {
	text := strings.TrimRight(string(output), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
