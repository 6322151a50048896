package recipe

import (
	"errors"
	"strings"
	"testing"
)

func stubLookPath(t *testing.T, available ...string) {
	t.Helper()
	orig := execLookPath
	t.Cleanup(func() { execLookPath = orig })

	execLookPath = func(name string) (string, error) {
		for _, tool := range available {
			if tool == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestCheckRequiredToolsAllPresent(t *testing.T) {
	stubLookPath(t, "cmake", "ninja")

	if err := (&CMakeBuilder{}).CheckTools(); err != nil {
		t.Fatalf("expected tools to be found, got %v", err)
	}
}

func TestCheckRequiredToolsOptionalMissing(t *testing.T) {
	stubLookPath(t, "cmake")

	if err := (&CMakeBuilder{}).CheckTools(); err != nil {
		t.Fatalf("optional ninja should not fail the check, got %v", err)
	}
}

func TestCheckRequiredToolsSingleMissing(t *testing.T) {
	stubLookPath(t)

	err := (&CMakeBuilder{}).CheckTools()
	if err == nil {
		t.Fatal("expected error when cmake is missing")
	}
	if err.Error() != "cmake (CMake build system) not found in PATH" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckRequiredToolsAlternatives(t *testing.T) {
	stubLookPath(t, "clang++")

	requirements := []ToolRequirement{
		{Name: "g++", Alternatives: []string{"clang++"}, Purpose: "C++ compiler"},
		{Name: "cmake"},
		{Name: "make", Alternatives: []string{"gmake"}, Purpose: "make"},
	}

	err := CheckRequiredTools(requirements)
	if err == nil {
		t.Fatal("expected missing tools error")
	}
	if !strings.HasPrefix(err.Error(), "missing required tools: ") {
		t.Fatalf("unexpected error format: %v", err)
	}
	if strings.Contains(err.Error(), "g++") {
		t.Fatalf("g++ should be satisfied by clang++: %v", err)
	}
	if !strings.Contains(err.Error(), "cmake, make (make)") {
		t.Fatalf("expected cmake and make to be reported: %v", err)
	}
}
