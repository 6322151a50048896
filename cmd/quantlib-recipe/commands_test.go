package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	recipe "github.com/contriboss/quantlib-recipe-go"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMatrixCommandWindowsLegacy(t *testing.T) {
	out, err := execute(t, "matrix", "--os", "windows", "--policy", "legacy", "--json")
	require.NoError(t, err)

	var decoded struct {
		Build    []recipe.BuildConfiguration `json:"build"`
		Excluded []json.RawMessage           `json:"excluded"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	require.Len(t, decoded.Build, 4)
	assert.Empty(t, decoded.Excluded)
	for _, cfg := range decoded.Build {
		assert.Equal(t, recipe.RuntimeDynamicRelease, cfg.RuntimeLinkage)
		assert.False(t, cfg.Shared)
	}
}

func TestMatrixCommandShowsExclusions(t *testing.T) {
	out, err := execute(t, "matrix", "--os", "linux", "--policy", "current", "--excluded")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 64)
	assert.Contains(t, out, "shared-library-request")
	assert.Contains(t, out, "incompatible-toolchain-abi(clang/libstdc++:7,8)")
}

func TestPolicyCommand(t *testing.T) {
	out, err := execute(t, "policy", "--policy", "legacy")
	require.NoError(t, err)
	assert.Equal(t, "policy legacy\n"+
		"  1. dynamic-restricted-compiler\n"+
		"  2. non-standard-runtime-linkage\n"+
		"  3. incompatible-toolchain-abi(gcc/libstdc++:9)\n", out)
}

func TestPolicyCommandUnknown(t *testing.T) {
	_, err := execute(t, "policy", "--policy", "nightly")
	assert.ErrorIs(t, err, recipe.ErrUnknownPolicy)
}

func TestTargetCommand(t *testing.T) {
	out, err := execute(t, "target", "--compiler", "Visual Studio", "--compiler-version", "15", "--build-type", "Debug")
	require.NoError(t, err)
	assert.Contains(t, out, "target: QuantLib-vc141-x64-mt\n")
	assert.Contains(t, out, "[QuantLib-vc141-x64-mt-gd]")
}

func TestTargetCommandUnsupported(t *testing.T) {
	_, err := execute(t, "target", "--compiler", "msvc", "--compiler-version", "9")
	assert.ErrorIs(t, err, recipe.ErrUnsupportedCompilerVersion)
}
