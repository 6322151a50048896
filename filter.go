package recipe

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Predicate names a single exclusion rule.
//
// Match must be pure: the same configuration always yields the same answer
// and no state is touched.
type Predicate struct {
	Name  string
	Match func(cfg BuildConfiguration) bool
}

// Predicate names used by the built-in rules.
const (
	PredicateDynamicRestrictedCompiler = "dynamic-restricted-compiler"
	PredicateNonStandardRuntime        = "non-standard-runtime-linkage"
	PredicateSharedLibraryRequest      = "shared-library-request"
	predicateIncompatibleABIPrefix     = "incompatible-toolchain-abi"
)

// IsDynamicRestrictedCompilerBuild reports a shared-library build with msvc.
func IsDynamicRestrictedCompilerBuild(cfg BuildConfiguration) bool {
	return cfg.Shared && cfg.Compiler == CompilerMSVC
}

// IsNonStandardRuntimeLinkage reports an msvc build that does not link the
// dynamic release runtime (MD).
func IsNonStandardRuntimeLinkage(cfg BuildConfiguration) bool {
	return cfg.Compiler == CompilerMSVC && cfg.RuntimeLinkage != RuntimeDynamicRelease
}

// IsSharedLibraryRequest reports any shared-library build.
func IsSharedLibraryRequest(cfg BuildConfiguration) bool {
	return cfg.Shared
}

// DynamicRestrictedCompilerBuild wraps IsDynamicRestrictedCompilerBuild.
func DynamicRestrictedCompilerBuild() Predicate {
	return Predicate{Name: PredicateDynamicRestrictedCompiler, Match: IsDynamicRestrictedCompilerBuild}
}

// NonStandardRuntimeLinkage wraps IsNonStandardRuntimeLinkage.
func NonStandardRuntimeLinkage() Predicate {
	return Predicate{Name: PredicateNonStandardRuntime, Match: IsNonStandardRuntimeLinkage}
}

// SharedLibraryRequest wraps IsSharedLibraryRequest.
func SharedLibraryRequest() Predicate {
	return Predicate{Name: PredicateSharedLibraryRequest, Match: IsSharedLibraryRequest}
}

// IncompatibleToolchainABI matches configurations of the given compiler and
// standard library whose version is one of versions.
//
// The versions slice is copied so later changes by the caller do not leak in.
func IncompatibleToolchainABI(compiler Compiler, stdlib StandardLibrary, versions ...string) Predicate {
	denied := lo.Uniq(append([]string(nil), versions...))
	toolchain := string(compiler)
	if stdlib != "" {
		toolchain += "/" + string(stdlib)
	}
	return Predicate{
		Name: fmt.Sprintf("%s(%s:%s)", predicateIncompatibleABIPrefix, toolchain, strings.Join(denied, ",")),
		Match: func(cfg BuildConfiguration) bool {
			return cfg.Compiler == compiler &&
				cfg.StandardLibrary == stdlib &&
				lo.Contains(denied, cfg.CompilerVersion)
		},
	}
}

// Filter excludes configurations matched by any of its predicates.
//
// The zero value has no predicates and excludes nothing. Predicates are
// evaluated in registration order; since each is an independent boolean the
// order only affects which name Reason reports.
type Filter struct {
	predicates []Predicate
}

// NewFilter returns a filter over the given predicates, in order.
func NewFilter(predicates ...Predicate) *Filter {
	return &Filter{predicates: append([]Predicate(nil), predicates...)}
}

// Predicates returns a copy of the registered predicates.
func (f *Filter) Predicates() []Predicate {
	if f == nil {
		return nil
	}
	return append([]Predicate{}, f.predicates...)
}

// Reason returns the name of the first predicate matching cfg, or "" when
// the configuration should be built.
func (f *Filter) Reason(cfg BuildConfiguration) string {
	if f == nil {
		return ""
	}
	for _, p := range f.predicates {
		if p.Match(cfg) {
			return p.Name
		}
	}
	return ""
}

// Excludes reports whether cfg matches at least one predicate.
func (f *Filter) Excludes(cfg BuildConfiguration) bool {
	return f.Reason(cfg) != ""
}

// Reduce returns the configurations of matrix that survive the filter,
// preserving order. The input slice is not modified.
func (f *Filter) Reduce(matrix []BuildConfiguration) []BuildConfiguration {
	return lo.Reject(matrix, func(cfg BuildConfiguration, _ int) bool {
		return f.Excludes(cfg)
	})
}

// Exclusion pairs a dropped configuration with the rule that dropped it.
type Exclusion struct {
	Configuration BuildConfiguration
	Predicate     string
}

// Partition splits matrix into kept configurations and exclusions.
func (f *Filter) Partition(matrix []BuildConfiguration) (kept []BuildConfiguration, excluded []Exclusion) {
	for _, cfg := range matrix {
		if reason := f.Reason(cfg); reason != "" {
			excluded = append(excluded, Exclusion{Configuration: cfg, Predicate: reason})
			continue
		}
		kept = append(kept, cfg)
	}
	return kept, excluded
}
