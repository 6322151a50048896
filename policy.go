package recipe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnknownPolicy is returned when a policy name is not built in.
var ErrUnknownPolicy = errors.New("unknown policy")

// ABIDenylist lists compiler versions that cannot build the packaged sources
// against a given standard library. StandardLibrary may be empty for msvc,
// which has no standard library setting.
type ABIDenylist struct {
	Compiler        Compiler        `toml:"compiler" yaml:"compiler" json:"compiler" validate:"required,oneof=msvc gcc clang apple-clang"`
	StandardLibrary StandardLibrary `toml:"standard_library" yaml:"standard_library" json:"standard_library" validate:"required_unless=Compiler msvc"`
	Versions        []string        `toml:"versions" yaml:"versions" json:"versions" validate:"required,min=1,dive,required"`
}

// Policy is the declarative form of a filter.
//
// Registration order of the generated predicates is fixed:
// shared msvc, runtime linkage, ABI denylists in listed order, then the
// blanket shared rule.
type Policy struct {
	Name                         string        `toml:"name" yaml:"name" json:"name" validate:"required"`
	ExcludeSharedMSVC            bool          `toml:"exclude_shared_msvc" yaml:"exclude_shared_msvc" json:"exclude_shared_msvc"`
	RequireDynamicReleaseRuntime bool          `toml:"require_dynamic_release_runtime" yaml:"require_dynamic_release_runtime" json:"require_dynamic_release_runtime"`
	ExcludeAllShared             bool          `toml:"exclude_all_shared" yaml:"exclude_all_shared" json:"exclude_all_shared"`
	Denylists                    []ABIDenylist `toml:"abi_denylist" yaml:"abi_denylist" json:"abi_denylist" validate:"dive"`
}

// Predicates builds the ordered predicate list described by p.
func (p *Policy) Predicates() []Predicate {
	var predicates []Predicate
	if p.ExcludeSharedMSVC {
		predicates = append(predicates, DynamicRestrictedCompilerBuild())
	}
	if p.RequireDynamicReleaseRuntime {
		predicates = append(predicates, NonStandardRuntimeLinkage())
	}
	for _, d := range p.Denylists {
		predicates = append(predicates, IncompatibleToolchainABI(d.Compiler, d.StandardLibrary, d.Versions...))
	}
	if p.ExcludeAllShared {
		predicates = append(predicates, SharedLibraryRequest())
	}
	return predicates
}

// Filter returns a Filter over p's predicates.
func (p *Policy) Filter() *Filter {
	return NewFilter(p.Predicates()...)
}

// Validate checks structural constraints on p.
func (p *Policy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid policy %q: %w", p.Name, err)
	}
	return nil
}

var validate = validator.New()

// LegacyPolicy is the filter set shipped with the 1.15 recipe.
func LegacyPolicy() *Policy {
	return &Policy{
		Name:                         "legacy",
		ExcludeSharedMSVC:            true,
		RequireDynamicReleaseRuntime: true,
		Denylists: []ABIDenylist{
			{Compiler: CompilerGCC, StandardLibrary: LibStdCxx, Versions: []string{"9"}},
		},
	}
}

// CurrentPolicy is the later filter set: wider gcc denylist, a clang
// denylist, and no shared-library builds at all.
func CurrentPolicy() *Policy {
	return &Policy{
		Name:                         "current",
		ExcludeSharedMSVC:            true,
		RequireDynamicReleaseRuntime: true,
		ExcludeAllShared:             true,
		Denylists: []ABIDenylist{
			{Compiler: CompilerGCC, StandardLibrary: LibStdCxx, Versions: []string{"5", "6", "7", "8"}},
			{Compiler: CompilerClang, StandardLibrary: LibStdCxx, Versions: []string{"7", "8"}},
		},
	}
}

var builtinPolicies = map[string]func() *Policy{
	"legacy":  LegacyPolicy,
	"current": CurrentPolicy,
}

// PolicyNames lists the built-in policy names in sorted order.
func PolicyNames() []string {
	names := make([]string, 0, len(builtinPolicies))
	for name := range builtinPolicies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuiltinPolicy returns a fresh copy of the named built-in policy.
func BuiltinPolicy(name string) (*Policy, error) {
	ctor, ok := builtinPolicies[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownPolicy, name, strings.Join(PolicyNames(), ", "))
	}
	return ctor(), nil
}

// ResolvePolicy treats ref as a built-in name first and a file path otherwise.
func ResolvePolicy(ref string) (*Policy, error) {
	if _, ok := builtinPolicies[ref]; ok {
		return BuiltinPolicy(ref)
	}
	if _, err := os.Stat(ref); err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownPolicy, ref)
	}
	return LoadPolicy(ref)
}

// LoadPolicy reads and validates a policy from a TOML or YAML file.
func LoadPolicy(path string) (*Policy, error) {
	policy := &Policy{}
	if err := decodeFile(path, policy); err != nil {
		return nil, err
	}
	if policy.Name == "" {
		policy.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}

// decodeFile unmarshals path into v, picking the format from the extension.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, v)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	default:
		return fmt.Errorf("unsupported file format: %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
