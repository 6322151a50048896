package recipe

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrPatchNotApplied is returned when a patch's search text is absent.
var ErrPatchNotApplied = errors.New("patch search text not found")

// Patch replaces every occurrence of Find with Replace in File.
//
// File is slash-separated and relative to the source root.
type Patch struct {
	File    string
	Find    string
	Replace string
	Reason  string
}

// Apply rewrites the patched file under root in place.
func (p Patch) Apply(root string) error {
	path := filepath.Join(root, filepath.FromSlash(p.File))

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to patch %s: %w", p.File, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to patch %s: %w", p.File, err)
	}

	if !bytes.Contains(content, []byte(p.Find)) {
		return fmt.Errorf("%w in %s: %q", ErrPatchNotApplied, p.File, p.Find)
	}

	patched := bytes.ReplaceAll(content, []byte(p.Find), []byte(p.Replace))
	return os.WriteFile(path, patched, info.Mode().Perm())
}

// ApplyPatches applies patches in order and stops at the first failure.
func ApplyPatches(root string, patches []Patch) error {
	for _, patch := range patches {
		if err := patch.Apply(root); err != nil {
			return err
		}
	}
	return nil
}

// quantLibPatches is the patch set applied to the upstream 1.15 tree.
func quantLibPatches() []Patch {
	return []Patch{
		{
			File: "CMakeLists.txt",
			Find: "project(QuantLib)",
			Replace: `project(QuantLib)
include(${CMAKE_BINARY_DIR}/conanbuildinfo.cmake)
conan_basic_setup()`,
			Reason: "pull in dependency include and link paths",
		},
		{
			File:   "CMakeLists.txt",
			Find:   "add_subdirectory(Examples)",
			Reason: "skip examples",
		},
		{
			File:   "CMakeLists.txt",
			Find:   "add_subdirectory(test-suite)",
			Reason: "skip unit tests",
		},
		{
			File: "ql/config.msvc.hpp",
			Find: "#define BOOST_ALL_NO_LIB",
			Replace: `#ifndef BOOST_ALL_NO_LIB
#define BOOST_ALL_NO_LIB
#endif
`,
			Reason: "duplicate macro definition warning",
		},
		{
			File: "ql/CMakeLists.txt",
			Find: "set(QL_LINK_LIBRARY ${QL_OUTPUT_NAME} PARENT_SCOPE)",
			Replace: `set(QL_LINK_LIBRARY ${QL_OUTPUT_NAME} PARENT_SCOPE)
# Always turn debugging symbols on
target_compile_options(${QL_OUTPUT_NAME} PRIVATE
    $<$<CXX_COMPILER_ID:MSVC>:/Zi>
    $<$<NOT:$<CXX_COMPILER_ID:MSVC>>:-g>
)

# MSVC requires debugging symbols to be explicitly set in linker
if( "${CMAKE_CXX_COMPILER_ID}" STREQUAL "MSVC" )
    set(new_linker_flags "/DEBUG")
    get_target_property(existing_linker_flags ${QL_OUTPUT_NAME} LINK_FLAGS)
    if(existing_linker_flags)
        set(new_linker_flags "${existing_linker_flags} ${new_linker_flags}")
    endif()
    set_target_properties(${QL_OUTPUT_NAME} PROPERTIES LINK_FLAGS ${new_linker_flags})
endif()`,
			Reason: "debug symbols in every build type",
		},
	}
}
