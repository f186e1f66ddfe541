//go:build !debug_mem_utils

package memutils

// DebugEnabled reports whether the debug_mem_utils build tag is present
const DebugEnabled = false

// DebugValidate panics if the provided object fails its consistency check. Only debug_mem_utils
// builds run the check.
func DebugValidate(validatable Validatable) {
}

// DebugCheckPow2 panics if an alignment handed to AlignUp is not a power of two. Only
// debug_mem_utils builds run the check.
func DebugCheckPow2[T Number](value T, name string) {
}
