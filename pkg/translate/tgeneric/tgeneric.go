//nolint:revive // exported
package tgeneric

import "errors"

// MassConvert maps a slice through a converter.
func MassConvert[T any, R any](items []T, convert func(T) R) []R {
	out := make([]R, len(items))
	for i, item := range items {
		out[i] = convert(item)
	}
	return out
}

// ReplaceRootWithSub swaps a known root error for a package sentinel so
// storage detail does not leak past the service layer.
func ReplaceRootWithSub(root, sub, err error) error {
	if errors.Is(err, root) {
		return sub
	}
	return err
}
