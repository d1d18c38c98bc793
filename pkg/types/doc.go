// Package types defines the public value model and error categories shared by
// the osckit codec, registry and printer.
//
// Design goals:
//   - One small tagged union (Value) for every argument and node payload.
//   - Bit-exact equality for float payloads, so NoRepeat never misfires on -0/NaN.
//   - Typed errors with stable categories (address/tag/bounds/type/state/...).
//
// This package has no dependencies beyond the standard library.
package types
