// Package route classifies request paths for the request gate.
//
// Every pattern is anchored at both ends, so "/" only matches the root
// and "/docs" does not match "/docsearch". Precedence is
// Skip > Public > Admin > AuthPage > Protected.
package route
