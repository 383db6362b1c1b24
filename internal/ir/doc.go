// Package ir provides the read-only host intermediate representation consumed
// by the rename engine.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the host boundary a
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Instructions and operands are sealed interfaces; only the types in
//     this package implement them
//   - Type names are compared in dotted form ("a.b.C"); use NormalizeName
//     at every boundary that accepts slashed or "La/b/C;" forms
//   - The host owns classes and methods; the engine only reads them and
//     issues Rename requests
//   - Method bodies are decoded lazily by the host and may decode to empty
package ir
