// SPDX-License-Identifier: MPL-2.0

// Package module defines the in-memory catalog entry and its collection.
//
// A [Module] reads its attributes from one of two sources:
//
//   - [Persisted]: the attribute map of a stored record. Modules built from
//     the entity store carry an identity and never look at the disk.
//   - [FileBacked]: the metadata document found in the module directory.
//     Modules without identity fall back to this source.
//
// Both sources are read through the same [Module.Get] accessor, so callers never
// branch on where an attribute came from.
//
// Lifecycle hooks ([Module.Register], [Module.Boot]) delegate to a [Host]
// supplied by the embedding application.
package module
