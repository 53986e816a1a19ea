// SPDX-License-Identifier: MPL-2.0

// Package modmeta reads module metadata from a module directory.
//
// A module directory carries exactly one metadata document, looked up in this
// order:
//
//   - module.json
//   - module.cue
//   - module.toml
//
// Every format is validated against the embedded #Module schema. The parsed
// [Document] is the fallback attribute source for modules that have no
// persisted record.
package modmeta
