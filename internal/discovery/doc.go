// SPDX-License-Identifier: MPL-2.0

// Package discovery locates module directories on disk. A module directory
// is any directory holding a module.json, module.cue or module.toml file;
// when a directory holds more than one, the modmeta lookup order decides
// which file describes the module and the others are reported as diagnostics.
package discovery
