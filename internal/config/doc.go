// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from config.cue in the modcat configuration directory
// (XDG on Linux, ~/Library/Application Support on macOS, %APPDATA% on Windows),
// or from ./config.cue, and validated against an embedded CUE schema.
// MODCAT_* environment variables override file values.
//
// Keys under modules.* configure the catalog (cache key and lifetime, module
// and asset paths); database.* selects the entity store; log.level sets CLI verbosity.
package config
