// SPDX-License-Identifier: MPL-2.0

// Package cueutil holds the CUE plumbing shared by module metadata and
// configuration loading.
//
// Both callers follow the same flow:
//
//  1. Compile the embedded schema
//  2. Compile the user document (CUE or JSON, which is valid CUE) and unify it with a schema definition
//  3. Validate and decode
//
// Typed documents decode into a struct with [ParseAndDecode]. Open documents
// such as module.json, whose schema allows extra keys, decode into a plain
// map with [DecodeMap].
package cueutil
