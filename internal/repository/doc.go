// SPDX-License-Identifier: MPL-2.0

// Package repository is the gateway between stored module records and every
// consumer of the catalog: lifecycle dispatch, the CLI, and listings.
//
// A [Repository] turns store records into [module.Module] values, applies the
// requested view (all, enabled, disabled, ordered, by status), memoizes the
// full catalog through a [cache.Cache], resolves requirements by alias and
// drives the register-then-boot lifecycle over enabled modules in ascending
// order. Its collaborators are passed to [New]; nothing is looked up globally.
package repository
