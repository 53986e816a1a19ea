// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and Markdown troubleshooting guides
// for the modcat CLI.
//
// [ActionableError] carries the failed operation, the resource involved and
// remediation hints; an attached [Id] selects a guide rendered with glamour.
package issue
