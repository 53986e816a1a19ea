// SPDX-License-Identifier: MPL-2.0

// Package store persists module records in a SQL table through GORM.
//
// The package exposes a small, immutable query builder ([Query]) limited to the
// predicates the catalog needs: equality on name, alias and active flag, and
// ordering by the lifecycle position. SQLite (pure Go) and PostgreSQL are
// supported drivers.
package store
