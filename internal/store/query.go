// SPDX-License-Identifier: MPL-2.0

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// Asc sorts by ascending lifecycle position.
	Asc Direction = "asc"
	// Desc sorts by descending lifecycle position.
	Desc Direction = "desc"
)

// ErrInvalidDirection is returned by ParseDirection for anything but asc or desc.
var ErrInvalidDirection = errors.New("invalid sort direction")

type (
	// Direction is a sort direction.
	Direction string

	// Query is an immutable set of predicates over the modules table.
	// Each builder method returns a new Query; the receiver is never modified.
	Query interface {
		WhereName(name string) Query
		WhereAlias(alias string) Query
		WhereActive(active bool) Query
		OrderByOrder(dir Direction) Query

		// Get returns every matching record in query order.
		Get(ctx context.Context) ([]Record, error)
		// First returns the first matching record, or nil when none match.
		First(ctx context.Context) (*Record, error)
		// Count returns the number of matching records.
		Count(ctx context.Context) (int64, error)
	}

	gormQuery struct {
		db      *gorm.DB
		where   []clause.Expression
		orderBy *clause.OrderByColumn
	}
)

// ParseDirection parses "asc" or "desc", case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Asc, Desc:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q (expected asc or desc)", ErrInvalidDirection, s)
	}
}

// String returns the direction as written in queries.
func (d Direction) String() string {
	return string(d)
}

func (q gormQuery) with(expr clause.Expression) gormQuery {
	where := make([]clause.Expression, len(q.where), len(q.where)+1)
	copy(where, q.where)
	q.where = append(where, expr)
	return q
}

func (q gormQuery) WhereName(name string) Query {
	return q.with(clause.Eq{Column: clause.Column{Name: "name"}, Value: name})
}

func (q gormQuery) WhereAlias(alias string) Query {
	return q.with(clause.Eq{Column: clause.Column{Name: "alias"}, Value: alias})
}

func (q gormQuery) WhereActive(active bool) Query {
	return q.with(clause.Eq{Column: clause.Column{Name: "is_active"}, Value: active})
}

func (q gormQuery) OrderByOrder(dir Direction) Query {
	q.orderBy = &clause.OrderByColumn{
		Column: clause.Column{Name: "order"},
		Desc:   dir == Desc,
	}
	return q
}

func (q gormQuery) build(ctx context.Context) *gorm.DB {
	tx := q.db.WithContext(ctx).Model(&Record{})
	if len(q.where) > 0 {
		tx = tx.Clauses(clause.Where{Exprs: q.where})
	}
	if q.orderBy != nil {
		tx = tx.Order(*q.orderBy)
	}
	return tx
}

func (q gormQuery) Get(ctx context.Context) ([]Record, error) {
	var records []Record
	if err := q.build(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query modules: %w", err)
	}
	return records, nil
}

func (q gormQuery) First(ctx context.Context) (*Record, error) {
	var records []Record
	if err := q.build(ctx).Limit(1).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query module: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (q gormQuery) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := q.build(ctx).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count modules: %w", err)
	}
	return n, nil
}
