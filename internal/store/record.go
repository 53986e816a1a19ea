// SPDX-License-Identifier: MPL-2.0

package store

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"gorm.io/datatypes"
)

// TableName is the table module records live in.
const TableName = "modules"

// Record is one row of the modules table.
type Record struct {
	ID         uint           `gorm:"primaryKey"`
	Name       string         `gorm:"uniqueIndex;not null"`
	Alias      string         `gorm:"index"`
	Path       string         `gorm:"not null"`
	IsActive   bool           `gorm:"column:is_active;index;not null;default:false"`
	Order      int            `gorm:"column:order;not null;default:0"`
	Attributes datatypes.JSON `gorm:"type:json"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName implements gorm's tabler interface.
func (Record) TableName() string {
	return TableName
}

// AttributeMap returns the record's attribute bag merged with its columns.
// Column values win over keys of the same name stored in Attributes.
func (r *Record) AttributeMap() (map[string]any, error) {
	attrs := map[string]any{}
	if len(r.Attributes) > 0 {
		if err := json.Unmarshal(r.Attributes, &attrs); err != nil {
			return nil, fmt.Errorf("module record %q: decode attributes: %w", r.Name, err)
		}
		if attrs == nil {
			attrs = map[string]any{}
		}
	}

	attrs["name"] = r.Name
	attrs["alias"] = r.Alias
	attrs["path"] = r.Path
	attrs["is_active"] = r.IsActive
	attrs["order"] = r.Order
	return attrs, nil
}

// SetAttributes stores extra attributes, dropping the keys that have their own column.
func (r *Record) SetAttributes(attrs map[string]any) error {
	extra := maps.Clone(attrs)
	for _, column := range []string{"name", "alias", "path", "is_active", "order"} {
		delete(extra, column)
	}
	if len(extra) == 0 {
		r.Attributes = nil
		return nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return fmt.Errorf("module record %q: encode attributes: %w", r.Name, err)
	}
	r.Attributes = datatypes.JSON(data)
	return nil
}
