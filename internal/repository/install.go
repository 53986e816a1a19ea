// SPDX-License-Identifier: MPL-2.0

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/invowk/modcat/internal/store"
	"github.com/invowk/modcat/pkg/module"
)

// attrPriority is the metadata fallback for the order attribute.
const attrPriority = "priority"

// Install reads the metadata document of dir and stores a record for it.
// The stored order is the order attribute, falling back to priority. The
// module starts enabled only when its metadata says so.
func (r *Repository) Install(ctx context.Context, dir string) (*module.Module, error) {
	fm, err := module.NewFileBacked(dir, r.reader)
	if err != nil {
		return nil, err
	}

	exists, err := r.Exists(ctx, fm.Name())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateModule, fm.Name())
	}

	rec, err := recordFor(fm)
	if err != nil {
		return nil, err
	}

	if err := r.store.Create(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateModule, fm.Name())
		}
		return nil, err
	}

	r.logger.Info("module installed", "module", rec.Name, "path", rec.Path, "enabled", rec.IsActive)
	return r.toModule(rec)
}

func recordFor(fm *module.Module) (*store.Record, error) {
	active, err := fm.Active()
	if err != nil {
		return nil, err
	}

	orderKey := module.AttrOrder
	if v, err := fm.Get(module.AttrOrder, nil); err != nil {
		return nil, err
	} else if v == nil {
		orderKey = attrPriority
	}
	order, err := fm.Int(orderKey, 0)
	if err != nil {
		return nil, err
	}

	attrs, err := fm.Attributes()
	if err != nil {
		return nil, err
	}
	delete(attrs, "active")
	delete(attrs, attrPriority)

	rec := &store.Record{
		Name:     fm.Name(),
		Alias:    fm.Alias(),
		Path:     fm.Path(),
		IsActive: active,
		Order:    order,
	}
	if err := rec.SetAttributes(attrs); err != nil {
		return nil, err
	}
	return rec, nil
}
