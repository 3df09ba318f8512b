// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"fmt"
)

// Unit is one file's compression task. Ordinal is the file's position
// in the sorted input list and therefore its record position in the
// archive.
type Unit struct {
	Path    string
	Ordinal int
}

// NewUnits assigns ordinals 0..len(paths)-1 in slice order. The caller
// is responsible for sorting paths first.
func NewUnits(paths []string) []Unit {
	units := make([]Unit, len(paths))
	for i, path := range paths {
		units[i] = Unit{Path: path, Ordinal: i}
	}
	return units
}

// checkDense verifies that units[i].Ordinal == i for every i.
func checkDense(units []Unit) error {
	for i, unit := range units {
		if unit.Ordinal != i {
			return fmt.Errorf("unit %d (%s) has ordinal %d; ordinals must be dense and in order",
				i, unit.Path, unit.Ordinal)
		}
	}
	return nil
}
