// Package gisio defines the boundary type the engine accepts from GIS
// footprint sources. Reading shapefiles/GeoJSON/CRS reprojection is an
// external collaborator's job (spec §1); this package only defines the row
// shape and the categorical archetype interning the tracer depends on.
package gisio

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// MaxBuildings is the largest GIS row count the engine supports (2^16 - 1).
const MaxBuildings = 1<<16 - 1

// Row is one footprint. Polygons holds one ring per exterior polygon after
// exploding multi-polygons; each ring is already in a planar,
// meter-denominated projection with the closing vertex dropped. Rings
// are wound clockwise (the Esri shapefile / GeoPandas exterior-ring
// convention); scene.Build's outward-normal formula assumes it.
type Row struct {
	ID        string
	Height    float64
	Archetype string
	Polygons  [][]r2.Vec
}

// Table is an ordered GIS footprint dataset plus the archetype interning
// table derived from it (the Go analog of pandas' category codes).
type Table struct {
	Rows       []Row
	Archetypes []string // archetype name, indexed by ArchetypeID
}

// Validate checks the fatal input-validity conditions of spec §7: row
// count, and that every row carries a height, id, and archetype.
func (t *Table) Validate() error {
	if len(t.Rows) > MaxBuildings {
		return fmt.Errorf("gisio: %d buildings exceeds the supported maximum of %d", len(t.Rows), MaxBuildings)
	}
	for i, row := range t.Rows {
		if row.ID == "" {
			return fmt.Errorf("gisio: row %d is missing an id", i)
		}
		if row.Archetype == "" {
			return fmt.Errorf("gisio: row %d is missing an archetype", i)
		}
		if row.Height <= 0 {
			return fmt.Errorf("gisio: row %d (%s) has non-positive height %g", i, row.ID, row.Height)
		}
		if len(row.Polygons) == 0 {
			return fmt.Errorf("gisio: row %d (%s) has no polygon geometry", i, row.ID)
		}
	}
	return nil
}

// InternArchetypes assigns a stable integer id to each distinct archetype
// string, in first-seen order, and fills in Archetypes.
func (t *Table) InternArchetypes() []int16 {
	codes := make(map[string]int16)
	ids := make([]int16, len(t.Rows))
	for i, row := range t.Rows {
		code, ok := codes[row.Archetype]
		if !ok {
			code = int16(len(t.Archetypes))
			codes[row.Archetype] = code
			t.Archetypes = append(t.Archetypes, row.Archetype)
		}
		ids[i] = code
	}
	return ids
}
