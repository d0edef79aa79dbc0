package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"

	"github.com/matzehuels/paperfigs/pkg/errors"
	"github.com/matzehuels/paperfigs/pkg/geo"
)

// ShapefileOptions names the attribute fields read from a country shapefile.
type ShapefileOptions struct {
	CodeField string // default "ISO_A3"
	NameField string // default "NAME"
	// FallbackCodeField is read when CodeField holds "-99" (Natural Earth
	// uses that for France, Norway and Kosovo). Default "ADM0_A3".
	FallbackCodeField string
}

func (o *ShapefileOptions) setDefaults() {
	if o.CodeField == "" {
		o.CodeField = "ISO_A3"
	}
	if o.NameField == "" {
		o.NameField = "NAME"
	}
	if o.FallbackCodeField == "" {
		o.FallbackCodeField = "ADM0_A3"
	}
}

const missingCode = "-99"

// LoadShapefile reads polygon features from an ESRI shapefile (.shp with its
// .dbf sidecar). Coordinates are returned as lon/lat degrees.
//
// A missing file fails with DATA_NOT_FOUND; missing code or name attributes
// fail with SCHEMA_MISMATCH. Non-polygon shapes are skipped.
func LoadShapefile(path string, opts ShapefileOptions) ([]geo.Feature, error) {
	opts.setDefaults()

	if !strings.EqualFold(filepath.Ext(path), ".shp") {
		return nil, errors.New(errors.ErrCodeInvalidInput, "shapefile %s: want a .shp path", path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataNotFound, err, "shapefile %s", path)
	}
	reader, err := shp.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataNotFound, err, "open shapefile %s", path)
	}
	defer reader.Close()

	codeIdx, nameIdx, fallbackIdx := -1, -1, -1
	for i, f := range reader.Fields() {
		switch attrName(f.String()) {
		case opts.CodeField:
			codeIdx = i
		case opts.NameField:
			nameIdx = i
		case opts.FallbackCodeField:
			fallbackIdx = i
		}
	}
	if codeIdx < 0 {
		return nil, errors.New(errors.ErrCodeSchemaMismatch, "shapefile %s: missing attribute %q", path, opts.CodeField)
	}
	if nameIdx < 0 {
		return nil, errors.New(errors.ErrCodeSchemaMismatch, "shapefile %s: missing attribute %q", path, opts.NameField)
	}

	var features []geo.Feature
	for reader.Next() {
		n, shape := reader.Shape()
		rings := shapeRings(shape)
		if rings == nil {
			continue
		}

		f := geo.Feature{
			Name:  attrName(reader.ReadAttribute(n, nameIdx)),
			Rings: rings,
		}
		code := attrName(reader.ReadAttribute(n, codeIdx))
		if (code == missingCode || code == "") && fallbackIdx >= 0 {
			code = attrName(reader.ReadAttribute(n, fallbackIdx))
		}
		if code != "" && code != missingCode {
			f.Code, f.HasCode = strings.ToUpper(code), true
		}
		features = append(features, f)
	}
	if err := reader.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSchemaMismatch, err, "read shapefile %s", path)
	}
	return features, nil
}

func attrName(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

func shapeRings(s shp.Shape) []geo.Ring {
	var parts []int32
	var points []shp.Point
	switch p := s.(type) {
	case *shp.Polygon:
		parts, points = p.Parts, p.Points
	case *shp.PolygonZ:
		parts, points = p.Parts, p.Points
	case *shp.PolygonM:
		parts, points = p.Parts, p.Points
	default:
		return nil
	}

	rings := make([]geo.Ring, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || int(end) > len(points) {
			continue
		}
		ring := make(geo.Ring, 0, end-start)
		for _, pt := range points[start:end] {
			ring = append(ring, geo.Point{X: pt.X, Y: pt.Y})
		}
		rings = append(rings, ring)
	}
	return rings
}
