// Package mapserver models the JSON documents exposed by ArcGIS MapServer
// REST endpoints. Every field is optional: services in the wild omit most of
// them, and absence must decode to nil rather than fail validation.
package mapserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// SpatialReference identifies the coordinate system of a service.
type SpatialReference struct {
	WKID        *int     `json:"wkid,omitempty"`
	LatestWKID  *int     `json:"latestWkid,omitempty"`
	XYTolerance *float64 `json:"xyTolerance,omitempty"`
	ZTolerance  *float64 `json:"zTolerance,omitempty"`
	MTolerance  *float64 `json:"mTolerance,omitempty"`
	FalseX      *float64 `json:"falseX,omitempty"`
	FalseY      *float64 `json:"falseY,omitempty"`
	XYUnits     *float64 `json:"xyUnits,omitempty"`
	FalseZ      *float64 `json:"falseZ,omitempty"`
	ZUnits      *float64 `json:"zUnits,omitempty"`
	FalseM      *float64 `json:"falseM,omitempty"`
	MUnits      *float64 `json:"mUnits,omitempty"`
}

// Extent is a bounding box, optionally carrying its own spatial reference.
type Extent struct {
	XMin             *float64          `json:"xmin,omitempty"`
	YMin             *float64          `json:"ymin,omitempty"`
	XMax             *float64          `json:"xmax,omitempty"`
	YMax             *float64          `json:"ymax,omitempty"`
	SpatialReference *SpatialReference `json:"spatialReference,omitempty"`
}

// Layer describes one layer inside a map service.
type Layer struct {
	ID                     *int     `json:"id,omitempty"`
	Name                   *string  `json:"name,omitempty"`
	ParentLayerID          *int     `json:"parentLayerId,omitempty"`
	DefaultVisibility      *bool    `json:"defaultVisibility,omitempty"`
	SubLayerIDs            []int    `json:"subLayerIds,omitempty"`
	MinScale               *float64 `json:"minScale,omitempty"`
	MaxScale               *float64 `json:"maxScale,omitempty"`
	Type                   *string  `json:"type,omitempty"`
	GeometryType           *string  `json:"geometryType,omitempty"`
	SupportsDynamicLegends *bool    `json:"supportsDynamicLegends,omitempty"`
}

// DocumentInfo carries the authoring metadata block of a map document.
// Field names are capitalized on the wire.
type DocumentInfo struct {
	Title    *string `json:"Title,omitempty"`
	Author   *string `json:"Author,omitempty"`
	Comments *string `json:"Comments,omitempty"`
	Subject  *string `json:"Subject,omitempty"`
	Category *string `json:"Category,omitempty"`
	Version  *string `json:"Version,omitempty"`
	Keywords *string `json:"Keywords,omitempty"`
}

// ArchivingInfo reports historic-moment query support.
type ArchivingInfo struct {
	SupportsHistoricMoment *bool `json:"supportsHistoricMoment,omitempty"`
}

// Document is the top-level MapServer description returned by
// `<service>/MapServer?f=pjson`.
type Document struct {
	CurrentVersion            *float64          `json:"currentVersion,omitempty"`
	CIMVersion                *string           `json:"cimVersion,omitempty"`
	ServiceDescription        *string           `json:"serviceDescription,omitempty"`
	MapName                   *string           `json:"mapName,omitempty"`
	Description               *string           `json:"description,omitempty"`
	CopyrightText             *string           `json:"copyrightText,omitempty"`
	SupportsDynamicLayers     *bool             `json:"supportsDynamicLayers,omitempty"`
	Layers                    []Layer           `json:"layers,omitempty"`
	Tables                    []map[string]any  `json:"tables,omitempty"`
	SpatialReference          *SpatialReference `json:"spatialReference,omitempty"`
	SingleFusedMapCache       *bool             `json:"singleFusedMapCache,omitempty"`
	InitialExtent             *Extent           `json:"initialExtent,omitempty"`
	FullExtent                *Extent           `json:"fullExtent,omitempty"`
	MinScale                  *float64          `json:"minScale,omitempty"`
	MaxScale                  *float64          `json:"maxScale,omitempty"`
	Units                     *string           `json:"units,omitempty"`
	SupportedImageFormatTypes *string           `json:"supportedImageFormatTypes,omitempty"`
	DocumentInfo              *DocumentInfo     `json:"documentInfo,omitempty"`
	Capabilities              *string           `json:"capabilities,omitempty"`
	SupportedQueryFormats     *string           `json:"supportedQueryFormats,omitempty"`
	ExportTilesAllowed        *bool             `json:"exportTilesAllowed,omitempty"`
	ReferenceScale            *float64          `json:"referenceScale,omitempty"`
	ArchivingInfo             *ArchivingInfo    `json:"archivingInfo,omitempty"`
	MaxRecordCount            *int              `json:"maxRecordCount,omitempty"`
	MaxImageHeight            *int              `json:"maxImageHeight,omitempty"`
	MaxImageWidth             *int              `json:"maxImageWidth,omitempty"`
	SupportedExtensions       *string           `json:"supportedExtensions,omitempty"`
}

// Decode parses a MapServer JSON payload. Unknown fields are ignored; type
// mismatches surface as a validation error naming the offending field.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("mapserver document field %q: expected %s, got %s: %w",
				typeErr.Field, typeErr.Type, typeErr.Value, err)
		}
		return nil, fmt.Errorf("decode mapserver document: %w", err)
	}
	return &doc, nil
}

// LoadFile reads and decodes a MapServer JSON snapshot from disk.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapserver document: %w", err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return doc, nil
}
