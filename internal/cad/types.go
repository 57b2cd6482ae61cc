package cad

import (
	"errors"
	"time"
)

// MaxNameLength bounds File.Name.
const MaxNameLength = 1000

// TypeDXF is the only drawing format the viewer renders today.
const TypeDXF = "DXF"

var (
	// ErrNotFound is returned when no CAD file has the requested ID.
	ErrNotFound = errors.New("cad file not found")
	// ErrInvalid is returned for CAD files that fail validation.
	ErrInvalid = errors.New("invalid cad file")
)

// File is a stored CAD drawing. Data is base64 encoded in JSON.
type File struct {
	ID               int64     `json:"id,omitempty"`
	Name             string    `json:"name"`
	Type             string    `json:"type,omitempty"`
	Data             []byte    `json:"data,omitempty"`
	CharsetName      string    `json:"charsetName,omitempty"`
	CreatedTimestamp time.Time `json:"createdTimestamp"`
}

// Reference identifies a CAD file without its payload.
type Reference struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	CreatedTimestamp time.Time `json:"createdTimestamp"`
}

// Ref returns the reference for f.
func (f File) Ref() Reference {
	return Reference{ID: f.ID, Name: f.Name, CreatedTimestamp: f.CreatedTimestamp}
}
