package roommapping

import (
	"errors"
	"time"
)

// MaxDescriptionLength bounds Mapping.Description.
const MaxDescriptionLength = 5000

var (
	// ErrNotFound is returned when no collection has the requested ID.
	ErrNotFound = errors.New("room mapping collection not found")
	// ErrInvalid is returned for collections that fail validation.
	ErrInvalid = errors.New("invalid room mapping collection")
)

// Vertex is a point in drawing coordinates.
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Mapping assigns a room of the drawing to a category.
type Mapping struct {
	ID            int64    `json:"id,omitempty"`
	RoomName      string   `json:"roomName"`
	Category      int      `json:"category"`
	Description   string   `json:"description,omitempty"`
	MappingVertex *Vertex  `json:"mappingVertex,omitempty"`
	Vertices      []Vertex `json:"vertices,omitempty"`
}

// Collection groups the room mappings made for one CAD file.
type Collection struct {
	ID               int64     `json:"id,omitempty"`
	Name             string    `json:"name"`
	CreatedTimestamp time.Time `json:"createdTimestamp"`
	CADFileID        int64     `json:"cadFileID"`
	Mappings         []Mapping `json:"mappings,omitempty"`
}

// Reference identifies a collection without its mappings.
type Reference struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	CreatedTimestamp time.Time `json:"createdTimestamp"`
}
