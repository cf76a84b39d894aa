package core

import (
	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// GeneKey names a gene within a dataset (symbol or Ensembl ID, resolved upstream)
	GeneKey string
	// DatasetID names a loaded expression dataset
	DatasetID ID
	// RunID identifies one analysis run (screen, phase gating, ...)
	RunID ID
	// RecordID identifies a stored per-gene result record
	RecordID ID
)

func (k GeneKey) String() string    { return string(k) }
func (id DatasetID) String() string { return ID(id).String() }
func (id RunID) String() string     { return ID(id).String() }
func (id RecordID) String() string  { return ID(id).String() }
