package ports

import (
	"prevalence/domain/prevalence"
)

// ObservationReader loads per-individual p-values from an external study
// file (one row per participant).
type ObservationReader interface {
	// ReadPValues reads the named column as per-individual p-values.
	ReadPValues(column string) (prevalence.ObservedData, error)

	// Columns lists the column headers available in the file.
	Columns() ([]string, error)
}
