package util

import (
	"github.com/google/uuid"
)

// NewRunID generates the identifier of an enrichment run
func NewRunID() string {
	return uuid.NewString()
}
