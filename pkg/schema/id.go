package schema

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewRecordID generates a new record ID in format VIS-{nanoid(10)}.
func NewRecordID() (string, error) {
	id, err := gonanoid.New(10)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("VIS-%s", id), nil
}

// NewEventID generates a new event ID in format EVT-{nanoid(10)}.
func NewEventID() (string, error) {
	id, err := gonanoid.New(10)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("EVT-%s", id), nil
}
