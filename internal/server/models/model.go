// Package models defines the records stored in the directory database.
package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Model struct {
	ID uint `gorm:"primarykey"`
	// CreatedAt and UpdatedAt are set by GORM.
	// See https://gorm.io/docs/conventions.html#Timestamp-Tracking
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// CommaSeparatedStrings is a string slice stored as a single text column.
type CommaSeparatedStrings []string

func (s CommaSeparatedStrings) Value() (driver.Value, error) {
	return strings.Join([]string(s), ","), nil
}

func (s *CommaSeparatedStrings) Scan(v interface{}) error {
	parts := strings.Split(v.(string), ",")
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}

	*s = CommaSeparatedStrings(parts)
	return nil
}

func (s CommaSeparatedStrings) GormDataType() string {
	return "text"
}

// Includes reports whether value is one of the strings in the slice.
func (s CommaSeparatedStrings) Includes(value string) bool {
	for _, item := range s {
		if item == value {
			return true
		}
	}
	return false
}
