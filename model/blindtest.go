package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TrackIDList is stored as a JSON column.
type TrackIDList []int64

// Scan implements sql.Scanner.
func (l *TrackIDList) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported tracklist column type %T", value)
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*l = nil
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Value implements driver.Valuer.
func (l TrackIDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Blindtest is a persisted game definition.
type Blindtest struct {
	ID        uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string      `json:"name" gorm:"size:100;not null"`
	Type      string      `json:"type" gorm:"size:20;default:'default';index"`
	Tracklist TrackIDList `json:"tracklist" gorm:"type:json"`
	CreatedAt time.Time   `json:"created" gorm:"column:created"`
	UpdatedAt time.Time   `json:"updated" gorm:"column:updated"`
}

// TableName pins the table name.
func (Blindtest) TableName() string {
	return "blindtests"
}

const (
	BlindtestTypeDefault  = "default"
	BlindtestTypeFlow     = "flow"
	BlindtestTypePlaylist = "playlist"
)

// Validate checks a definition before it is written. An empty type is
// normalized to the default one.
func (b *Blindtest) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch b.Type {
	case "":
		b.Type = BlindtestTypeDefault
	case BlindtestTypeDefault, BlindtestTypeFlow, BlindtestTypePlaylist:
	default:
		return fmt.Errorf("unknown blindtest type %q", b.Type)
	}
	return nil
}
