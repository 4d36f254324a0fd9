package gormstore

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSONMap is a helper type for storing JSON maps in GORM
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// UserModel is the GORM model for user accounts. Credential accounts carry a
// password hash; OAuth accounts carry the provider that vouched for them.
type UserModel struct {
	ID             string    `gorm:"primaryKey;size:36"`
	Email          string    `gorm:"uniqueIndex;size:320"`
	Name           string    `gorm:"size:255"`
	Image          string    `gorm:"size:1024"`
	Role           string    `gorm:"size:64"`
	HashedPassword string    `gorm:"size:255"`
	Provider       string    `gorm:"size:32"`
	Extra          JSONMap   `gorm:"type:jsonb"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}
