package entities

import "time"

// Setting is a simple key/value row for app state (region, cookie file
// path, last sync time).
type Setting struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Well-known setting keys.
const (
	SettingRegion     = "region"
	SettingCookieFile = "cookie_file"
	SettingLastSync   = "last_sync"
)
