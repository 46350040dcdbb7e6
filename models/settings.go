package models

import "time"

// GlobalSettings holds the mutable, admin-controlled limits. A limit of 0
// means unlimited. Read fresh on every quota check so changes take effect
// immediately.
type GlobalSettings struct {
	FreeDailyLimit    int       `json:"freeDailyLimit"`
	PremiumDailyLimit int       `json:"premiumDailyLimit"`
	IsMaintenanceMode bool      `json:"isMaintenanceMode"`
	MinAppVersion     string    `json:"minAppVersion"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
