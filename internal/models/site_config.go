package models

// SiteConfig stores instance-level configuration for one site.
type SiteConfig struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	Site     string `gorm:"size:64;uniqueIndex"`
	Timezone string `gorm:"size:64;default:UTC"`
	Settings string `gorm:"type:json"`
}
