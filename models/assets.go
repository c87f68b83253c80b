package models

// CustomLocation is a user-saved location preset. Image holds an https URL, an object storage key or,
// when storage is not configured, the uploaded data URL.
type CustomLocation struct {
	JsonModel
	Name   string  `gorm:"not null" json:"name"`
	Image  string  `gorm:"type:text;not null" json:"image"`
	City   string  `json:"city"`
	UserID *string `gorm:"index" json:"user_id"`
}

// CustomOutfit is a user-saved outfit preset.
type CustomOutfit struct {
	JsonModel
	Name     string  `gorm:"not null" json:"name"`
	Image    string  `gorm:"type:text;not null" json:"image"`
	Category string  `json:"category"`
	UserID   *string `gorm:"index" json:"user_id"`
}

const DefaultAssetGroup = "Custom"

// CustomAssetIn is the body of POST /api/locations and POST /api/outfits.
type CustomAssetIn struct {
	Name     string `json:"name"`
	Image    string `json:"image"`
	City     string `json:"city"`
	Category string `json:"category"`
}
