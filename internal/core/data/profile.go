package data

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Profile contains the registration information for each player allowed to
// take a seat at the table. Seat order follows profile ID order.
type Profile struct {
	ID               uint64 `gorm:"primaryKey"`
	ProfileID        string `gorm:"unique; not null"`
	DisplayName      string
	RegistrationDate time.Time
	Banned           bool `gorm:"default:false"`
}

// FindProfileByProfileID searches for a profile with the specified identifier,
// returning the *Profile instance if found or nil if there is no match.
func FindProfileByProfileID(db *gorm.DB, profileID string) (*Profile, error) {
	var profile Profile
	err := db.Where("profile_id = ?", profileID).First(&profile).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &profile, nil
}

// ListProfiles returns all registered profiles in registration order.
func ListProfiles(db *gorm.DB) ([]Profile, error) {
	var profiles []Profile
	if err := db.Order("id").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// CreateProfile persists the Profile record to the database.
func CreateProfile(db *gorm.DB, profile *Profile) error {
	if profile.RegistrationDate.IsZero() {
		profile.RegistrationDate = time.Now()
	}
	return db.Create(profile).Error
}

// UpdateProfile persists any changed fields on an existing Profile record.
func UpdateProfile(db *gorm.DB, profile *Profile) error {
	return db.Save(profile).Error
}

// DeleteProfile removes a Profile record from the database.
func DeleteProfile(db *gorm.DB, profile *Profile) error {
	return db.Delete(profile).Error
}
