package settings

import (
	"encoding/json"

	"github.com/tusharkarle/gym-management/internal/models"
)

// DB config keys and defaults for settings.
const (
	// GymNameKey is the display name of the gym.
	GymNameKey = "GYM_NAME"
	// DefaultGymName is the fallback gym name.
	DefaultGymName = "Gym Management"
	// GymTaglineKey is the tagline shown under the gym name.
	GymTaglineKey = "GYM_TAGLINE"
	// DefaultGymTagline is the fallback tagline.
	DefaultGymTagline = "Your Fitness Partner"
	// GymContactEmailKey is the public contact email.
	GymContactEmailKey = "GYM_CONTACT_EMAIL"
	// DefaultGymContactEmail is the fallback contact email.
	DefaultGymContactEmail = "info@gym.com"
	// GymContactPhoneKey is the public contact phone.
	GymContactPhoneKey = "GYM_CONTACT_PHONE"
	// DefaultGymContactPhone is the fallback contact phone.
	DefaultGymContactPhone = ""
	// ExpiringWindowDaysKey controls how far ahead the dashboard looks for expiring subscriptions.
	ExpiringWindowDaysKey = "EXPIRING_WINDOW_DAYS"
	// DefaultExpiringWindowDays is the fallback expiring window.
	DefaultExpiringWindowDays = 7
)

type defaultSetting struct {
	key         string
	value       any
	description string
}

var defaultSettings = []defaultSetting{
	{GymNameKey, DefaultGymName, "Gym display name"},
	{GymTaglineKey, DefaultGymTagline, "Tagline shown under the gym name"},
	{GymContactEmailKey, DefaultGymContactEmail, "Public contact email"},
	{GymContactPhoneKey, DefaultGymContactPhone, "Public contact phone"},
	{ExpiringWindowDaysKey, DefaultExpiringWindowDays, "Days ahead the dashboard lists expiring subscriptions"},
}

// Defaults returns the rows seeded into a fresh settings table.
func Defaults() []models.Setting {
	out := make([]models.Setting, 0, len(defaultSettings))
	for _, def := range defaultSettings {
		raw, err := json.Marshal(def.value)
		if err != nil {
			continue
		}
		description := def.description
		out = append(out, models.Setting{
			Key:         def.key,
			Value:       raw,
			Description: &description,
		})
	}
	return out
}
