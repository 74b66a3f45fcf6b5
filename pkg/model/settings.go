package model

import "time"

// UserSettings keys on the roster name. Sound and vibration feedback
// default to on; the floor relies on both with scan guns.
type UserSettings struct {
	UserName    string    `json:"user_name" bson:"_id" validate:"required,roster_name"`
	Language    string    `json:"language" bson:"language" validate:"required,oneof=en es"`
	SoundOn     bool      `json:"sound_on" bson:"sound_on"`
	VibrationOn bool      `json:"vibration_on" bson:"vibration_on"`
	Timezone    string    `json:"timezone" bson:"timezone" validate:"required"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

type UserSettingsUpdate struct {
	Language    string `json:"language,omitempty" validate:"omitempty,oneof=en es"`
	SoundOn     *bool  `json:"sound_on,omitempty"`
	VibrationOn *bool  `json:"vibration_on,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}
