package models

// Settings are office-wide options. The realtime core only reads them;
// only admins may update them over the API.
type Settings struct {
	OfficeName       string `json:"officeName"`
	ReminderSoundURL string `json:"reminderSoundUrl"`
	DMSoundURL       string `json:"dmSoundUrl"`
	MaxUploadMb      int    `json:"maxUploadMb"`
}
