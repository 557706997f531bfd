package entity

import "time"

// Profile is what the identity provider knows about a user.
type Profile struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// StagedBlob holds attachment bytes between upload and message send.
type StagedBlob struct {
	Ref         string    `json:"ref"`
	OwnerID     string    `json:"owner_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"data"`
	CreatedAt   time.Time `json:"created_at"`
}
