package auth

// VideoGrant mirrors the permission set understood by the media platform.
// A missing flag means the permission is not granted.
type VideoGrant struct {
	RoomCreate bool   `json:"roomCreate,omitempty"`
	RoomJoin   bool   `json:"roomJoin,omitempty"`
	RoomList   bool   `json:"roomList,omitempty"`
	RoomRecord bool   `json:"roomRecord,omitempty"`
	RoomAdmin  bool   `json:"roomAdmin,omitempty"`
	Room       string `json:"room,omitempty"`

	CanPublish   bool `json:"canPublish,omitempty"`
	CanSubscribe bool `json:"canSubscribe,omitempty"`

	// participant is not visible to others in the room
	Hidden bool `json:"hidden,omitempty"`
}

// ClaimGrants is the application half of the JWT claim set, alongside the
// registered claims (iss, sub, nbf, exp).
type ClaimGrants struct {
	Identity   string            `json:"-"`
	Name       string            `json:"name,omitempty"`
	Video      *VideoGrant       `json:"video,omitempty"`
	Metadata   string            `json:"metadata,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (c *ClaimGrants) Clone() *ClaimGrants {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Video != nil {
		video := *c.Video
		clone.Video = &video
	}
	if c.Attributes != nil {
		clone.Attributes = make(map[string]string, len(c.Attributes))
		for k, v := range c.Attributes {
			clone.Attributes[k] = v
		}
	}
	return &clone
}
