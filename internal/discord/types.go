package discord

import "github.com/disgoorg/snowflake/v2"

type User struct {
	ID         snowflake.ID `json:"id"`
	Username   string       `json:"username"`
	GlobalName string       `json:"global_name,omitempty"`
}

// DisplayName returns the global display name of the user, falling back to
// the username.
func (u User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// Message is the subset of the message object fields that we care about.
type Message struct {
	ID        snowflake.ID `json:"id"`
	ChannelID snowflake.ID `json:"channel_id,omitempty"`
	Type      int          `json:"type"`
	Author    User         `json:"author"`
	Content   string       `json:"content,omitempty"`
}
