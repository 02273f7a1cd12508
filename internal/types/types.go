package types

import "time"

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityFriends Visibility = "friends"
	VisibilityPrivate Visibility = "private"
)

// MediaKind classifies the media reference carried by a story.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Story is an ephemeral post as fetched from storage. Immutable once
// fetched; the viewer engine never mutates it. Text, media and audio are all
// optional: a story with none of them renders as a background-color card.
type Story struct {
	ID         string     `json:"id"`
	AuthorID   string     `json:"author_id"`
	Text       string     `json:"text,omitempty"`
	MediaKey   string     `json:"media_key,omitempty"`
	MediaKind  MediaKind  `json:"media_kind,omitempty"`
	AudioKey   string     `json:"audio_key,omitempty"`
	DurationMs int64      `json:"duration_ms,omitempty"`
	Background string     `json:"background,omitempty"`
	Visibility Visibility `json:"visibility"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// Duration returns the declared display duration, or zero when the story
// does not declare one (callers substitute the configured default).
func (s Story) Duration() time.Duration {
	return time.Duration(s.DurationMs) * time.Millisecond
}

// AuthorCollection is one author's active stories in storage order, which is
// newest-first. Playback traverses the reverse of this order.
type AuthorCollection struct {
	AuthorID     string  `json:"author_id"`
	AuthorName   string  `json:"author_name"`
	AuthorAvatar string  `json:"author_avatar,omitempty"`
	Stories      []Story `json:"stories"`
	// ViewedCount is filled in for the requesting viewer when the feed is
	// rendered; it drives the segmented progress ring.
	ViewedCount int `json:"viewed_count"`
}

// PlaybackOrder returns the collection's stories oldest-first, the order the
// viewer actually plays them in. Storage order is left untouched.
func (c AuthorCollection) PlaybackOrder() []Story {
	out := make([]Story, len(c.Stories))
	for i, s := range c.Stories {
		out[len(c.Stories)-1-i] = s
	}
	return out
}

// LatestCreatedAt returns the creation time of the collection's most recent
// story, or the zero time for an empty collection.
func (c AuthorCollection) LatestCreatedAt() time.Time {
	var latest time.Time
	for _, s := range c.Stories {
		if s.CreatedAt.After(latest) {
			latest = s.CreatedAt
		}
	}
	return latest
}

// StoryIDs returns the ids of all stories in the collection.
func (c AuthorCollection) StoryIDs() []string {
	ids := make([]string, len(c.Stories))
	for i, s := range c.Stories {
		ids[i] = s.ID
	}
	return ids
}

// ViewerRecord is one entry in the viewer list of an owned story. Produced
// on demand for the story's author only, never cached long-term.
type ViewerRecord struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar,omitempty"`
	ViewedAt time.Time `json:"viewed_at"`
}

type StoryPostRequest struct {
	Text            string     `json:"text"`
	MediaKey        string     `json:"media_key"`
	MediaKind       MediaKind  `json:"media_kind" validate:"omitempty,oneof=image video"`
	AudioKey        string     `json:"audio_key"`
	DurationMs      int64      `json:"duration_ms" validate:"omitempty,min=0"`
	Background      string     `json:"background"`
	Visibility      Visibility `validate:"required" json:"visibility"`
	AudienceUserIDs []string   `json:"audience_user_ids"`
}
