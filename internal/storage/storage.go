package storage

import (
	"github.com/princekumarofficial/stories-viewer/internal/types"
	"github.com/princekumarofficial/stories-viewer/internal/types/users"
)

type Storage interface {
	CreateUser(email, username, password string) (string, error)
	GetUserByEmail(email string) (string, string, error)
	GetUsersByIDs(ids []string) (map[string]users.User, error)

	CreateStory(authorID string, story types.StoryPostRequest) (string, error)
	GetStoryByID(storyID string) (types.Story, error)
	// GetActiveStories returns every non-expired story visible to the
	// viewer, the viewer's own included, newest-first. Expiry filtering is
	// enforced here, server-side; the viewer engine never re-checks it.
	GetActiveStories(viewerID string) ([]types.Story, error)

	RecordStoryView(storyID, viewerID string) error
	GetViewedStoryIDs(viewerID string) ([]string, error)
	// ToggleRepost flips the viewer's repost of a story and returns the
	// resulting state.
	ToggleRepost(storyID, userID string) (bool, error)
	// ListStoryViewers returns who has seen a story, most recent first.
	// Callers enforce that only the story's author may ask.
	ListStoryViewers(storyID string) ([]types.ViewerRecord, error)

	SoftDeleteExpiredStories() (int, error)
}
