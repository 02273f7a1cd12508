package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/samber/lo"

	"github.com/princekumarofficial/stories-viewer/internal/storage"
	"github.com/princekumarofficial/stories-viewer/internal/types"
	"github.com/princekumarofficial/stories-viewer/internal/types/users"
)

// Service wraps storage with Redis caching. It implements storage.Storage
// and is dropped in wherever the raw postgres layer would be.
type Service struct {
	storage storage.Storage
	redis   *redis.Client
}

func NewService(storage storage.Storage, redisClient *redis.Client) *Service {
	return &Service{
		storage: storage,
		redis:   redisClient,
	}
}

// Cache key patterns
const (
	ActiveStoriesKey = "stories:active:%s" // stories:active:viewerID
	ViewedIDsKey     = "viewed:user:%s"    // viewed:user:viewerID
	StoryKey         = "story:%s"          // story:storyID
)

// Cache durations. Feeds stay hot only briefly; the viewed-id set is the
// session's source of truth after load, so its cache exists just to absorb
// refresh bursts. Viewer lists are never cached: they are owner-only,
// on-demand data.
const (
	ActiveStoriesCacheDuration = 45 * time.Second
	ViewedIDsCacheDuration     = 30 * time.Second
	StoryCacheDuration         = 10 * time.Minute
)

// GetActiveStories returns the cached visible-story list or fetches from DB.
func (c *Service) GetActiveStories(viewerID string) ([]types.Story, error) {
	ctx := context.Background()
	key := fmt.Sprintf(ActiveStoriesKey, viewerID)

	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var stories []types.Story
		if err := json.Unmarshal([]byte(cached), &stories); err == nil {
			return stories, nil
		}
	}

	stories, err := c.storage.GetActiveStories(viewerID)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(stories)
	c.redis.Set(ctx, key, data, ActiveStoriesCacheDuration)

	return stories, nil
}

// GetViewedStoryIDs returns the viewer's confirmed viewed ids, briefly cached.
func (c *Service) GetViewedStoryIDs(viewerID string) ([]string, error) {
	ctx := context.Background()
	key := fmt.Sprintf(ViewedIDsKey, viewerID)

	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var ids []string
		if err := json.Unmarshal([]byte(cached), &ids); err == nil {
			return ids, nil
		}
	}

	ids, err := c.storage.GetViewedStoryIDs(viewerID)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(ids)
	c.redis.Set(ctx, key, data, ViewedIDsCacheDuration)

	return ids, nil
}

func (c *Service) GetStoryByID(storyID string) (types.Story, error) {
	ctx := context.Background()
	key := fmt.Sprintf(StoryKey, storyID)

	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var story types.Story
		if err := json.Unmarshal([]byte(cached), &story); err == nil {
			return story, nil
		}
	}

	story, err := c.storage.GetStoryByID(storyID)
	if err != nil {
		return story, err
	}

	data, _ := json.Marshal(story)
	c.redis.Set(ctx, key, data, StoryCacheDuration)

	return story, nil
}

// RecordStoryView writes through and drops the viewer's cached viewed set,
// so the next confirmed-id fetch (session load or rollback refresh) sees
// the new record.
func (c *Service) RecordStoryView(storyID, viewerID string) error {
	if err := c.storage.RecordStoryView(storyID, viewerID); err != nil {
		return err
	}

	ctx := context.Background()
	c.redis.Del(ctx, fmt.Sprintf(ViewedIDsKey, viewerID))
	return nil
}

func (c *Service) CreateStory(authorID string, story types.StoryPostRequest) (string, error) {
	storyID, err := c.storage.CreateStory(authorID, story)
	if err != nil {
		return "", err
	}

	// The author sees their new story right away; everyone else's feed
	// cache simply ages out within its short TTL.
	ctx := context.Background()
	c.redis.Del(ctx, fmt.Sprintf(ActiveStoriesKey, authorID))

	if story.Visibility == types.VisibilityPrivate && len(story.AudienceUserIDs) > 0 {
		keys := lo.Map(story.AudienceUserIDs, func(userID string, _ int) string {
			return fmt.Sprintf(ActiveStoriesKey, userID)
		})
		c.redis.Del(ctx, keys...)
	}

	return storyID, nil
}

func (c *Service) SoftDeleteExpiredStories() (int, error) {
	return c.storage.SoftDeleteExpiredStories()
}

// Pass-throughs: not worth caching.

func (c *Service) CreateUser(email, username, password string) (string, error) {
	return c.storage.CreateUser(email, username, password)
}

func (c *Service) GetUserByEmail(email string) (string, string, error) {
	return c.storage.GetUserByEmail(email)
}

func (c *Service) GetUsersByIDs(ids []string) (map[string]users.User, error) {
	return c.storage.GetUsersByIDs(ids)
}

func (c *Service) ToggleRepost(storyID, userID string) (bool, error) {
	return c.storage.ToggleRepost(storyID, userID)
}

func (c *Service) ListStoryViewers(storyID string) ([]types.ViewerRecord, error) {
	return c.storage.ListStoryViewers(storyID)
}
