package events

import (
	"time"

	"github.com/princekumarofficial/stories-viewer/internal/types"
)

// Publisher interface for publishing events
type Publisher interface {
	PublishStoryViewed(storyID, viewerID, authorID string) error
	PublishStoryReposted(storyID, userID, authorID string, isReposted bool) error
}

// EventPublisher implements the Publisher interface
type EventPublisher struct {
	hub WebSocketHub
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastToUser(userID string, event *types.Event)
	BroadcastToUsers(userIDs []string, event *types.Event)
	IsUserConnected(userID string) bool
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
	}
}

// PublishStoryViewed notifies a story's author that someone viewed it
func (p *EventPublisher) PublishStoryViewed(storyID, viewerID, authorID string) error {
	// Authors never get notified about their own views
	if viewerID == authorID {
		return nil
	}

	if !p.hub.IsUserConnected(authorID) {
		return nil
	}

	eventData := &types.StoryViewedEvent{
		StoryID:  storyID,
		ViewerID: viewerID,
		ViewedAt: time.Now().UTC().Format(time.RFC3339),
	}

	event := types.NewEvent(types.EventStoryViewed, eventData)
	p.hub.BroadcastToUser(authorID, event)

	return nil
}

// PublishStoryReposted notifies a story's author about a repost toggle
func (p *EventPublisher) PublishStoryReposted(storyID, userID, authorID string, isReposted bool) error {
	if userID == authorID {
		return nil
	}

	if !p.hub.IsUserConnected(authorID) {
		return nil
	}

	eventData := &types.StoryRepostedEvent{
		StoryID:    storyID,
		UserID:     userID,
		IsReposted: isReposted,
		RepostedAt: time.Now().UTC().Format(time.RFC3339),
	}

	event := types.NewEvent(types.EventStoryReposted, eventData)
	p.hub.BroadcastToUser(authorID, event)

	return nil
}
