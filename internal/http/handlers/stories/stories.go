package stories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/princekumarofficial/stories-viewer/internal/events"
	"github.com/princekumarofficial/stories-viewer/internal/feed"
	"github.com/princekumarofficial/stories-viewer/internal/http/middleware"
	"github.com/princekumarofficial/stories-viewer/internal/storage"
	"github.com/princekumarofficial/stories-viewer/internal/types"
	"github.com/princekumarofficial/stories-viewer/internal/utils/response"
	"github.com/princekumarofficial/stories-viewer/internal/utils/timeutil"
)

// feedCollection is one author ring in the feed rail, with the relative
// label the chrome displays under the avatar.
type feedCollection struct {
	types.AuthorCollection
	LastPostedLabel string `json:"last_posted_label,omitempty"`
}

// Feed returns the viewer's aggregated story rail: own collection first,
// then every other author ascending by freshness, each with a viewed count
// @Summary Get aggregated stories feed
// @Tags stories
// @Security BearerAuth
// @Success 200 {object} response.Response "Feed retrieved successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /feed [get]
func Feed(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		stories, err := store.GetActiveStories(userID)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		cols := feed.Group(stories, userID)

		authorIDs := lo.Map(cols, func(c types.AuthorCollection, _ int) string {
			return c.AuthorID
		})
		authors, err := store.GetUsersByIDs(authorIDs)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}
		meta := make(map[string]feed.Author, len(authors))
		for id, u := range authors {
			meta[id] = feed.Author{Name: u.Username, Avatar: u.Avatar}
		}
		feed.AttachAuthors(cols, meta)

		viewedIDs, err := store.GetViewedStoryIDs(userID)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}
		viewed := lo.SliceToMap(viewedIDs, func(id string) (string, struct{}) {
			return id, struct{}{}
		})
		feed.ApplyViewedCounts(cols, userID, func(id string) bool {
			_, ok := viewed[id]
			return ok
		})

		now := time.Now()
		out := lo.Map(cols, func(c types.AuthorCollection, _ int) feedCollection {
			fc := feedCollection{AuthorCollection: c}
			if len(c.Stories) > 0 {
				fc.LastPostedLabel = timeutil.RelativeLabel(c.LatestCreatedAt(), now)
			}
			return fc
		})

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Feed retrieved successfully", out))
	}
}

// PostStory handles creating a new story
// @Summary Create a new story
// @Tags stories
// @Accept json
// @Produce json
// @Param story body types.StoryPostRequest true "Story content"
// @Success 201 {object} map[string]string "Story created successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /stories [post]
func PostStory(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var story types.StoryPostRequest

		err := json.NewDecoder(r.Body).Decode(&story)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
			return
		} else if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		validate := validator.New()
		err = validate.Struct(story)
		if err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		storyID, err := store.CreateStory(userID, story)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}
		slog.Info("Story created with ID:", slog.String("story_id", storyID))

		response.WriteJSON(w, http.StatusCreated, map[string]string{"id": storyID})
	}
}

// ViewStory records that the authenticated user has seen a story. It is
// idempotent and a no-op for the viewer's own stories
// @Summary Record a story view
// @Tags stories
// @Param id path string true "Story ID"
// @Success 200 {object} response.Response "View recorded successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Story not found"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /stories/{id}/view [post]
func ViewStory(store storage.Storage, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		storyID := r.PathValue("id")
		if storyID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("story ID is required")))
			return
		}

		story, err := store.GetStoryByID(storyID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("story not found")))
				return
			}
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		// Own stories never accumulate view records.
		if story.AuthorID == userID {
			response.WriteJSON(w, http.StatusOK, response.RequestOK("View recorded successfully", nil))
			return
		}

		err = store.RecordStoryView(storyID, userID)
		if err != nil {
			slog.Error("Failed to record story view", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		if publisher != nil {
			publisher.PublishStoryViewed(storyID, userID, story.AuthorID)
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("View recorded successfully", nil))
	}
}

// ToggleRepost flips the user's repost of a story. Never applied
// optimistically by clients: the response carries the confirmed state
// @Summary Toggle a story repost
// @Tags stories
// @Param id path string true "Story ID"
// @Success 200 {object} response.Response "Repost toggled"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Story not found"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /stories/{id}/repost [post]
func ToggleRepost(store storage.Storage, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		storyID := r.PathValue("id")
		if storyID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("story ID is required")))
			return
		}

		story, err := store.GetStoryByID(storyID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("story not found")))
				return
			}
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		isReposted, err := store.ToggleRepost(storyID, userID)
		if err != nil {
			slog.Error("Failed to toggle repost", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		if publisher != nil {
			publisher.PublishStoryReposted(storyID, userID, story.AuthorID, isReposted)
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Repost toggled", map[string]bool{
			"is_reposted": isReposted,
		}))
	}
}

// viewerEntry is one row of the viewer panel.
type viewerEntry struct {
	types.ViewerRecord
	ViewedLabel string `json:"viewed_label"`
}

// ListViewers returns who has seen one of the caller's own stories
// @Summary List viewers of an owned story
// @Tags stories
// @Param id path string true "Story ID"
// @Success 200 {object} response.Response "Viewers retrieved successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Not the story author"
// @Failure 404 {object} response.Response "Story not found"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /stories/{id}/viewers [get]
func ListViewers(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		storyID := r.PathValue("id")
		if storyID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("story ID is required")))
			return
		}

		story, err := store.GetStoryByID(storyID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("story not found")))
				return
			}
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		if story.AuthorID != userID {
			response.WriteJSON(w, http.StatusForbidden, response.GeneralError(errors.New("only the author can list viewers")))
			return
		}

		viewers, err := store.ListStoryViewers(storyID)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		now := time.Now()
		out := lo.Map(viewers, func(v types.ViewerRecord, _ int) viewerEntry {
			return viewerEntry{
				ViewerRecord: v,
				ViewedLabel:  timeutil.RelativeLabel(v.ViewedAt, now),
			}
		})

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Viewers retrieved successfully", out))
	}
}

// ViewedIDs returns the caller's confirmed viewed story ids; viewer
// sessions load this once and re-fetch it after a rollback
// @Summary Get confirmed viewed story ids
// @Tags stories
// @Security BearerAuth
// @Success 200 {object} response.Response "Viewed ids retrieved successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /viewed [get]
func ViewedIDs(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		ids, err := store.GetViewedStoryIDs(userID)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Viewed ids retrieved successfully", ids))
	}
}
