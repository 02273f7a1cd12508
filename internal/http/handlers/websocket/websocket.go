package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/princekumarofficial/stories-viewer/internal/config"
	"github.com/princekumarofficial/stories-viewer/internal/events"
	"github.com/princekumarofficial/stories-viewer/internal/feed"
	"github.com/princekumarofficial/stories-viewer/internal/session"
	"github.com/princekumarofficial/stories-viewer/internal/storage"
	"github.com/princekumarofficial/stories-viewer/internal/types"
	"github.com/princekumarofficial/stories-viewer/internal/utils/jwt"
	"github.com/princekumarofficial/stories-viewer/internal/utils/response"
	"github.com/princekumarofficial/stories-viewer/internal/viewedstate"
	wsClient "github.com/princekumarofficial/stories-viewer/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin for development
		// In production, you should check the origin properly
		return true
	},
}

// frame is one inbound client message on the session socket.
type frame struct {
	Type     string           `json:"type"` // open | advance | close | pointer | compose
	AuthorID string           `json:"author_id,omitempty"`
	Viewport float64          `json:"viewport,omitempty"`
	Delta    int              `json:"delta,omitempty"`
	Kind     string           `json:"kind,omitempty"` // pointer: down | move | up
	Pointer  *session.Pointer `json:"pointer,omitempty"`
	Active   bool             `json:"active,omitempty"`
	Draft    string           `json:"draft,omitempty"`
}

// storageSyncer adapts the storage layer to the viewed-state store's view of
// the server, publishing the author-side viewed notification on success.
type storageSyncer struct {
	store     storage.Storage
	publisher events.Publisher
	viewerID  string
}

func (s *storageSyncer) FetchViewedIDs(ctx context.Context) ([]string, error) {
	return s.store.GetViewedStoryIDs(s.viewerID)
}

func (s *storageSyncer) RecordView(ctx context.Context, storyID string) error {
	story, err := s.store.GetStoryByID(storyID)
	if err != nil {
		return err
	}
	if err := s.store.RecordStoryView(storyID, s.viewerID); err != nil {
		return err
	}
	if s.publisher != nil {
		s.publisher.PublishStoryViewed(storyID, s.viewerID, story.AuthorID)
	}
	return nil
}

// SessionHandler upgrades the connection and runs a viewer session for the
// authenticated user: inbound frames become engine commands, engine state
// snapshots flow back through the hub.
func SessionHandler(hub *wsClient.Hub, store storage.Storage, publisher events.Publisher, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			slog.Warn("WebSocket connection attempted without token")
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("token required")))
			return
		}

		userID, err := jwt.ExtractUserIDFromToken(token, cfg.JWTSecret)
		if err != nil {
			slog.Warn("WebSocket connection attempted with invalid token", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("invalid token")))
			return
		}

		sess, viewed, err := buildSession(userID, store, publisher, cfg, hub)
		if err != nil {
			slog.Error("Failed to build viewer session", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to build session")))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("Failed to upgrade WebSocket connection", slog.String("error", err.Error()))
			return
		}

		ctx, cancel := context.WithCancel(context.Background())

		onMessage := func(data []byte) {
			dispatch(sess, data)
		}
		onClose := func() {
			cancel()
			// Dismissing the viewer never cancels in-flight view records;
			// wait for them off the read pump.
			go viewed.Flush()
		}

		client := wsClient.NewClient(conn, userID, hub, onMessage, onClose)
		hub.RegisterClient(client)
		client.Start()

		go sess.Run(ctx)

		slog.Info("Viewer session established",
			slog.String("user_id", userID),
			slog.String("session_id", sess.ID))
	}
}

func buildSession(userID string, store storage.Storage, publisher events.Publisher, cfg *config.Config, hub *wsClient.Hub) (*session.Session, *viewedstate.Store, error) {
	stories, err := store.GetActiveStories(userID)
	if err != nil {
		return nil, nil, err
	}

	cols := feed.Group(stories, userID)

	authorIDs := lo.Map(cols, func(c types.AuthorCollection, _ int) string {
		return c.AuthorID
	})
	authors, err := store.GetUsersByIDs(authorIDs)
	if err != nil {
		return nil, nil, err
	}
	meta := make(map[string]feed.Author, len(authors))
	for id, u := range authors {
		meta[id] = feed.Author{Name: u.Username, Avatar: u.Avatar}
	}
	feed.AttachAuthors(cols, meta)

	viewed := viewedstate.New(userID, &storageSyncer{
		store:     store,
		publisher: publisher,
		viewerID:  userID,
	})
	if err := viewed.Load(context.Background()); err != nil {
		return nil, nil, err
	}

	sess := session.New(userID, cols, viewed, cfg.Viewer, func(ev *types.Event) {
		hub.BroadcastToUser(userID, ev)
	})
	return sess, viewed, nil
}

func dispatch(sess *session.Session, data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		slog.Warn("Dropping malformed session frame", slog.String("error", err.Error()))
		return
	}

	switch f.Type {
	case "open":
		sess.OpenAuthor(f.AuthorID, f.Viewport)
	case "advance":
		sess.Advance(f.Delta)
	case "close":
		sess.Close()
	case "compose":
		sess.ComposeReply(f.Active, f.Draft)
	case "pointer":
		if f.Pointer == nil {
			return
		}
		sess.PointerEvent(f.Kind, *f.Pointer)
	default:
		slog.Warn("Unknown session frame type", slog.String("type", f.Type))
	}
}
