package media

import (
	"errors"
	"net/http"

	"github.com/princekumarofficial/stories-viewer/internal/http/middleware"
	"github.com/princekumarofficial/stories-viewer/internal/services/media"
	"github.com/princekumarofficial/stories-viewer/internal/utils/response"
)

// ResolveURL returns a short-lived playback URL for a story media object
// @Summary Resolve a media key to a playback URL
// @Tags media
// @Param key path string true "Object key"
// @Success 200 {object} response.Response "URL resolved"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Media not found"
// @Security BearerAuth
// @Router /media/{key}/url [get]
func ResolveURL(svc *media.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		key := r.PathValue("key")
		if key == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("object key is required")))
			return
		}

		resolved, err := svc.ResolveURL(r.Context(), key)
		if err != nil {
			// A dangling media key renders as a background-only card on
			// the client; this is a soft failure.
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("media not found")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("URL resolved", resolved))
	}
}
