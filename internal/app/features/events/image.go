// internal/app/features/events/image.go
package events

import (
	"context"
	"net/http"
	"path"
	"strings"

	apierrors "github.com/dispoapp/dispo/internal/app/features/errors"
	eventstore "github.com/dispoapp/dispo/internal/app/store/events"
	"github.com/dispoapp/dispo/internal/app/system/auth"
	"github.com/dispoapp/dispo/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxImageBytes caps event and photo uploads at 10 MB.
const maxImageBytes = 10 << 20

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// HandleUploadImage handles POST /api/events/{id}/image. Creator-only,
// multipart field "image". Replacing an image orphans the old blob;
// acceptable for local disk.
func (h *Handler) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	e, err := h.loadOwned(ctx, w, chi.URLParam(r, "id"), u.ID)
	if err != nil {
		return
	}

	url, ok := h.saveUpload(w, r, "events/"+e.ID)
	if !ok {
		return
	}

	if err := eventstore.New(h.DB).SetImageURL(ctx, e.ID, url); err != nil {
		h.ErrLog.Internal(w, "events: set image url", err)
		return
	}

	h.Log.Info("event image uploaded",
		zap.String("event_id", e.ID),
		zap.String("url", url))
	apierrors.JSON(w, http.StatusOK, map[string]string{"image_url": url})
}

// saveUpload pulls the "image" part out of a multipart request and
// writes it to blob storage under keyPrefix. It writes the error
// response itself; ok is false when it did.
func (h *Handler) saveUpload(w http.ResponseWriter, r *http.Request, keyPrefix string) (url string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		apierrors.BadRequest(w, "multipart form with an \"image\" file is required")
		return "", false
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		apierrors.BadRequest(w, "missing \"image\" file")
		return "", false
	}
	defer file.Close()

	ext := strings.ToLower(path.Ext(header.Filename))
	if !imageExts[ext] {
		apierrors.BadRequest(w, "unsupported image type")
		return "", false
	}

	key := keyPrefix + "/" + uuid.NewString() + ext
	url, err = h.Blobs.Save(r.Context(), key, file)
	if err != nil {
		h.ErrLog.Internal(w, "events: store image", err)
		return "", false
	}
	return url, true
}
