package handler

import (
	"bytes"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/logger"
	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/queue"
	"github.com/iliyamo/pestiq-backend/internal/repository"
	"github.com/iliyamo/pestiq-backend/internal/storage"
)

var errBadImage = errors.New("invalid processed_image")

var mimeExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// decodeImage accepts raw base64 or a data URL and returns the bytes with
// a file extension.  Raw base64 is assumed to be JPEG.
func decodeImage(s string) ([]byte, string, error) {
	ext := ".jpg"
	if rest, found := strings.CutPrefix(s, "data:"); found {
		meta, payload, okComma := strings.Cut(rest, ",")
		if !okComma || !strings.HasSuffix(meta, ";base64") {
			return nil, "", errBadImage
		}
		e, known := mimeExts[strings.TrimSuffix(meta, ";base64")]
		if !known {
			return nil, "", errBadImage
		}
		ext, s = e, payload
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil || len(data) == 0 {
		return nil, "", errBadImage
	}
	return data, ext, nil
}

// PhotoHandler serves /api/photos.  Images live in Files, rows in Photos.
type PhotoHandler struct {
	Photos *repository.PhotoRepo
	Files  storage.Storage
	Events queue.EventPublisher
}

// NewPhotoHandler builds a PhotoHandler; a nil events drops photo events.
func NewPhotoHandler(photos *repository.PhotoRepo, files storage.Storage, events queue.EventPublisher) *PhotoHandler {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &PhotoHandler{Photos: photos, Files: files, Events: events}
}

// Create stores the processed image and records it with its detection
// summary.  The file is removed again when the insert fails.
func (h *PhotoHandler) Create(c echo.Context) error {
	var req model.NewPhoto
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	data, ext, err := decodeImage(req.ProcessedImage)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid processed_image"})
	}
	p := principal(c)
	ctx, cancel := reqCtx(c)
	defer cancel()

	stored, err := h.Files.Save(ctx, storage.NewKey(storage.CategoryPhotos, ext), bytes.NewReader(data))
	if err != nil {
		return serverError(c, err)
	}
	id, err := h.Photos.AddWithResults(ctx, repository.PhotoRecord{
		CompanyID:      p.Company(),
		MeetingID:      req.MeetingID,
		ExterminatorID: p.ID,
		CustomerID:     req.CustomerID,
		LocationID:     req.LocationID,
		TrapName:       req.TrapName,
		ImageURL:       stored,
	}, *req.Summary)
	if err != nil {
		if derr := h.Files.Delete(ctx, stored); derr != nil {
			logger.Warn("photos: orphan file", "path", stored, "error", derr)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Meeting not found"})
		}
		return storeError(c, err, "Photo")
	}

	ev := queue.NewEvent(queue.EventPhotoUploaded, p.ID, p.Company())
	ev.Data = map[string]any{"photo_id": id, "meeting_id": req.MeetingID, "total_insects": req.Summary.TotalInsects}
	queue.Emit(ctx, h.Events, ev)

	return c.JSON(http.StatusCreated, echo.Map{
		"message":   "Photo saved successfully",
		"photo_id":  id,
		"image_url": h.Files.PublicURL(stored),
	})
}

func (h *PhotoHandler) withURLs(list []model.Photo) []model.Photo {
	for i := range list {
		list[i].ImageURL = h.Files.PublicURL(list[i].ImageURL)
	}
	return list
}

// ByMeeting handles GET /api/photos/meeting/:meeting_id.
func (h *PhotoHandler) ByMeeting(c echo.Context) error {
	id, okID := parseID(c, "meeting_id")
	if !okID {
		return badID(c, "meeting_id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Photos.ByMeeting(ctx, id, principal(c).Scope())
	if err != nil {
		return storeError(c, err, "Photo")
	}
	return items(c, h.withURLs(list))
}

// ByExterminator lists the caller's own uploads.
func (h *PhotoHandler) ByExterminator(c echo.Context) error {
	p := principal(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Photos.ByExterminator(ctx, p.ID, p.Scope())
	if err != nil {
		return storeError(c, err, "Photo")
	}
	return items(c, h.withURLs(list))
}

// ByCompany handles GET /api/photos/company-photos.
func (h *PhotoHandler) ByCompany(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Photos.ByCompany(ctx, principal(c).Scope())
	if err != nil {
		return storeError(c, err, "Photo")
	}
	return items(c, h.withURLs(list))
}

// Delete handles DELETE /api/photos/:id and removes the stored file.
func (h *PhotoHandler) Delete(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	path, err := h.Photos.Delete(ctx, id, principal(c).Scope())
	if err != nil {
		return storeError(c, err, "Photo")
	}
	if err := h.Files.Delete(ctx, path); err != nil {
		logger.Warn("photos: file delete failed", "path", path, "error", err)
	}
	return ok(c, "Photo deleted successfully")
}
