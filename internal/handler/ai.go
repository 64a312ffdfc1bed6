package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pestiq-backend/internal/logger"
	"github.com/iliyamo/pestiq-backend/internal/model"
	"github.com/iliyamo/pestiq-backend/internal/repository"
	"github.com/iliyamo/pestiq-backend/internal/service"
)

// ImageAnalyzer runs pest detection on one image.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, img io.Reader, ext string) (*model.AnalysisResult, error)
}

// AIHandler serves /api/ai/analyze and the ai-results store.
type AIHandler struct {
	Analyzer ImageAnalyzer
	Results  *repository.AIResultRepo
}

// NewAIHandler pairs the detection engine with the ai-results store.
func NewAIHandler(a ImageAnalyzer, results *repository.AIResultRepo) *AIHandler {
	return &AIHandler{Analyzer: a, Results: results}
}

// Analyze runs the engine on the uploaded "image".  The engine has its own
// timeout, so only the client context bounds the call.
func (h *AIHandler) Analyze(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No image uploaded"})
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !imageExts[ext] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Only image files are allowed"})
	}
	src, err := fh.Open()
	if err != nil {
		return serverError(c, err)
	}
	defer src.Close()

	res, err := h.Analyzer.Analyze(c.Request().Context(), src, ext)
	if err != nil {
		msg := service.ErrAnalysisFailed.Error()
		if errors.Is(err, service.ErrInvalidAIResponse) {
			msg = service.ErrInvalidAIResponse.Error()
		}
		logger.FromContext(c.Request().Context()).Error("ai analyze failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
	}
	return c.JSON(http.StatusOK, res)
}

// ----- ai-results -----

// Create handles POST /api/ai-results.
func (h *AIHandler) Create(c echo.Context) error {
	var req model.NewAIResult
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Results.Create(ctx, req, principal(c).Scope())
	if err != nil {
		return storeError(c, err, "Photo")
	}
	return created(c, id, "AI result saved")
}

// ByPhoto handles GET /api/ai-results/photo/:photo_id.
func (h *AIHandler) ByPhoto(c echo.Context) error {
	id, okID := parseID(c, "photo_id")
	if !okID {
		return badID(c, "photo_id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Results.ByPhoto(ctx, id, principal(c).Scope())
	if err != nil {
		return storeError(c, err, "Photo")
	}
	return items(c, list)
}

// Get handles GET /api/ai-results/:id.
func (h *AIHandler) Get(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Results.Get(ctx, id, principal(c).Scope())
	if err != nil {
		return storeError(c, err, "AI result")
	}
	return c.JSON(http.StatusOK, r)
}

// Update handles PUT /api/ai-results/:id.
func (h *AIHandler) Update(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	var req model.AIResultUpdate
	if err := bind(c, &req); err != nil {
		return invalid(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Results.Update(ctx, id, principal(c).Scope(), req); err != nil {
		return storeError(c, err, "AI result")
	}
	return ok(c, "AI result updated")
}

// Delete handles DELETE /api/ai-results/:id.
func (h *AIHandler) Delete(c echo.Context) error {
	id, okID := parseID(c, "id")
	if !okID {
		return badID(c, "id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Results.Delete(ctx, id, principal(c).Scope()); err != nil {
		return storeError(c, err, "AI result")
	}
	return ok(c, "AI result deleted")
}
