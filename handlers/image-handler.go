package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"github.com/aljonleynes11/media-coding-exam-backend/analysis"
	"github.com/aljonleynes11/media-coding-exam-backend/middleware"
	"github.com/aljonleynes11/media-coding-exam-backend/models"
	"github.com/aljonleynes11/media-coding-exam-backend/repository"
	"github.com/gofiber/fiber/v2"
)

const (
	variantOriginal  = "original"
	variantThumbnail = "thumbnail"

	defaultPageSize = 20
	maxPageSize     = 50
)

type imageURLs struct {
	Original  *string `json:"original"`
	Thumbnail *string `json:"thumbnail"`
}

type imageItem struct {
	Image     *models.Image         `json:"image"`
	Metadata  *models.ImageMetadata `json:"metadata"`
	URLs      *imageURLs            `json:"urls,omitempty"`
	ExpiresIn *int                  `json:"expiresIn,omitempty"`
	DataURL   *string               `json:"data_url"`
}

// ListImages returns the caller's images newest first, each with its
// metadata. embed=base64 inlines the thumbnail as a data URL.
func (h *Handler) ListImages(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Authentication required")
	}
	expiresIn, err := h.expiresIn(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid expiresIn")
	}

	limit := clamp(c.QueryInt("limit", defaultPageSize), 1, maxPageSize)
	page := max(c.QueryInt("page", 1), 1)

	ctx := c.UserContext()
	images, err := h.images.ListByUser(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		h.log.Error(ctx, "list images failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to list images")
	}

	ids := make([]uint, len(images))
	for i := range images {
		ids[i] = images[i].ID
	}
	metadata, err := h.metadata.FindByImageIDs(ctx, ids)
	if err != nil {
		h.log.Error(ctx, "load metadata failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to list images")
	}

	embed := wantsEmbed(c)
	items := make([]imageItem, 0, len(images))
	for i := range images {
		img := &images[i]
		item := imageItem{Image: img}
		if m, ok := metadata[img.ID]; ok {
			item.Metadata = &m
		}
		if h.expose {
			ttl := time.Duration(expiresIn) * time.Second
			item.URLs = &imageURLs{
				Original:  h.trySign(ctx, img.OriginalPath, ttl),
				Thumbnail: h.trySign(ctx, img.ThumbnailPath, ttl),
			}
			item.ExpiresIn = &expiresIn
		}
		if embed {
			item.DataURL = h.dataURL(ctx, img.ThumbnailPath)
		}
		items = append(items, item)
	}

	return success(c, fiber.StatusOK, "Images found", fiber.Map{
		"page":  page,
		"limit": limit,
		"count": len(items),
		"items": items,
	})
}

// GetImage returns one owned image with its metadata. With a variant only
// that object is signed; embed=base64 always inlines the original.
func (h *Handler) GetImage(c *fiber.Ctx) error {
	image, status, msg := h.ownedImage(c)
	if image == nil {
		return fail(c, status, msg)
	}
	variant := c.Query("variant")
	if variant != "" && variant != variantOriginal && variant != variantThumbnail {
		return fail(c, fiber.StatusBadRequest, "Invalid variant")
	}
	expiresIn, err := h.expiresIn(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid expiresIn")
	}

	ctx := c.UserContext()
	metadata, err := h.findMetadata(ctx, image.ID)
	if err != nil {
		h.log.Error(ctx, "load metadata failed", "image_id", image.ID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to load image")
	}

	data := fiber.Map{
		"image":    image,
		"metadata": metadata,
		"data_url": nil,
	}
	ttl := time.Duration(expiresIn) * time.Second

	if variant != "" {
		data["variant"] = variant
		if h.expose {
			url := h.trySign(ctx, variantPath(image, variant), ttl)
			if url == nil {
				return fail(c, fiber.StatusInternalServerError, "Failed to create signed URL")
			}
			data["url"] = *url
			data["expiresIn"] = expiresIn
		}
	} else if h.expose {
		original := h.trySign(ctx, image.OriginalPath, ttl)
		thumb := h.trySign(ctx, image.ThumbnailPath, ttl)
		if original == nil || thumb == nil {
			return fail(c, fiber.StatusInternalServerError, "Failed to create signed URLs")
		}
		data["urls"] = imageURLs{Original: original, Thumbnail: thumb}
		data["expiresIn"] = expiresIn
	}

	if wantsEmbed(c) {
		if u := h.dataURL(ctx, image.OriginalPath); u != nil {
			data["data_url"] = *u
		}
	}

	return success(c, fiber.StatusOK, "Image found", data)
}

// SignedURL signs the original or the thumbnail of an owned image. It works
// whether or not signed URLs are exposed elsewhere.
func (h *Handler) SignedURL(c *fiber.Ctx) error {
	variant := c.Query("variant", variantOriginal)
	if variant != variantOriginal && variant != variantThumbnail {
		return fail(c, fiber.StatusBadRequest, "Invalid parameters")
	}
	expiresIn, err := h.expiresIn(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid parameters")
	}
	image, status, msg := h.ownedImage(c)
	if image == nil {
		return fail(c, status, msg)
	}

	ctx := c.UserContext()
	url, err := h.signer.SignedURL(ctx, variantPath(image, variant), time.Duration(expiresIn)*time.Second)
	if err != nil {
		h.log.Warn(ctx, "sign failed", "image_id", image.ID, "variant", variant, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to create signed URL")
	}

	metadata, err := h.findMetadata(ctx, image.ID)
	if err != nil {
		h.log.Error(ctx, "load metadata failed", "image_id", image.ID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to load image")
	}

	return success(c, fiber.StatusOK, "Signed URL created", fiber.Map{
		"image":     image,
		"metadata":  metadata,
		"variant":   variant,
		"url":       url,
		"expiresIn": expiresIn,
	})
}

// AnalyzeNow runs the analysis of an owned image synchronously and returns
// the stored result.
func (h *Handler) AnalyzeNow(c *fiber.Ctx) error {
	image, status, msg := h.ownedImage(c)
	if image == nil {
		return fail(c, status, msg)
	}

	ctx := c.UserContext()
	result, err := h.analyzer.Analyze(ctx, analysis.ImageRef{
		ID:           image.ID,
		OwnerID:      image.UserID,
		OriginalPath: image.OriginalPath,
	})
	if err != nil {
		h.log.Warn(ctx, "analyze-now failed", "image_id", image.ID, "error", err)
		return fail(c, fiber.StatusInternalServerError, "Image analysis failed")
	}

	return success(c, fiber.StatusOK, "Image analyzed", fiber.Map{
		"ok":       true,
		"metadata": result,
	})
}

// ownedImage loads the :id image of the caller. On failure it returns nil
// with the status and message to send.
func (h *Handler) ownedImage(c *fiber.Ctx) (*models.Image, int, string) {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return nil, fiber.StatusUnauthorized, "Authentication required"
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return nil, fiber.StatusBadRequest, "Invalid id"
	}

	ctx := c.UserContext()
	image, err := h.images.FindByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fiber.StatusNotFound, "Not found"
		}
		h.log.Error(ctx, "load image failed", "image_id", id, "error", err)
		return nil, fiber.StatusInternalServerError, "Failed to load image"
	}
	// someone else's image is indistinguishable from a missing one
	if image.UserID != userID {
		return nil, fiber.StatusNotFound, "Not found"
	}
	return image, 0, ""
}

func (h *Handler) findMetadata(ctx context.Context, imageID uint) (*models.ImageMetadata, error) {
	m, err := h.metadata.FindByImageID(ctx, imageID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return m, err
}

// expiresIn reads the expiresIn query parameter in seconds.
func (h *Handler) expiresIn(c *fiber.Ctx) (int, error) {
	raw := c.Query("expiresIn")
	if raw == "" {
		return int(h.defaultTTL / time.Second), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("expiresIn must be positive")
	}
	return n, nil
}

func (h *Handler) trySign(ctx context.Context, fullPath string, ttl time.Duration) *string {
	u, err := h.signer.SignedURL(ctx, fullPath, ttl)
	if err != nil {
		h.log.Warn(ctx, "sign failed", "path", fullPath, "error", err)
		return nil
	}
	return &u
}

// dataURL inlines the object as a base64 data URL, or nil when it cannot
// be read.
func (h *Handler) dataURL(ctx context.Context, fullPath string) *string {
	data, contentType, err := h.signer.Read(ctx, fullPath)
	if err != nil {
		h.log.Warn(ctx, "embed failed", "path", fullPath, "error", err)
		return nil
	}
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	u := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	return &u
}

func variantPath(image *models.Image, variant string) string {
	if variant == variantThumbnail {
		return image.ThumbnailPath
	}
	return image.OriginalPath
}

func wantsEmbed(c *fiber.Ctx) bool {
	return c.Query("embed") == "base64"
}

func clamp(n, lo, hi int) int {
	return min(max(n, lo), hi)
}
