package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aljonleynes11/media-coding-exam-backend/analysis"
	"github.com/aljonleynes11/media-coding-exam-backend/middleware"
	"github.com/aljonleynes11/media-coding-exam-backend/models"
	"github.com/aljonleynes11/media-coding-exam-backend/storage"
	"github.com/aljonleynes11/media-coding-exam-backend/thumbnail"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
}

var errSkipFile = errors.New("not an accepted image")

type uploadedImage struct {
	ID                 uint    `json:"id"`
	Filename           string  `json:"filename"`
	OriginalPath       string  `json:"original_path"`
	ThumbnailPath      string  `json:"thumbnail_path"`
	SignedURLOriginal  *string `json:"signed_url_original,omitempty"`
	SignedURLThumbnail *string `json:"signed_url_thumbnail,omitempty"`
}

// uploadFiles picks the first non-empty multipart field among images,
// files, image and file.
func uploadFiles(form *multipart.Form) []*multipart.FileHeader {
	for _, field := range []string{"images", "files"} {
		if files := form.File[field]; len(files) > 0 {
			return files
		}
	}
	for _, field := range []string{"image", "file"} {
		if files := form.File[field]; len(files) > 0 {
			return files[:1]
		}
	}
	return nil
}

// Upload stores each accepted JPEG/PNG and its thumbnail, records the image
// and queues its analysis. Files of other types are skipped.
func (h *Handler) Upload(c *fiber.Ctx) error {
	userID, err := middleware.CheckUserLoggedIn(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Authentication required")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "No files uploaded")
	}
	files := uploadFiles(form)
	if len(files) == 0 {
		return fail(c, fiber.StatusBadRequest, "No files uploaded")
	}

	ctx := c.UserContext()
	uploaded := make([]uploadedImage, 0, len(files))
	for _, file := range files {
		item, err := h.storeUpload(ctx, userID, file)
		switch {
		case errors.Is(err, errSkipFile):
			h.log.Debug(ctx, "skipping upload", "filename", file.Filename, "error", err)
			continue
		case errors.Is(err, thumbnail.ErrThumbnail):
			h.log.Warn(ctx, "thumbnail generation failed", "filename", file.Filename, "error", err)
			return fail(c, fiber.StatusInternalServerError, "Thumbnail generation failed")
		case err != nil:
			h.log.Error(ctx, "upload failed", "filename", file.Filename, "error", err)
			return fail(c, fiber.StatusInternalServerError, "Error uploading the file")
		}
		uploaded = append(uploaded, *item)
	}

	if len(uploaded) == 0 {
		return fail(c, fiber.StatusBadRequest, "No valid image files to upload")
	}

	return success(c, fiber.StatusCreated, "Successfully uploaded the files", fiber.Map{
		"uploaded": uploaded,
	})
}

func (h *Handler) storeUpload(ctx context.Context, userID string, file *multipart.FileHeader) (*uploadedImage, error) {
	data, contentType, err := h.readUpload(file)
	if err != nil {
		return nil, err
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), ".")
	if ext != "jpg" && ext != "jpeg" && ext != "png" {
		ext = allowedImageTypes[contentType]
	}
	base := uuid.NewString()
	originalObject := fmt.Sprintf("%s/%s.%s", userID, base, ext)
	thumbObject := fmt.Sprintf("%s/%s_thumb.jpg", userID, base)

	if err := h.objects.Put(ctx, h.bucket, originalObject, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, fmt.Errorf("store original: %w", err)
	}

	thumb, err := thumbnail.Make(data)
	if err != nil {
		return nil, err
	}
	if err := h.objects.Put(ctx, h.bucket, thumbObject, bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg"); err != nil {
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}

	image := &models.Image{
		UserID:        userID,
		Filename:      file.Filename,
		OriginalPath:  storage.JoinPath(h.bucket, originalObject),
		ThumbnailPath: storage.JoinPath(h.bucket, thumbObject),
		UploadedAt:    time.Now().UTC(),
	}
	if err := h.images.Create(ctx, image); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	h.queueAnalysis(ctx, image)

	item := &uploadedImage{
		ID:            image.ID,
		Filename:      image.Filename,
		OriginalPath:  image.OriginalPath,
		ThumbnailPath: image.ThumbnailPath,
	}
	if h.expose {
		item.SignedURLOriginal = h.trySign(ctx, image.OriginalPath, h.defaultTTL)
		item.SignedURLThumbnail = h.trySign(ctx, image.ThumbnailPath, h.defaultTTL)
	}
	return item, nil
}

// readUpload loads the file and returns its bytes with the accepted content
// type. The declared type wins unless it is missing or generic.
func (h *Handler) readUpload(file *multipart.FileHeader) ([]byte, string, error) {
	if file.Size > h.maxUploadBytes {
		return nil, "", fmt.Errorf("%w: %d bytes exceeds limit", errSkipFile, file.Size)
	}

	src, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, "", fmt.Errorf("%w: exceeds limit", errSkipFile)
	}

	contentType := strings.ToLower(strings.TrimSpace(file.Header.Get(fiber.HeaderContentType)))
	if contentType == "" || contentType == fiber.MIMEOctetStream {
		contentType = http.DetectContentType(data)
	}
	if _, ok := allowedImageTypes[contentType]; !ok {
		return nil, "", fmt.Errorf("%w: %s", errSkipFile, contentType)
	}
	return data, contentType, nil
}

// queueAnalysis hands the image to the analyzer without waiting for it. A
// rejected task leaves the image without metadata until analyze-now.
func (h *Handler) queueAnalysis(ctx context.Context, image *models.Image) {
	if h.analyzer == nil {
		return
	}
	ref := analysis.ImageRef{ID: image.ID, OwnerID: image.UserID, OriginalPath: image.OriginalPath}
	if err := h.queue.Submit(func(taskCtx context.Context) {
		h.analyzer.OnImageCreated(taskCtx, ref)
	}); err != nil {
		h.log.Warn(ctx, "analysis not queued", "image_id", image.ID, "error", err)
	}
}
