package handler

import (
	"context"
	"time"

	"github.com/aljonleynes11/media-coding-exam-backend/analysis"
	"github.com/aljonleynes11/media-coding-exam-backend/auth"
	"github.com/aljonleynes11/media-coding-exam-backend/config"
	"github.com/aljonleynes11/media-coding-exam-backend/logging"
	"github.com/aljonleynes11/media-coding-exam-backend/models"
	"github.com/aljonleynes11/media-coding-exam-backend/queue"
	"github.com/aljonleynes11/media-coding-exam-backend/storage"
	"github.com/gofiber/fiber/v2"
)

type Accounts interface {
	Register(ctx context.Context, email, password, confirm string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
}

type ImageStore interface {
	Create(ctx context.Context, image *models.Image) error
	FindByID(ctx context.Context, id uint) (*models.Image, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Image, error)
}

type MetadataReader interface {
	FindByImageID(ctx context.Context, imageID uint) (*models.ImageMetadata, error)
	FindByImageIDs(ctx context.Context, imageIDs []uint) (map[uint]models.ImageMetadata, error)
}

// Signer resolves "<bucket>/<object>" paths; *storage.Signer implements it.
type Signer interface {
	SignedURL(ctx context.Context, fullPath string, ttl time.Duration) (string, error)
	Read(ctx context.Context, fullPath string) ([]byte, string, error)
}

type Analyzer interface {
	OnImageCreated(ctx context.Context, ref analysis.ImageRef)
	Analyze(ctx context.Context, ref analysis.ImageRef) (analysis.Result, error)
}

type Deps struct {
	Accounts Accounts
	Images   ImageStore
	Metadata MetadataReader
	Objects  storage.ObjectStore
	Signer   Signer
	Analyzer Analyzer
	Queue    queue.Executor
	Logger   logging.Logger

	Bucket           string
	ExposeSignedURLs bool
	SignedURLTTL     time.Duration
	MaxUploadBytes   int64
}

// Handler carries the collaborators of every HTTP handler.
type Handler struct {
	accounts Accounts
	images   ImageStore
	metadata MetadataReader
	objects  storage.ObjectStore
	signer   Signer
	analyzer Analyzer
	queue    queue.Executor
	log      logging.Logger

	bucket         string
	expose         bool
	defaultTTL     time.Duration
	maxUploadBytes int64
}

const defaultMaxUploadBytes = 20 << 20

func New(d Deps) *Handler {
	h := &Handler{
		accounts:       d.Accounts,
		images:         d.Images,
		metadata:       d.Metadata,
		objects:        d.Objects,
		signer:         d.Signer,
		analyzer:       d.Analyzer,
		queue:          d.Queue,
		log:            d.Logger,
		bucket:         d.Bucket,
		expose:         d.ExposeSignedURLs,
		defaultTTL:     d.SignedURLTTL,
		maxUploadBytes: d.MaxUploadBytes,
	}
	if h.log == nil {
		h.log = logging.Discard()
	}
	if h.queue == nil {
		h.queue = queue.Inline{}
	}
	if h.defaultTTL <= 0 {
		h.defaultTTL = config.DefaultSignedURLTTL
	}
	if h.maxUploadBytes <= 0 {
		h.maxUploadBytes = defaultMaxUploadBytes
	}
	return h
}

func Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "ok",
		"data":    nil,
	})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}

func success(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}
