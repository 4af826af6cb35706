package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aljonleynes11/media-coding-exam-backend/config"
	"github.com/aljonleynes11/media-coding-exam-backend/logging"
	"github.com/aljonleynes11/media-coding-exam-backend/models"
)

// MetadataStore is the persistence the orchestrator needs; it is satisfied
// by *repository.Metadata.
type MetadataStore interface {
	EnsureProcessing(ctx context.Context, imageID uint, userID string) (*models.ImageMetadata, error)
	MarkFailed(ctx context.Context, imageID uint) error
	Complete(ctx context.Context, imageID uint, description string, tags, colors []string) error
}

// URLSigner issues time-limited read URLs for "<bucket>/<object>" paths.
type URLSigner interface {
	SignedURL(ctx context.Context, fullPath string, ttl time.Duration) (string, error)
}

// ImageRef identifies the image to analyze.
type ImageRef struct {
	ID           uint
	OwnerID      string
	OriginalPath string
}

type Options struct {
	// Mode is config.ModeDirect or config.ModeDelegated.
	Mode         string
	SignedURLTTL time.Duration
	Provider     Provider
	Dispatcher   Dispatcher
	Logger       logging.Logger
}

// Orchestrator moves an image's metadata row through
// processing -> completed | failed.
//
// In direct mode it signs the original, calls the provider and writes the
// normalized result. In delegated mode it posts the job to the external
// function, which then owns the row; only a failed handoff is written here.
type Orchestrator struct {
	store      MetadataStore
	signer     URLSigner
	provider   Provider
	dispatcher Dispatcher
	mode       string
	ttl        time.Duration
	log        logging.Logger
}

func NewOrchestrator(store MetadataStore, signer URLSigner, opts Options) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		signer:     signer,
		provider:   opts.Provider,
		dispatcher: opts.Dispatcher,
		mode:       opts.Mode,
		ttl:        opts.SignedURLTTL,
		log:        opts.Logger,
	}
	if o.mode == "" {
		o.mode = config.ModeDirect
	}
	if o.ttl <= 0 {
		o.ttl = config.DefaultSignedURLTTL
	}
	if o.log == nil {
		o.log = logging.Discard()
	}
	return o
}

// OnImageCreated is the fire-and-forget entry run after an upload. Errors
// end up in the metadata status and the log, never with the caller.
func (o *Orchestrator) OnImageCreated(ctx context.Context, ref ImageRef) {
	var err error
	if o.mode == config.ModeDelegated {
		err = o.Delegate(ctx, ref)
	} else {
		_, err = o.Analyze(ctx, ref)
	}
	if err != nil {
		o.log.Warn(ctx, "image analysis failed", "image_id", ref.ID, "mode", o.mode, "error", err)
	}
}

// Analyze runs the direct mode synchronously and returns the stored result.
// Once the row exists, every error path leaves it failed.
func (o *Orchestrator) Analyze(ctx context.Context, ref ImageRef) (Result, error) {
	// store writes must land even if the caller went away
	wctx := context.WithoutCancel(ctx)

	existing, err := o.store.EnsureProcessing(wctx, ref.ID, ref.OwnerID)
	if err != nil {
		return Result{}, fmt.Errorf("analysis: ensure metadata: %w", err)
	}
	if existing.IsTerminal() {
		o.log.Info(ctx, "re-analyzing image", "image_id", ref.ID, "previous_status", existing.AIProcessingStatus)
	}

	imageURL, err := o.sign(ctx, ref)
	if err != nil {
		return Result{}, o.fail(wctx, ref, err)
	}

	res, err := o.callProvider(ctx, imageURL)
	if err != nil {
		return Result{}, o.fail(wctx, ref, err)
	}

	raw := res.Raw
	res = Normalize(res)
	res.Raw = raw

	if err := o.store.Complete(wctx, ref.ID, res.Description, res.Tags, res.Colors); err != nil {
		return Result{}, o.fail(wctx, ref, fmt.Errorf("analysis: store result: %w", err))
	}

	o.log.Info(ctx, "image analysis completed",
		"image_id", ref.ID, "tags", len(res.Tags), "colors", len(res.Colors))
	return res, nil
}

// Delegate hands the image to the external function. The signed URL is
// optional there: the function can sign the original itself.
func (o *Orchestrator) Delegate(ctx context.Context, ref ImageRef) error {
	wctx := context.WithoutCancel(ctx)

	if _, err := o.store.EnsureProcessing(wctx, ref.ID, ref.OwnerID); err != nil {
		return fmt.Errorf("analysis: ensure metadata: %w", err)
	}
	if o.dispatcher == nil {
		return o.fail(wctx, ref, &ConfigError{Setting: "ANALYZE_FUNCTION_URL or FUNCTIONS_URL"})
	}

	imageURL, err := o.sign(ctx, ref)
	if err != nil {
		o.log.Debug(ctx, "dispatching without signed url", "image_id", ref.ID, "error", err)
		imageURL = ""
	}

	job := Job{
		ImageID:      ref.ID,
		UserID:       ref.OwnerID,
		OriginalPath: ref.OriginalPath,
		ExpiresIn:    int(o.ttl / time.Second),
		ImageURL:     imageURL,
	}
	if err := o.dispatcher.Dispatch(ctx, job); err != nil {
		return o.fail(wctx, ref, err)
	}
	return nil
}

func (o *Orchestrator) sign(ctx context.Context, ref ImageRef) (string, error) {
	if o.signer == nil {
		return "", &UpstreamError{Op: "sign", Err: errors.New("no signer configured")}
	}
	u, err := o.signer.SignedURL(ctx, ref.OriginalPath, o.ttl)
	if err != nil {
		return "", &UpstreamError{Op: "sign", Err: err}
	}
	if u == "" {
		return "", &UpstreamError{Op: "sign", Err: errors.New("empty signed url")}
	}
	return u, nil
}

// callProvider converts a provider panic into an error so the row can still
// be marked failed.
func (o *Orchestrator) callProvider(ctx context.Context, imageURL string) (res Result, err error) {
	if o.provider == nil {
		return Result{}, &ConfigError{Setting: "ANALYSIS_PROVIDER"}
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis: provider panic: %v", r)
		}
	}()
	return o.provider.Analyze(ctx, imageURL)
}

func (o *Orchestrator) fail(ctx context.Context, ref ImageRef, cause error) error {
	if err := o.store.MarkFailed(ctx, ref.ID); err != nil {
		o.log.Error(ctx, "mark metadata failed", "image_id", ref.ID, "error", err)
		return errors.Join(cause, err)
	}
	return cause
}
