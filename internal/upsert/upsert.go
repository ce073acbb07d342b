// Package upsert writes one feed product into the shop database as three
// independent steps: the core record, the HTML description and the images.
// A failing step is logged and recorded on the item's Result; the remaining
// steps still run.
package upsert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/agroland/agroland-sync/internal/feed"
	"github.com/agroland/agroland-sync/internal/htmltrunc"
	"github.com/agroland/agroland-sync/internal/images"
	"github.com/agroland/agroland-sync/internal/otel"
	"github.com/agroland/agroland-sync/internal/pricing"
	"github.com/agroland/agroland-sync/internal/store"
	"github.com/agroland/agroland-sync/internal/telemetry"
)

// Step names used in logs, spans and the step failure metric
const (
	StepCore        = "core"
	StepDescription = "description"
	StepImage       = "image"
)

// DefaultImageFilename is used for photos the feed publishes without an id
const DefaultImageFilename = "image"

// ErrNoIdentity is returned for products carrying neither an EAN nor a supplier id
var ErrNoIdentity = errors.New("product has no EAN and no supplier id")

// Upserter persists one feed product
//
//go:generate mockgen -destination=mocks/mock_upserter.go -package=mocks -source=upsert.go Upserter
type Upserter interface {
	Upsert(ctx context.Context, p feed.Product) Result
}

// PhotoResult is the outcome of one photo reference
type PhotoResult struct {
	ID       string
	Filename string
	URL      string
	Err      error
}

// Result records what happened to each step of one product
type Result struct {
	Identity string
	// Outcome is empty when the core step failed
	Outcome        store.Outcome
	CoreErr        error
	DescriptionErr error
	Photos         []PhotoResult
}

// Failed reports whether any step of the product failed
func (r *Result) Failed() bool {
	return r.CoreErr != nil || r.DescriptionErr != nil || r.PhotoFailures() > 0
}

// PhotoFailures counts photos that could not be downloaded or stored
func (r *Result) PhotoFailures() int {
	n := 0
	for _, p := range r.Photos {
		if p.Err != nil {
			n++
		}
	}
	return n
}

// Options configures a ProductUpserter
type Options struct {
	MarginPercent        int
	DescriptionMaxLength int
	SourceTag            string
}

// Option configures optional collaborators of a ProductUpserter
type Option func(*ProductUpserter)

// WithMetrics records step failures on m
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(u *ProductUpserter) {
		u.metrics = m
	}
}

// WithTracer creates a span per product with t
func WithTracer(t trace.Tracer) Option {
	return func(u *ProductUpserter) {
		u.tracer = t
	}
}

// ProductUpserter is the store-backed Upserter
type ProductUpserter struct {
	store      store.ProductStore
	downloader images.Downloader
	opts       Options
	metrics    *telemetry.SyncMetrics
	tracer     trace.Tracer
}

// New creates a ProductUpserter writing to s and fetching photos with d
func New(s store.ProductStore, d images.Downloader, opts Options, options ...Option) *ProductUpserter {
	u := &ProductUpserter{
		store:      s,
		downloader: d,
		opts:       opts,
	}
	for _, o := range options {
		o(u)
	}
	return u
}

// Upsert runs the core, description and image steps for p. Step errors are
// reported on the Result, never returned.
func (u *ProductUpserter) Upsert(ctx context.Context, p feed.Product) Result {
	identity := p.Identity()
	result := Result{Identity: identity}

	ctx, span := otel.StartSpan(ctx, u.tracer, "upsert.Product",
		trace.WithAttributes(
			otel.AttrProductIdentity.String(identity),
			otel.AttrSupplierID.String(p.SupplierID),
			otel.AttrPhotoCount.Int(len(p.Photos)),
		),
	)
	defer span.End()

	logger := slog.With("identity", identity, "supplier_id", p.SupplierID, "name", p.Name)

	if identity == "" {
		result.CoreErr = ErrNoIdentity
		u.stepFailed(ctx, span, logger, StepCore, ErrNoIdentity)
		return result
	}

	outcome, err := u.upsertCore(ctx, identity, &p)
	if err != nil {
		result.CoreErr = err
		u.stepFailed(ctx, span, logger, StepCore, err)
	} else {
		result.Outcome = outcome
		span.SetAttributes(otel.AttrOutcome.String(string(outcome)))
		logger.DebugContext(ctx, "Upserted product", "outcome", string(outcome))
	}

	if err := u.upsertDescription(ctx, identity, &p); err != nil {
		result.DescriptionErr = err
		u.stepFailed(ctx, span, logger, StepDescription, err)
	}

	result.Photos = u.upsertPhotos(ctx, span, logger, identity, p.Photos)

	return result
}

func (u *ProductUpserter) upsertCore(ctx context.Context, identity string, p *feed.Product) (store.Outcome, error) {
	net, err := pricing.ParseOptionalAmount(p.NetPrice)
	if err != nil {
		return "", fmt.Errorf("net price: %w", err)
	}
	qty, err := pricing.ParseOptionalAmount(p.Quantity)
	if err != nil {
		return "", fmt.Errorf("quantity: %w", err)
	}
	weight, err := pricing.ParseOptionalAmount(p.Weight)
	if err != nil {
		return "", fmt.Errorf("weight: %w", err)
	}

	vat := pricing.ParseVATRate(p.VATRate)
	prices := pricing.Derive(net, vat, u.opts.MarginPercent)

	return u.store.UpsertProduct(ctx, store.Product{
		Identity:      identity,
		Name:          p.Name,
		Quantity:      qty,
		EAN:           p.EAN,
		PurchaseNet:   prices.PurchaseNet,
		PurchaseGross: prices.PurchaseGross,
		SaleNet:       prices.SaleNet,
		SaleGross:     prices.SaleGross,
		VATPurchase:   prices.VATRate,
		VATSale:       prices.VATRate,
		Weight:        weight,
		Brand:         p.Brand,
		SupplierID:    p.SupplierID,
		SourceTag:     u.opts.SourceTag,
		Unit:          p.Unit,
	})
}

func (u *ProductUpserter) upsertDescription(ctx context.Context, identity string, p *feed.Product) error {
	html := htmltrunc.Truncate(BuildDescription(p.Description, p.Attributes), u.opts.DescriptionMaxLength)
	return u.store.UpdateProductDescription(ctx, identity, html)
}

func (u *ProductUpserter) upsertPhotos(
	ctx context.Context,
	span trace.Span,
	logger *slog.Logger,
	identity string,
	photos []feed.Photo,
) []PhotoResult {
	var results []PhotoResult
	for _, photo := range photos {
		if photo.URL == "" {
			continue
		}
		pr := PhotoResult{ID: photo.ID, Filename: ImageFilename(photo), URL: photo.URL}
		pr.Err = u.upsertPhoto(ctx, identity, pr.Filename, photo.URL)
		if pr.Err != nil {
			u.stepFailed(ctx, span, logger.With("photo_id", photo.ID), StepImage, pr.Err)
		}
		results = append(results, pr)
	}
	return results
}

func (u *ProductUpserter) upsertPhoto(ctx context.Context, identity, filename, url string) error {
	data, err := u.downloader.Download(ctx, url)
	if err != nil {
		return err
	}
	return u.store.UpsertProductImage(ctx, identity, filename, data)
}

func (u *ProductUpserter) stepFailed(
	ctx context.Context,
	span trace.Span,
	logger *slog.Logger,
	step string,
	err error,
) {
	logger.ErrorContext(ctx, "Product step failed", "step", step, "error", err)
	otel.RecordStepError(span, step, err)
	u.metrics.RecordStepFailure(ctx, step)
}

// ImageFilename derives the stored filename of a photo from its feed id
func ImageFilename(p feed.Photo) string {
	if p.ID == "" {
		return DefaultImageFilename
	}
	return p.ID
}
