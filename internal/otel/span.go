// Package otel provides span helpers and shared attribute keys for sync runs.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by run and product spans
const (
	AttrRunID           = attribute.Key("sync.run_id")
	AttrRunForced       = attribute.Key("sync.forced")
	AttrProductCount    = attribute.Key("feed.product_count")
	AttrProductIdentity = attribute.Key("product.identity")
	AttrSupplierID      = attribute.Key("product.supplier_id")
	AttrOutcome         = attribute.Key("product.outcome")
	AttrStep            = attribute.Key("product.step")
	AttrPhotoCount      = attribute.Key("product.photo_count")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns a no-op span.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records an error on a span and sets the span status to error.
// It safely handles nil spans and nil errors.
// The status description stays generic so connection strings and feed keys
// never land in the status; the error itself is kept as a span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}

// RecordStepError records a failed per-product step as an event without
// failing the whole span; the product carries on with its remaining steps.
func RecordStepError(span trace.Span, step string, err error) {
	if err == nil || span == nil {
		return
	}
	span.RecordError(err, trace.WithAttributes(AttrStep.String(step)))
}
