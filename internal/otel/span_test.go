package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func recordingTracer(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return recorder, tp
}

func eventSteps(span sdktrace.ReadOnlySpan) []string {
	var steps []string
	for _, ev := range span.Events() {
		for _, kv := range ev.Attributes {
			if kv.Key == AttrStep {
				steps = append(steps, kv.Value.AsString())
			}
		}
	}
	return steps
}

func TestStartSpan_WithoutTracerKeepsContext(t *testing.T) {
	t.Parallel()

	recorder, tp := recordingTracer(t)
	parentCtx, parent := tp.Tracer("sync").Start(context.Background(), "sync.Run")

	ctx, span := StartSpan(parentCtx, nil, "upsert.Product")
	assert.Equal(t, parentCtx, ctx)
	assert.Equal(t, parent.SpanContext(), span.SpanContext())

	parent.End()
	assert.Len(t, recorder.Ended(), 1)
}

func TestProductSpans(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		stepErrs   map[string]error
		fatal      error
		wantStatus codes.Code
		wantSteps  []string
	}{
		{
			name:       "clean product",
			wantStatus: codes.Unset,
		},
		{
			name: "nil step errors leave no events",
			stepErrs: map[string]error{
				"description": nil,
				"image":       nil,
			},
			wantStatus: codes.Unset,
		},
		{
			name:       "failed image keeps product ok",
			stepErrs:   map[string]error{"image": errors.New("GET photo.jpg: 404")},
			wantStatus: codes.Unset,
			wantSteps:  []string{"image"},
		},
		{
			name:       "failed core write fails the product",
			fatal:      errors.New("agroland_upsert_product: deadlock detected"),
			wantStatus: codes.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			recorder, tp := recordingTracer(t)

			runCtx, run := StartSpan(context.Background(), tp.Tracer("sync"), "sync.Run",
				trace.WithAttributes(AttrRunID.String("run-7"), AttrRunForced.Bool(false)))
			_, product := StartSpan(runCtx, tp.Tracer("sync"), "upsert.Product",
				trace.WithAttributes(AttrProductIdentity.String("S-100"), AttrPhotoCount.Int(2)))
			for step, err := range tt.stepErrs {
				RecordStepError(product, step, err)
			}
			RecordError(product, tt.fatal)
			product.End()
			run.End()

			ended := recorder.Ended()
			require.Len(t, ended, 2)
			got, parent := ended[0], ended[1]

			assert.Equal(t, "upsert.Product", got.Name())
			assert.Equal(t, parent.SpanContext().SpanID(), got.Parent().SpanID())
			assert.Contains(t, got.Attributes(), AttrProductIdentity.String("S-100"))
			assert.Contains(t, parent.Attributes(), AttrRunID.String("run-7"))

			assert.Equal(t, tt.wantStatus, got.Status().Code)
			if tt.wantStatus == codes.Error {
				assert.Equal(t, "operation failed", got.Status().Description)
				require.Len(t, got.Events(), 1)
				assert.Equal(t, "exception", got.Events()[0].Name)
			}
			assert.Equal(t, tt.wantSteps, eventSteps(got))
			assert.Equal(t, codes.Unset, parent.Status().Code)
		})
	}
}

func TestRecordHelpers_NilSpan(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		RecordError(nil, errors.New("x"))
		RecordStepError(nil, "image", errors.New("x"))
	})
}
