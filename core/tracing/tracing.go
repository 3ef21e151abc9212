// Package tracing wires OpenTelemetry spans around long-running bot jobs
// (broadcasts, timed reveals). When tracing is disabled the global no-op
// provider stays in place and spans cost nothing.
package tracing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/gogermany/gobot/core/buildinfo"
	coreconfig "github.com/gogermany/gobot/core/config"
)

const instrumentation = "github.com/gogermany/gobot"

var (
	providerOnce sync.Once
	providerErr  error
	provider     *sdktrace.TracerProvider
	output       io.Closer
)

// Init installs the stdout exporter when tracing is enabled. Safe to call
// more than once; the first call wins.
func Init(cfg coreconfig.TracingConfig) error {
	if !cfg.Enabled {
		return nil
	}
	providerOnce.Do(func() {
		var w io.Writer = os.Stdout
		if cfg.File != "" {
			f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				providerErr = err
				return
			}
			w = f
			output = f
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			providerErr = err
			return
		}
		providerErr = install(cfg.ServiceName, exporter)
	})
	return providerErr
}

// InitWithExporter registers a caller-supplied exporter, mostly for tests.
func InitWithExporter(serviceName string, exporter sdktrace.SpanExporter) error {
	if exporter == nil {
		return nil
	}
	providerOnce.Do(func() {
		providerErr = install(serviceName, exporter)
	})
	return providerErr
}

func install(serviceName string, exporter sdktrace.SpanExporter) error {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", buildinfo.Get().Version),
		),
	)
	if err != nil {
		return err
	}
	provider = sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return nil
}

// Shutdown flushes pending spans and closes the trace file.
func Shutdown(ctx context.Context) error {
	var errs []error
	if provider != nil {
		errs = append(errs, provider.Shutdown(ctx))
	}
	if output != nil {
		errs = append(errs, output.Close())
	}
	return errors.Join(errs...)
}

// Start opens an internal span. The returned context carries the span so the
// logger picks up trace_id and span_id automatically.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentation).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// End records err (if any) on the span and ends it.
func End(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
