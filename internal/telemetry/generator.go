package telemetry

import (
	"context"
	"unicode/utf8"

	"github.com/benvon/study-advent/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TaskGenerator matches the planner's calendar generator.
type TaskGenerator interface {
	GenerateTasks(ctx context.Context, syllabus string) ([]models.Task, error)
}

// TracedGenerator records a span around every calendar generation.
type TracedGenerator struct {
	next   TaskGenerator
	tracer trace.Tracer
}

// TraceGenerator wraps next using the global tracer provider.
func TraceGenerator(next TaskGenerator) *TracedGenerator {
	return newTracedGenerator(next, otel.Tracer(instrumentationName))
}

func newTracedGenerator(next TaskGenerator, tracer trace.Tracer) *TracedGenerator {
	return &TracedGenerator{next: next, tracer: tracer}
}

// GenerateTasks implements TaskGenerator.
func (g *TracedGenerator) GenerateTasks(ctx context.Context, syllabus string) ([]models.Task, error) {
	ctx, span := g.tracer.Start(ctx, "calendar.generate",
		trace.WithAttributes(attribute.Int("syllabus.length", utf8.RuneCountInString(syllabus))),
	)
	defer span.End()

	tasks, err := g.next.GenerateTasks(ctx, syllabus)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "calendar generation failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("calendar.tasks", len(tasks)))
	return tasks, nil
}
