package services_test

import (
	"context"
	"testing"

	"speakerid/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithStage(ctx, "assign")
	ctx = services.WithChannel(ctx, 2)

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "assign" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if ch, ok := services.ChannelFromContext(ctx); !ok || ch != 2 {
		t.Fatalf("unexpected channel: %v %v", ch, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := services.ChannelFromContext(ctx); ok {
		t.Fatal("expected no channel value")
	}
}
