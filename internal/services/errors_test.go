package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"castsync/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "transfer", "download", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transfer", "download", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "playlist", "fetch", "connection reset", nil)
	if !services.IsTransient(err) {
		t.Fatalf("expected transient classification, got %v", err)
	}
}

func TestIsTimeout(t *testing.T) {
	tagged := services.Wrap(services.ErrTimeout, "transfer", "download", "deadline exceeded", nil)
	if !services.IsTimeout(tagged) {
		t.Fatalf("expected timeout classification for %v", tagged)
	}
	if !services.IsTimeout(context.DeadlineExceeded) {
		t.Fatal("expected timeout classification for context.DeadlineExceeded")
	}
	if services.IsTimeout(errors.New("other")) {
		t.Fatal("unexpected timeout classification")
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}
