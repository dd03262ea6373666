package websitecmd

import (
	"context"
	"errors"
	"slices"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

type stubController struct {
	clears      int
	invalidated []string
	err         error
}

func (s *stubController) ClearCache(context.Context) error {
	s.clears++
	return s.err
}

func (s *stubController) InvalidateRoutes(_ context.Context, routes ...string) error {
	s.invalidated = append(s.invalidated, routes...)
	return s.err
}

func TestClearCacheHandler(t *testing.T) {
	controller := &stubController{}
	handler := NewClearCacheHandler(controller, nil)

	if err := handler.Execute(context.Background(), ClearCacheCommand{}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if controller.clears != 1 {
		t.Fatalf("expected cache to be cleared once, got %d", controller.clears)
	}
}

func TestClearCacheHandlerWrapsFailure(t *testing.T) {
	storeErr := errors.New("redis down")
	handler := NewClearCacheHandler(&stubController{err: storeErr}, nil)

	err := handler.Execute(context.Background(), ClearCacheCommand{})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}

func TestInvalidateRoutesHandler(t *testing.T) {
	controller := &stubController{}
	handler := NewInvalidateRoutesHandler(controller, nil)

	err := handler.Execute(context.Background(), InvalidateRoutesCommand{Routes: []string{"blog/news", "blog"}})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !slices.Equal(controller.invalidated, []string{"blog/news", "blog"}) {
		t.Fatalf("unexpected invalidated routes %v", controller.invalidated)
	}
}

func TestInvalidateRoutesCommandValidation(t *testing.T) {
	controller := &stubController{}
	handler := NewInvalidateRoutesHandler(controller, nil)

	for _, cmd := range []InvalidateRoutesCommand{
		{},
		{Routes: []string{"blog news"}},
	} {
		err := handler.Execute(context.Background(), cmd)
		if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
			t.Fatalf("expected validation error for %+v, got %v", cmd, err)
		}
	}
	if len(controller.invalidated) != 0 {
		t.Fatalf("expected no invalidation on invalid input")
	}
}
