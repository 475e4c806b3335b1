package ai

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestLazyBackendInitializesOnce(t *testing.T) {
	t.Parallel()

	var built atomic.Int32
	lazy := NewLazyBackend(func() (ChatBackend, error) {
		built.Add(1)
		return ChatFunc(func(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
			return &ChatResponse{Content: req.Messages[0].Content}, nil
		}), nil
	})

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := lazy.Chat(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "ping"}}})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if resp.Content != "ping" {
				t.Errorf("unexpected content: %q", resp.Content)
			}
		}()
	}
	wg.Wait()

	if got := built.Load(); got != 1 {
		t.Fatalf("expected exactly one initialization, got %d", got)
	}
}

func TestLazyBackendFailureIsSticky(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	boom := errors.New("no api key")
	lazy := NewLazyBackend(func() (ChatBackend, error) {
		calls.Add(1)
		return nil, boom
	})

	for range 3 {
		_, err := lazy.Chat(context.Background(), ChatRequest{})
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
		if !errors.Is(err, boom) {
			t.Fatalf("expected wrapped cause, got %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected factory to run once, got %d", got)
	}
}

func TestLazyBackendNilFactory(t *testing.T) {
	t.Parallel()

	lazy := NewLazyBackend(nil)
	if _, err := lazy.Chat(context.Background(), ChatRequest{}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	lazy = NewLazyBackend(func() (ChatBackend, error) { return nil, nil })
	if _, err := lazy.Chat(context.Background(), ChatRequest{}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for nil backend, got %v", err)
	}
}
