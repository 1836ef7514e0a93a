package category

import (
	"context"
	"errors"
	"testing"
)

func TestService_GetByID(t *testing.T) {
	svc := NewService(NewInMemoryRepository(Defaults))

	c, err := svc.GetByID(context.Background(), 2)
	if err != nil || c.Name != "Clothing" {
		t.Fatalf("unexpected category %+v %v", c, err)
	}
	if _, err := svc.GetByID(context.Background(), 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryRepository_DoesNotShareSeed(t *testing.T) {
	seed := []Category{{ID: 1, Name: "B"}, {ID: 2, Name: "A"}}
	repo := NewInMemoryRepository(seed)

	if seed[0].Name != "B" {
		t.Fatalf("seed slice was reordered")
	}
	out, _ := repo.List(context.Background(), 0)
	out[0].Name = "changed"
	again, _ := repo.List(context.Background(), 0)
	if again[0].Name != "A" {
		t.Fatalf("listing aliases repository storage: %+v", again)
	}
}
