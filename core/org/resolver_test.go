package org

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

type dirStub struct {
	Directory
	coords []Coordinator
}

func (d *dirStub) ActiveCoordinators(ctx context.Context, campusID string, exec ...core.DBExecutor) ([]Coordinator, error) {
	return append([]Coordinator(nil), d.coords...), nil
}

func TestCoordinator_Manages(t *testing.T) {
	tests := []struct {
		name         string
		coord        Coordinator
		level, shift string
		want         bool
	}{
		{
			name:  "matching level and shift",
			coord: Coordinator{Shift: "M", Level: LevelPrimary},
			level: LevelPrimary, shift: "M",
			want: true,
		},
		{
			name:  "wrong shift",
			coord: Coordinator{Shift: "M", Level: LevelPrimary},
			level: LevelPrimary, shift: "A",
			want: false,
		},
		{
			name:  "wrong level",
			coord: Coordinator{Shift: "M", Level: LevelPrimary},
			level: LevelSecondary, shift: "M",
			want: false,
		},
		{
			name:  "both shifts",
			coord: Coordinator{Shift: ShiftBoth, Level: LevelSecondary},
			level: LevelSecondary, shift: "A",
			want: true,
		},
		{
			name:  "multi-level set on both shifts",
			coord: Coordinator{Shift: ShiftBoth, Levels: []string{LevelPrimary, LevelSecondary}},
			level: LevelSecondary, shift: "M",
			want: true,
		},
		{
			name:  "level outside set",
			coord: Coordinator{Shift: ShiftBoth, Levels: []string{LevelPrimary}},
			level: LevelSecondary, shift: "M",
			want: false,
		},
		{
			name:  "level set ignored on a shift-bound coordinator",
			coord: Coordinator{Shift: "M", Level: LevelPrimary, Levels: []string{LevelSecondary}},
			level: LevelSecondary, shift: "M",
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.coord.Manages(tt.level, tt.shift); got != tt.want {
				t.Errorf("Manages(%q, %q) = %v; want %v", tt.level, tt.shift, got, tt.want)
			}
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("lowest ID wins ties", func(t *testing.T) {
		dir := &dirStub{coords: []Coordinator{
			{ID: "c3", Shift: "M", Level: LevelPrimary},
			{ID: "c1", Shift: "M", Level: LevelPrimary},
			{ID: "c2", Shift: "M", Level: LevelPrimary},
		}}
		got, err := NewResolver(dir).Resolve(ctx, LevelPrimary, "M", "campus1")
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if got.ID != "c1" {
			t.Errorf("Resolve() = %s; want c1", got.ID)
		}
	})

	t.Run("skips non-matching candidates", func(t *testing.T) {
		dir := &dirStub{coords: []Coordinator{
			{ID: "c1", Shift: "A", Level: LevelPrimary},
			{ID: "c2", Shift: ShiftBoth, Level: LevelPrimary},
		}}
		got, err := NewResolver(dir).Resolve(ctx, LevelPrimary, "M", "campus1")
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if got.ID != "c2" {
			t.Errorf("Resolve() = %s; want c2", got.ID)
		}
	})

	t.Run("no match", func(t *testing.T) {
		dir := &dirStub{coords: []Coordinator{
			{ID: "c1", Shift: "M", Level: LevelPrimary},
		}}
		_, err := NewResolver(dir).Resolve(ctx, LevelSecondary, "M", "campus1")
		if errors.Cause(err) != ErrCoordinatorNotFound {
			t.Errorf("Resolve() error = %v; want ErrCoordinatorNotFound", err)
		}
	})
}

func TestResolveActorForRole(t *testing.T) {
	tests := []struct {
		name  string
		coord Coordinator
		want  string
	}{
		{name: "actor link", coord: Coordinator{ActorID: "a1", Email: "c@x", Username: "c"}, want: "a1"},
		{name: "email fallback", coord: Coordinator{Email: "c@x", Username: "c"}, want: "c@x"},
		{name: "username fallback", coord: Coordinator{Username: "c"}, want: "c"},
		{name: "unresolvable", coord: Coordinator{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveActorForRole(tt.coord); got != tt.want {
				t.Errorf("ResolveActorForRole() = %q; want %q", got, tt.want)
			}
		})
	}
}
