package org

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

// Resolver finds the authoritative coordinator for a level/shift/campus scope.
type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve scans the campus' active coordinators for one that matches:
//   - it manages shift ShiftBoth and its assigned-level set contains level, or
//   - it manages shift ShiftBoth and its single level field equals level, or
//   - its own shift equals shift and its level equals level.
//
// Candidates are scanned in ascending ID order so that ties between several
// equally-qualifying coordinators resolve deterministically to the lowest ID.
func (r *Resolver) Resolve(ctx context.Context, level, shift, campusID string) (Coordinator, error) {
	coords, err := r.dir.ActiveCoordinators(ctx, campusID)
	if err != nil {
		return Coordinator{}, errors.Wrap(err, "listing active coordinators")
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].ID < coords[j].ID })

	for _, c := range coords {
		if c.Manages(level, shift) {
			return c, nil
		}
	}
	return Coordinator{}, errors.Wrapf(ErrCoordinatorNotFound, "level %q, shift %q, campus %q", level, shift, campusID)
}

// ResolveActorForRole maps a coordinator to its acting user. The fallback
// chain is fixed: direct actor link, then email, then username; an empty
// result means the coordinator has no resolvable actor.
func ResolveActorForRole(c Coordinator) string {
	switch {
	case c.ActorID != "":
		return c.ActorID
	case c.Email != "":
		return c.Email
	default:
		return c.Username
	}
}
