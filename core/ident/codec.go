package ident

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// An identifier is a string of hyphen-separated segments:
//
//	campusCode-shiftCode-yearCode[-roleCode]-serial
//
// The rightmost segment (the serial) never changes for the lifetime of the
// member it identifies, even across campus/shift/role changes; it is what lets
// historical references resolve forever.

var (
	sep     = "-"
	nowFunc = time.Now // mockable

	// errors
	ErrInvalidFormat = errors.New("invalid identifier format")
)

// ID is a decomposed identifier.
type ID struct {
	CampusCode string
	ShiftCode  string
	YearCode   string
	RoleCode   string // teachers only; empty for students
	Serial     string // immutable suffix
}

// Parse decomposes a raw identifier. It requires at least 3 segments:
// campus, shift and year; the last segment beyond those is the serial and a
// 5th (middle) segment is the role code.
func Parse(raw string) (ID, error) {
	segs := strings.Split(raw, sep)
	if len(segs) < 3 {
		return ID{}, errors.Wrapf(ErrInvalidFormat, "%q: want at least 3 segments, got %d", raw, len(segs))
	}
	id := ID{
		CampusCode: segs[0],
		ShiftCode:  segs[1],
		YearCode:   segs[2],
	}
	if len(segs) > 3 {
		id.Serial = segs[len(segs)-1]
	}
	if len(segs) > 4 {
		id.RoleCode = segs[3]
	}
	return id, nil
}

// String reassembles the identifier. The role segment is present iff RoleCode
// is non-empty; same for the serial.
func (id ID) String() string {
	segs := make([]string, 0, 5)
	segs = append(segs, id.CampusCode, id.ShiftCode, id.YearCode)
	if id.RoleCode != "" {
		segs = append(segs, id.RoleCode)
	}
	if id.Serial != "" {
		segs = append(segs, id.Serial)
	}
	return strings.Join(segs, sep)
}

// Regenerate derives a new identifier from `old`, keeping the serial verbatim.
// An empty year defaults to the two-digit form of the current year; an empty
// role drops the role segment.
func Regenerate(old, campusCode, shiftCode, yearCode, roleCode string) (string, error) {
	id, err := Parse(old)
	if err != nil {
		return "", err
	}
	if yearCode == "" {
		yearCode = CurrentYearCode()
	}
	newID := ID{
		CampusCode: campusCode,
		ShiftCode:  shiftCode,
		YearCode:   yearCode,
		RoleCode:   roleCode,
		Serial:     id.Serial,
	}
	return newID.String(), nil
}

// Change describes one regenerated segment.
type Change struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Preview is the outcome of a dry-run regeneration.
type Preview struct {
	OldID string            `json:"old_id"`
	NewID string            `json:"new_id"`
	Diff  map[string]Change `json:"diff"`
}

// PreviewChange computes old/new identifiers plus a diff map of the changed
// segments, without side effects. Used to show a confirmation before committing.
func PreviewChange(old, campusCode, shiftCode, yearCode, roleCode string) (Preview, error) {
	oldID, err := Parse(old)
	if err != nil {
		return Preview{}, err
	}
	raw, err := Regenerate(old, campusCode, shiftCode, yearCode, roleCode)
	if err != nil {
		return Preview{}, err
	}
	newID, _ := Parse(raw)

	diff := make(map[string]Change)
	pairs := []struct {
		name     string
		from, to string
	}{
		{"campus", oldID.CampusCode, newID.CampusCode},
		{"shift", oldID.ShiftCode, newID.ShiftCode},
		{"year", oldID.YearCode, newID.YearCode},
		{"role", oldID.RoleCode, newID.RoleCode},
	}
	for _, p := range pairs {
		if p.from != p.to {
			diff[p.name] = Change{From: p.from, To: p.to}
		}
	}
	return Preview{OldID: oldID.String(), NewID: raw, Diff: diff}, nil
}

// CurrentYearCode returns the two-digit form of the current year.
func CurrentYearCode() string {
	return fmt.Sprintf("%02d", nowFunc().Year()%100)
}
