package ident

import (
	"testing"
	"time"

	"github.com/pkg/errors"
)

func mockNow(t *testing.T, year int) {
	og := nowFunc
	nowFunc = func() time.Time { return time.Date(year, 9, 1, 8, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { nowFunc = og })
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ID
		wantErr bool
	}{
		{
			name: "student",
			raw:  "C04-M-24-0007",
			want: ID{CampusCode: "C04", ShiftCode: "M", YearCode: "24", Serial: "0007"},
		},
		{
			name: "teacher",
			raw:  "C01-M-24-T-0012",
			want: ID{CampusCode: "C01", ShiftCode: "M", YearCode: "24", RoleCode: "T", Serial: "0012"},
		},
		{
			name: "no serial",
			raw:  "C01-M-24",
			want: ID{CampusCode: "C01", ShiftCode: "M", YearCode: "24"},
		},
		{
			name:    "too few segments",
			raw:     "C01-M",
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr {
				if errors.Cause(err) != ErrInvalidFormat {
					t.Fatalf("Parse() error = %v; want ErrInvalidFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse() = %+v; want %+v", got, tt.want)
			}
			if got.String() != tt.raw {
				t.Errorf("String() = %q; want %q", got.String(), tt.raw)
			}
		})
	}
}

func TestRegenerate(t *testing.T) {
	mockNow(t, 2025)

	tests := []struct {
		name                                      string
		old                                       string
		campusCode, shiftCode, yearCode, roleCode string
		want                                      string
	}{
		{
			name: "student campus and shift change",
			old:  "C04-M-24-0007",
			campusCode: "C06", shiftCode: "A",
			want: "C06-A-25-0007",
		},
		{
			name: "teacher keeps role segment",
			old:  "C01-M-24-T-0012",
			campusCode: "C02", shiftCode: "B", roleCode: "T",
			want: "C02-B-25-T-0012",
		},
		{
			name: "explicit year wins",
			old:  "C04-M-24-0007",
			campusCode: "C04", shiftCode: "M", yearCode: "24",
			want: "C04-M-24-0007",
		},
		{
			name: "role dropped when empty",
			old:  "C01-M-24-T-0012",
			campusCode: "C01", shiftCode: "M",
			want: "C01-M-25-0012",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Regenerate(tt.old, tt.campusCode, tt.shiftCode, tt.yearCode, tt.roleCode)
			if err != nil {
				t.Fatalf("Regenerate() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Regenerate() = %q; want %q", got, tt.want)
			}
		})
	}

	t.Run("serial survives chained regenerations", func(t *testing.T) {
		code := "C04-M-24-0007"
		for _, move := range []struct{ campus, shift string }{{"C06", "A"}, {"C01", "M"}, {"C06", "B"}} {
			var err error
			if code, err = Regenerate(code, move.campus, move.shift, "", ""); err != nil {
				t.Fatalf("Regenerate() failed: %v", err)
			}
		}
		id, err := Parse(code)
		if err != nil {
			t.Fatalf("Parse() failed: %v", err)
		}
		if id.Serial != "0007" {
			t.Errorf("Serial = %q; want 0007", id.Serial)
		}
	})

	t.Run("invalid old identifier", func(t *testing.T) {
		if _, err := Regenerate("oops", "C01", "M", "", ""); errors.Cause(err) != ErrInvalidFormat {
			t.Errorf("Regenerate() error = %v; want ErrInvalidFormat", err)
		}
	})
}

func TestPreviewChange(t *testing.T) {
	mockNow(t, 2025)

	p, err := PreviewChange("C04-M-24-0007", "C06", "A", "", "")
	if err != nil {
		t.Fatalf("PreviewChange() failed: %v", err)
	}
	if p.OldID != "C04-M-24-0007" {
		t.Errorf("OldID = %q", p.OldID)
	}
	if p.NewID != "C06-A-25-0007" {
		t.Errorf("NewID = %q", p.NewID)
	}
	want := map[string]Change{
		"campus": {From: "C04", To: "C06"},
		"shift":  {From: "M", To: "A"},
		"year":   {From: "24", To: "25"},
	}
	if len(p.Diff) != len(want) {
		t.Fatalf("Diff = %+v; want %+v", p.Diff, want)
	}
	for k, w := range want {
		if p.Diff[k] != w {
			t.Errorf("Diff[%q] = %+v; want %+v", k, p.Diff[k], w)
		}
	}

	t.Run("no-op yields empty diff", func(t *testing.T) {
		p, err := PreviewChange("C04-M-25-0007", "C04", "M", "", "")
		if err != nil {
			t.Fatalf("PreviewChange() failed: %v", err)
		}
		if len(p.Diff) != 0 {
			t.Errorf("Diff = %+v; want empty", p.Diff)
		}
		if p.NewID != p.OldID {
			t.Errorf("NewID = %q; want %q", p.NewID, p.OldID)
		}
	})
}
