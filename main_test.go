package main

import "testing"

func TestParseUint16Flag(t *testing.T) {
	tests := []struct {
		in   string
		want uint16
		ok   bool
	}{
		{"0x0100", 0x100, true},
		{"256", 256, true},
		{"0xFFFF", 0xFFFF, true},
		{"0x10000", 0, false},
		{"zz", 0, false},
	}
	for _, tt := range tests {
		got, err := parseUint16Flag(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Fatalf("parseUint16Flag(%q) = (%#x, %v), want (%#x, ok=%v)", tt.in, got, err, tt.want, tt.ok)
		}
	}
}

func TestParseFillFlag(t *testing.T) {
	if v, err := parseFillFlag("r"); err != nil || v != FILL_RANDOM {
		t.Fatalf("expected random fill, got (%d, %v)", v, err)
	}
	if v, err := parseFillFlag("e5"); err != nil || v != 0xE5 {
		t.Fatalf("expected 0xE5, got (%d, %v)", v, err)
	}
	if _, err := parseFillFlag("100"); err == nil {
		t.Fatal("expected error for fill byte out of range")
	}
}

func TestParseRangeFlag(t *testing.T) {
	start, end, err := parseRangeFlag("f000-ffff")
	if err != nil || start != 0xF000 || end != 0xFFFF {
		t.Fatalf("expected (f000, ffff), got (%04x, %04x, %v)", start, end, err)
	}
	for _, bad := range []string{"f000", "ffff-f000", "x-1", "1-x"} {
		if _, _, err := parseRangeFlag(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
