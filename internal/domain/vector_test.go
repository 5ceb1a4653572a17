package domain

import (
	"math"
	"testing"
)

func TestVector_String(t *testing.T) {
	tests := []struct {
		in   Vector
		want string
	}{
		{Vector{}, "[]"},
		{Vector{1, 2, 3}, "[1,2,3]"},
		{Vector{0.1, -0.25}, "[0.1,-0.25]"},
		{Vector{1e-05}, "[1e-05]"},
	}
	for _, tc := range tests {
		if got := tc.in.String(); got != tc.want {
			t.Errorf("String(%v) = %q, want %q", []float32(tc.in), got, tc.want)
		}
	}
}

func TestParseVector_AcceptsForeignForms(t *testing.T) {
	tests := []struct {
		in   string
		want Vector
	}{
		{"[]", Vector{}},
		{"[1.0,2.0]", Vector{1, 2}},
		{" [0.5, -1e-05 ] ", Vector{0.5, -1e-05}},
		{"[1,,2,]", Vector{1, 2}},
	}
	for _, tc := range tests {
		got, err := ParseVector(tc.in)
		if err != nil {
			t.Fatalf("ParseVector(%q): %v", tc.in, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("ParseVector(%q) = %v, want %v", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("ParseVector(%q)[%d] = %v, want %v", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}

func TestParseVector_Invalid(t *testing.T) {
	if _, err := ParseVector("[1,abc]"); err == nil {
		t.Fatal("expected error for non-numeric element")
	}
}

func TestVector_RoundTripBitExact(t *testing.T) {
	v := Vector{
		0.1, -0.2, 3.4028235e38, 1.401298e-45, -0.0012345679,
		math.Float32frombits(0x3f8ccccd), 0.33333334,
	}
	parsed, err := ParseVector(v.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range v {
		if math.Float32bits(parsed[i]) != math.Float32bits(v[i]) {
			t.Errorf("element %d: got bits %x, want %x", i, math.Float32bits(parsed[i]), math.Float32bits(v[i]))
		}
	}
}

func TestVector_ValueAndScan(t *testing.T) {
	v := Vector{0.5, 0.25}
	val, err := v.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if val != "[0.5,0.25]" {
		t.Fatalf("Value = %v", val)
	}

	var scanned Vector
	if err := scanned.Scan([]byte("[0.5,0.25]")); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(scanned) != 2 || scanned[1] != 0.25 {
		t.Fatalf("Scan = %v", scanned)
	}

	if err := scanned.Scan(nil); err != nil || scanned != nil {
		t.Fatalf("Scan(nil) = %v, %v", scanned, err)
	}
	if err := scanned.Scan(42); err == nil {
		t.Fatal("expected error scanning int")
	}
}

func TestVector_ValueRejectsNaN(t *testing.T) {
	v := Vector{float32(math.NaN())}
	if _, err := v.Value(); err == nil {
		t.Fatal("expected error for NaN element")
	}
}
