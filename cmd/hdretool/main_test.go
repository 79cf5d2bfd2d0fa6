package main

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/woozymasta/hdre"
	"github.com/woozymasta/hdre/merge"
)

func TestParseTimes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    []float64
		wantErr error
	}{
		{in: "", want: nil},
		{in: "0.25, 1,4", want: []float64{0.25, 1, 4}},
		{in: "1,fast", wantErr: merge.ErrMissingExposureTimes},
	}

	for _, tc := range tests {
		got, err := parseTimes(tc.in)
		if !errors.Is(err, tc.wantErr) || !slices.Equal(got, tc.want) {
			t.Fatalf("parseTimes(%q) = %v, %v; want %v, %v", tc.in, got, err, tc.want, tc.wantErr)
		}
	}
}

func TestReadCoefficients(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "sh.txt")
	bad := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(good, []byte("0.5 0.25 1\n-1e-2 0 2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(bad, []byte("0.5 x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := readCoefficients(good)
	if err != nil {
		t.Fatalf("readCoefficients: %v", err)
	}
	if want := []float32{0.5, 0.25, 1, -0.01, 0, 2}; !slices.Equal(got, want) {
		t.Fatalf("coefficients %v, want %v", got, want)
	}

	if _, err := readCoefficients(bad); !errors.Is(err, hdre.ErrInvalidSH) {
		t.Fatalf("readCoefficients error = %v, want %v", err, hdre.ErrInvalidSH)
	}
}

func TestRadianceImage(t *testing.T) {
	t.Parallel()

	m := &radianceImage{width: 2, height: 1, pix: []float32{1, 2, 3, 4, 5, 6}}
	if got := m.HDRAt(1, 0); got != (hdrcolor.RGB{R: 4, G: 5, B: 6}) {
		t.Fatalf("HDRAt = %v", got)
	}
	if got := m.HDRAt(2, 0); got != (hdrcolor.RGB{}) {
		t.Fatalf("out of bounds HDRAt = %v", got)
	}
	if got := m.rgba(); !slices.Equal(got, []float32{1, 2, 3, 1, 4, 5, 6, 1}) {
		t.Fatalf("rgba = %v", got)
	}
}
