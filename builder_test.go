package hdre

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestRoughness(t *testing.T) {
	t.Parallel()

	want := []float64{1.0 / 3, 0.5, 2.0 / 3, 5.0 / 6, 1}
	for l := 1; l < MaxLevels; l++ {
		if got := Roughness(l, MaxLevels); math.Abs(got-want[l-1]) > 1e-12 {
			t.Fatalf("Roughness(%d) = %v, want %v", l, got, want[l-1])
		}
	}
	if Roughness(1, 0) != 0 {
		t.Fatalf("Roughness with no levels should be 0")
	}
}

func TestBuildLevelsBoxFilter(t *testing.T) {
	t.Parallel()

	base := NewLevel(8, 4)
	for f := range base.Faces {
		for i := range base.Faces[f] {
			base.Faces[f][i] = float32(f + 1)
		}
	}

	var done []int
	levels, err := BuildLevels(context.Background(), base, &BuildOptions{
		Progress: func(n, total int) { done = append(done, n) },
	})
	if err != nil {
		t.Fatalf("BuildLevels: %v", err)
	}
	if len(levels) != MaxLevels || len(done) != MaxLevels {
		t.Fatalf("levels %d, progress calls %d", len(levels), len(done))
	}

	for l, lvl := range levels {
		if want := LevelSize(8, l, Version); lvl.Width != want {
			t.Fatalf("level %d width %d, want %d", l, lvl.Width, want)
		}
		for f, face := range lvl.Faces {
			for _, v := range face {
				if v != float32(f+1) {
					t.Fatalf("level %d face %d averaged to %v, want %v", l, f, v, f+1)
				}
			}
		}
	}

	// the chain must be writable as is
	if _, err := Write(levels, 8, 8, nil); err != nil {
		t.Fatalf("Write built chain: %v", err)
	}
}

func TestBoxFilterAverages(t *testing.T) {
	t.Parallel()

	base := NewLevel(2, 1)
	for f := range base.Faces {
		copy(base.Faces[f], []float32{1, 2, 3, 6})
	}

	out, err := BoxFilter{}.Filter(context.Background(), &base, 1, 1, 0.5)
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if out.Faces[0][0] != 3 {
		t.Fatalf("average %v, want 3", out.Faces[0][0])
	}

	base3 := NewLevel(3, 1)
	if _, err := (BoxFilter{}).Filter(context.Background(), &base3, 1, 1, 0); !errors.Is(err, ErrNotPowerOfTwo) {
		t.Fatalf("Filter error = %v, want %v", err, ErrNotPowerOfTwo)
	}
}

func TestBuildLevelsPrefilterer(t *testing.T) {
	t.Parallel()

	base := NewLevel(4, 4)
	var roughness []float64
	filter := PrefilterFunc(func(_ context.Context, b *Level, ch, size int, r float64) (Level, error) {
		roughness = append(roughness, r)
		return NewLevel(size, ch), nil
	})

	levels, err := BuildLevels(context.Background(), base, &BuildOptions{Levels: 3, Prefilterer: filter})
	if err != nil {
		t.Fatalf("BuildLevels: %v", err)
	}
	if len(levels) != 3 || len(roughness) != 2 {
		t.Fatalf("levels %d, filter calls %d", len(levels), len(roughness))
	}
	if roughness[0] != 2.0/3 || roughness[1] != 1 {
		t.Fatalf("roughness %v", roughness)
	}

	bad := PrefilterFunc(func(_ context.Context, _ *Level, ch, size int, _ float64) (Level, error) {
		return NewLevel(size+1, ch), nil
	})
	if _, err := BuildLevels(context.Background(), base, &BuildOptions{Prefilterer: bad}); !errors.Is(err, ErrLevelSizeMismatch) {
		t.Fatalf("BuildLevels error = %v, want %v", err, ErrLevelSizeMismatch)
	}

	failing := PrefilterFunc(func(context.Context, *Level, int, int, float64) (Level, error) {
		return Level{}, context.DeadlineExceeded
	})
	if _, err := BuildLevels(context.Background(), base, &BuildOptions{Prefilterer: failing}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("BuildLevels error = %v, want wrapped filter error", err)
	}

	if _, err := BuildLevels(context.Background(), NewLevel(4, 3), nil); !errors.Is(err, ErrFaceSizeMismatch) {
		t.Fatalf("BuildLevels error = %v, want %v", err, ErrFaceSizeMismatch)
	}
}
