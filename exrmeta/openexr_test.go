package exrmeta

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mrjoshuak/go-openexr/exr"
)

// writeOpenEXR writes an RGB float scanline file with go-openexr.
func writeOpenEXR(t *testing.T, width, height int, c exr.Compression) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cross.exr")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	h := exr.NewScanlineHeader(width, height)
	h.SetCompression(c)
	cl := exr.NewChannelList()
	for _, name := range []string{"B", "G", "R"} {
		cl.Add(exr.NewChannel(name, exr.PixelTypeFloat))
	}
	h.SetChannels(cl)

	fb := exr.NewFrameBuffer()
	for i, name := range []string{"B", "G", "R"} {
		fb.Set(name, exr.NewSlice(exr.PixelTypeFloat, make([]byte, width*height*4), width, height))
		s := fb.Get(name)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				s.SetFloat32(x, y, sampleValue(x, y, i))
			}
		}
	}

	w, err := exr.NewScanlineWriter(f, h)
	if err != nil {
		t.Fatalf("NewScanlineWriter: %v", err)
	}
	w.SetFrameBuffer(fb)
	if err := w.WritePixels(0, height-1); err != nil {
		t.Fatalf("WritePixels: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	return data
}

func TestOpenEXRDecompressor(t *testing.T) {
	t.Parallel()

	const width, height = 12, 9
	tests := []struct {
		name        string
		compression exr.Compression
		native      bool
	}{
		{name: "zip", compression: exr.CompressionZIP, native: true},
		{name: "piz", compression: exr.CompressionPIZ},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data := writeOpenEXR(t, width, height, tc.compression)
			decoders := []Decompressor{OpenEXRDecompressor{}}
			if tc.native {
				decoders = append(decoders, ScanlineDecompressor{})
			}

			for _, d := range decoders {
				img, err := Decode(context.Background(), data, d)
				if err != nil {
					t.Fatalf("%T: Decode: %v", d, err)
				}
				if img.Width != width || img.Height != height || img.Channels != 3 {
					t.Fatalf("%T: got %dx%dx%d", d, img.Width, img.Height, img.Channels)
				}

				for i, name := range []string{"B", "G", "R"} {
					idx := img.channelIndex(name)
					if idx < 0 {
						t.Fatalf("%T: channel %s missing", d, name)
					}
					got := img.Pix[(4*width+5)*3+idx]
					if want := sampleValue(5, 4, i); got != want {
						t.Fatalf("%T: channel %s = %v, want %v", d, name, got, want)
					}
				}
			}
		})
	}
}
