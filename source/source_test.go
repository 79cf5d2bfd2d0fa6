package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mrjoshuak/go-openexr/exr"

	"github.com/woozymasta/hdre"
	"github.com/woozymasta/hdre/exrmeta"
	"github.com/woozymasta/hdre/rgbe"
)

// crossQuads renders a 4x3 cross of cell-sized faces; every face gets its
// own RGBE quad and empty cells stay black.
func crossQuads(cell int) []rgbe.Pixel {
	w, h := cell*4, cell*3
	quads := make([]rgbe.Pixel, w*h)
	for f := hdre.Face(0); f < hdre.FaceCount; f++ {
		col, row := hdre.CrossCell(f)
		for y := 0; y < cell; y++ {
			for x := 0; x < cell; x++ {
				quads[(row*cell+y)*w+col*cell+x] = rgbe.Pixel{byte(40 * (f + 1)), byte(y * 10), byte(x * 10), 130}
			}
		}
	}

	return quads
}

// flatRadiance writes legacy flat scanlines, which the decoder accepts when
// the first quad is not a run-length marker.
func flatRadiance(cell int) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y %d +X %d\n", cell*3, cell*4)
	for _, q := range crossQuads(cell) {
		buf.Write(q[:])
	}

	return buf.Bytes()
}

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
		data []byte
		want Format
	}{
		{name: "hdre-magic", file: "x.bin", data: []byte("HDRE\x00\x00"), want: FormatHDRE},
		{name: "radiance-magic", file: "x.exr", data: []byte("#?RADIANCE\n"), want: FormatRadiance},
		{name: "exr-magic", file: "x", data: []byte{0x76, 0x2f, 0x31, 0x01, 2, 0, 0, 0}, want: FormatEXR},
		{name: "hdre-ext", file: "env.HDRE", want: FormatHDRE},
		{name: "hdr-ext", file: "/a/b/studio.hdr", want: FormatRadiance},
		{name: "exr-ext", file: "cross.exr", data: []byte("junk"), want: FormatEXR},
		{name: "unknown", file: "photo.jpg", data: []byte{0xff, 0xd8}, want: FormatUnknown},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Detect(tc.file, tc.data); got != tc.want {
				t.Fatalf("Detect(%q) = %s, want %s", tc.file, got, tc.want)
			}
		})
	}
}

func TestDecodeCubemapRadiance(t *testing.T) {
	t.Parallel()

	const cell = 4
	data := flatRadiance(cell)
	lvl, err := DecodeCubemap(context.Background(), Detect("cross.hdr", data), data, nil)
	if err != nil {
		t.Fatalf("DecodeCubemap: %v", err)
	}
	if lvl.Width != cell {
		t.Fatalf("face width %d, want %d", lvl.Width, cell)
	}

	for f := hdre.Face(0); f < hdre.FaceCount; f++ {
		face := lvl.Face(f)
		// pixel (x=1, y=2) of the face
		r, g, b := rgbe.ToFloat(rgbe.Pixel{byte(40 * (f + 1)), 20, 10, 130})
		px := face[(2*cell+1)*Channels:]
		if px[0] != r/255 || px[1] != g/255 || px[2] != b/255 || px[3] != 1 {
			t.Fatalf("face %s pixel = %v, want (%v %v %v 1)", f, px[:4], r/255, g/255, b/255)
		}
	}
}

func TestDecodeCubemapHDRE(t *testing.T) {
	t.Parallel()

	base := hdre.NewLevel(8, 4)
	for f := range base.Faces {
		for i := range base.Faces[f] {
			base.Faces[f][i] = float32(f) + float32(i%4)/8
		}
	}
	data, err := hdre.Write([]hdre.Level{base}, 8, 8, &hdre.WriteOptions{Channels: 3})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	lvl, err := DecodeCubemap(context.Background(), Detect("env.hdre", data), data, nil)
	if err != nil {
		t.Fatalf("DecodeCubemap: %v", err)
	}

	px := lvl.Face(hdre.FaceNegativeX)[5*Channels:]
	want := []float32{3, 3.125, 3.25, 1}
	for c := range want {
		if px[c] != want[c] {
			t.Fatalf("widened pixel = %v, want %v", px[:4], want)
		}
	}
}

// writeEXRCross writes a float RGB cross where every face is filled with
// its face index in R and the cell-local x in G.
func writeEXRCross(t *testing.T, cell int) []byte {
	t.Helper()

	width, height := cell*4, cell*3
	path := filepath.Join(t.TempDir(), "cross.exr")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	h := exr.NewScanlineHeader(width, height)
	h.SetCompression(exr.CompressionZIP)
	cl := exr.NewChannelList()
	for _, name := range []string{"B", "G", "R"} {
		cl.Add(exr.NewChannel(name, exr.PixelTypeFloat))
	}
	h.SetChannels(cl)

	fb := exr.NewFrameBuffer()
	for _, name := range []string{"B", "G", "R"} {
		fb.Set(name, exr.NewSlice(exr.PixelTypeFloat, make([]byte, width*height*4), width, height))
	}
	for face := hdre.Face(0); face < hdre.FaceCount; face++ {
		col, row := hdre.CrossCell(face)
		for y := 0; y < cell; y++ {
			for x := 0; x < cell; x++ {
				px, py := col*cell+x, row*cell+y
				fb.Get("R").SetFloat32(px, py, float32(face))
				fb.Get("G").SetFloat32(px, py, float32(x))
				fb.Get("B").SetFloat32(px, py, 0.5)
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

func TestDecodeCubemapEXR(t *testing.T) {
	t.Parallel()

	const cell = 4
	data := writeEXRCross(t, cell)

	for _, opts := range []*Options{nil, {Decompressor: exrmeta.ScanlineDecompressor{}}} {
		lvl, err := DecodeCubemap(context.Background(), Detect("cross.exr", data), data, opts)
		if err != nil {
			t.Fatalf("DecodeCubemap: %v", err)
		}
		if lvl.Width != cell {
			t.Fatalf("face width %d, want %d", lvl.Width, cell)
		}
		for f := hdre.Face(0); f < hdre.FaceCount; f++ {
			px := lvl.Face(f)[(1*cell+3)*Channels:]
			if px[0] != float32(f) || px[1] != 3 || px[2] != 0.5 || px[3] != 1 {
				t.Fatalf("face %s pixel = %v", f, px[:4])
			}
		}
	}
}

func TestDecodeCubemapEXRUnavailable(t *testing.T) {
	t.Parallel()

	data := writeEXRCross(t, 2)
	unavailable := exrmeta.DecompressorFunc(func(_ context.Context, _ []byte, h *exrmeta.Header) ([]float32, error) {
		return nil, fmt.Errorf("%w: %s", exrmeta.ErrDecompressionUnavailable, h.Compression)
	})

	_, err := DecodeCubemap(context.Background(), FormatEXR, data, &Options{Decompressor: unavailable})
	if !errors.Is(err, exrmeta.ErrDecompressionUnavailable) {
		t.Fatalf("DecodeCubemap error = %v, want %v", err, exrmeta.ErrDecompressionUnavailable)
	}
}

func TestDecodeCubemapErrors(t *testing.T) {
	t.Parallel()

	notCross := []byte("#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y 4 +X 4\n")
	notCross = append(notCross, bytes.Repeat([]byte{1, 1, 1, 128}, 16)...)

	tests := []struct {
		name    string
		format  Format
		data    []byte
		wantErr error
	}{
		{name: "unknown", format: FormatUnknown, data: []byte("x"), wantErr: ErrUnknownFormat},
		{name: "square", format: FormatRadiance, data: notCross, wantErr: hdre.ErrBadCrossLayout},
		{name: "bad-hdre", format: FormatHDRE, data: []byte("HDRE"), wantErr: hdre.ErrTruncatedHeader},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := DecodeCubemap(context.Background(), tc.format, tc.data, nil); !errors.Is(err, tc.wantErr) {
				t.Fatalf("DecodeCubemap error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}
