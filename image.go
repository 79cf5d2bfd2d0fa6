package hdre

// Level is one mip level: six square faces in FaceOrder, each a flat buffer
// of Width*Width*channels samples.
type Level struct {
	Width int
	Faces [FaceCount][]float32
}

// NewLevel allocates a zeroed level.
func NewLevel(width, channels int) Level {
	l := Level{Width: width}
	for i := range l.Faces {
		l.Faces[i] = make([]float32, width*width*channels)
	}

	return l
}

// Face returns the buffer of face f.
func (l *Level) Face(f Face) []float32 {
	return l.Faces[f]
}

// Image is a decoded container: its header and up to MaxLevels mip levels,
// level 0 at base resolution.
type Image struct {
	Header Header
	Levels []Level
}

// Legacy reports whether the image was stored before version 3.0.
func (img *Image) Legacy() bool {
	return img.Header.Legacy()
}

// FlipY mirrors every face of level 0 vertically.
// Renderers that sample cubemaps bottom-up apply this to non-legacy files.
func (img *Image) FlipY() {
	if len(img.Levels) == 0 {
		return
	}

	l := &img.Levels[0]
	for i := range l.Faces {
		flipRows(l.Faces[i], l.Width, img.Header.Channels)
	}
}

// SwapLegacyFaces exchanges faces 2 and 3 of every level, undoing the side
// order used by files written before version 3.0.
func (img *Image) SwapLegacyFaces() {
	for i := range img.Levels {
		f := &img.Levels[i].Faces
		f[2], f[3] = f[3], f[2]
	}
}

// flipRows mirrors a square face buffer vertically in place.
func flipRows(face []float32, width, channels int) {
	stride := width * channels
	if stride == 0 || len(face) < stride*width {
		return
	}

	tmp := make([]float32, stride)
	for top, bottom := 0, width-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := face[top*stride : (top+1)*stride]
		b := face[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
