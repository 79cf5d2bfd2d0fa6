package hdre

import "fmt"

// crossCells maps each face to its (column, row) cell in a 4x3 horizontal
// cross.
var crossCells = [FaceCount][2]int{
	FacePositiveX: {2, 1},
	FacePositiveY: {1, 2},
	FacePositiveZ: {1, 1},
	FaceNegativeX: {0, 1},
	FaceNegativeY: {1, 0},
	FaceNegativeZ: {3, 1},
}

// CrossCell returns the (column, row) of face f in a horizontal cross.
func CrossCell(f Face) (col, row int) {
	c := crossCells[f]
	return c[0], c[1]
}

// ExtractCross slices an interleaved width x height image laid out as a 4x3
// horizontal cross into six faces in FaceOrder. Rows are copied in source
// order without flipping.
func ExtractCross(pix []float32, width, height, channels int) (Level, error) {
	cell, err := crossCellSize(width, height)
	if err != nil {
		return Level{}, err
	}
	if channels < 1 {
		return Level{}, fmt.Errorf("%w: %d", ErrInvalidChannels, channels)
	}
	if len(pix) < width*height*channels {
		return Level{}, fmt.Errorf("%w: %d samples for %dx%dx%d", ErrBadCrossLayout, len(pix), width, height, channels)
	}

	stride := width * channels
	row := cell * channels
	lvl := NewLevel(cell, channels)
	for f := range lvl.Faces {
		cx, cy := crossCells[f][0]*cell, crossCells[f][1]*cell
		face := lvl.Faces[f]
		for y := 0; y < cell; y++ {
			src := (cy+y)*stride + cx*channels
			copy(face[y*row:(y+1)*row], pix[src:src+row])
		}
	}

	return lvl, nil
}

// AssembleCross lays the faces of l out as a horizontal cross, the inverse
// of ExtractCross. Unused cells are zero.
func AssembleCross(l *Level, channels int) (pix []float32, width, height int) {
	cell := l.Width
	width, height = cell*4, cell*3
	pix = make([]float32, width*height*channels)

	stride := width * channels
	row := cell * channels
	for f, face := range l.Faces {
		if len(face) < cell*row {
			continue
		}
		cx, cy := crossCells[f][0]*cell, crossCells[f][1]*cell
		for y := 0; y < cell; y++ {
			dst := (cy+y)*stride + cx*channels
			copy(pix[dst:dst+row], face[y*row:(y+1)*row])
		}
	}

	return pix, width, height
}

// crossCellSize validates cross dimensions and returns the face width.
func crossCellSize(width, height int) (int, error) {
	if width <= 0 || height <= 0 || width%4 != 0 || height%3 != 0 || width/4 != height/3 {
		return 0, fmt.Errorf("%w: %dx%d is not a 4x3 grid of square cells", ErrBadCrossLayout, width, height)
	}

	cell := width / 4
	if !isPowerOfTwo(cell) {
		return 0, fmt.Errorf("%w: cell size %d: %v", ErrBadCrossLayout, cell, ErrNotPowerOfTwo)
	}

	return cell, nil
}
