package hdre

import (
	"context"
	"fmt"
	"os"
)

// ProgressFunc observes a long-running operation. It is called once per
// completed unit (mip level) with the 1-based count done and the total.
// It never affects results.
type ProgressFunc func(done, total int)

// ReadOptions configures container reading.
type ReadOptions struct {
	// Progress is called after each decoded mip level.
	Progress ProgressFunc
}

// ReadConfig decodes and validates the header without touching the payload.
func ReadConfig(data []byte) (*Header, error) {
	return parseHeader(data)
}

// Read decodes an HDRE container.
func Read(data []byte, opts *ReadOptions) (*Image, error) {
	return ReadContext(context.Background(), data, opts)
}

// ReadFile reads and decodes an HDRE file.
func ReadFile(path string, opts *ReadOptions) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrOpenFile, path, err)
	}

	return Read(data, opts)
}

// ReadContext decodes an HDRE container, checking ctx between mip levels.
// On error no partial image is returned.
func ReadContext(ctx context.Context, data []byte, opts *ReadOptions) (*Image, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	plan, err := planLevels(h, len(data)-h.HeaderSize)
	if err != nil {
		return nil, err
	}

	log := Logger()
	bps := h.SampleType.BytesPerSample()
	payload := data[h.HeaderSize:]
	levels := make([]Level, len(plan))

	off := 0
	for i, size := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		faceSamples := size * size * h.Channels
		faceBytes := faceSamples * bps
		lvl := Level{Width: size}
		for f := range lvl.Faces {
			lvl.Faces[f] = make([]float32, faceSamples)
			decodeSamples(lvl.Faces[f], payload[off:off+faceBytes], h.SampleType)
			off += faceBytes
		}
		levels[i] = lvl

		log.Debug("hdre: decoded level", "level", i, "size", size, "sampleType", h.SampleType.String())
		if opts != nil && opts.Progress != nil {
			opts.Progress(i+1, len(plan))
		}
	}

	return &Image{Header: *h, Levels: levels}, nil
}

// planLevels returns the face width of every level present in a payload of
// payloadLen bytes. Reading stops at the first level with no data at all.
func planLevels(h *Header, payloadLen int) ([]int, error) {
	bps := h.SampleType.BytesPerSample()
	plan := make([]int, 0, MaxLevels)

	off := 0
	for i := 0; i < MaxLevels; i++ {
		remaining := payloadLen - off
		if remaining <= 0 {
			break
		}

		size := LevelSize(h.Width, i, h.Version)
		need := levelSamples(size, h.Channels) * bps
		if need <= 0 {
			break
		}
		if remaining < need {
			return nil, fmt.Errorf("%w: level %d at offset %d needs %d bytes, have %d",
				ErrTruncatedPayload, i, h.HeaderSize+off, need, remaining)
		}

		plan = append(plan, size)
		off += need
	}

	if len(plan) == 0 {
		return nil, fmt.Errorf("%w: no level data after %d byte header", ErrTruncatedPayload, h.HeaderSize)
	}

	return plan, nil
}
