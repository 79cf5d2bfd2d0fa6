package exrmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Magic is the little-endian magic number of OpenEXR files.
const Magic = 20000630

// Version field flags.
const (
	FlagTiled     = 0x200
	FlagLongNames = 0x400
	FlagNonImage  = 0x800
	FlagMultipart = 0x1000
)

// Compression is the compression tag of a part.
type Compression uint8

// Compression tags.
const (
	CompressionNone Compression = iota
	CompressionRLE
	CompressionZIPS
	CompressionZIP
	CompressionPIZ
	CompressionPXR24
	CompressionB44
	CompressionB44A
	CompressionDWAA
	CompressionDWAB
)

var compressionNames = [...]string{"none", "rle", "zips", "zip", "piz", "pxr24", "b44", "b44a", "dwaa", "dwab"}

func (c Compression) String() string {
	if int(c) < len(compressionNames) {
		return compressionNames[c]
	}

	return fmt.Sprintf("compression(%d)", uint8(c))
}

// LinesPerBlock returns the scanlines stored in one block.
func (c Compression) LinesPerBlock() int {
	switch c {
	case CompressionZIP, CompressionPXR24:
		return 16
	case CompressionPIZ, CompressionB44, CompressionB44A, CompressionDWAA:
		return 32
	case CompressionDWAB:
		return 256
	default:
		return 1
	}
}

// PixelType is the sample type of a channel.
type PixelType int32

// Pixel types.
const (
	PixelUint PixelType = iota
	PixelHalf
	PixelFloat
)

// Size returns the byte size of one sample, or 0 for an unknown type.
func (p PixelType) Size() int {
	switch p {
	case PixelHalf:
		return 2
	case PixelUint, PixelFloat:
		return 4
	default:
		return 0
	}
}

func (p PixelType) String() string {
	switch p {
	case PixelUint:
		return "uint"
	case PixelHalf:
		return "half"
	case PixelFloat:
		return "float"
	default:
		return fmt.Sprintf("pixeltype(%d)", int32(p))
	}
}

// LineOrder is the storage order of scanline blocks.
type LineOrder uint8

// Line orders.
const (
	LineOrderIncreasingY LineOrder = iota
	LineOrderDecreasingY
	LineOrderRandomY
)

// Channel is one entry of a chlist attribute.
type Channel struct {
	Name      string    `json:"name"`
	Type      PixelType `json:"type"`
	Linear    bool      `json:"linear"`
	XSampling int32     `json:"x_sampling"`
	YSampling int32     `json:"y_sampling"`
}

// Box2i is an inclusive integer rectangle.
type Box2i struct {
	XMin int32 `json:"x_min"`
	YMin int32 `json:"y_min"`
	XMax int32 `json:"x_max"`
	YMax int32 `json:"y_max"`
}

// Width returns the inclusive width.
func (b Box2i) Width() int { return int(b.XMax) - int(b.XMin) + 1 }

// Height returns the inclusive height.
func (b Box2i) Height() int { return int(b.YMax) - int(b.YMin) + 1 }

// Chromaticities holds CIE xy coordinates of the primaries and white point.
type Chromaticities struct {
	RedX, RedY     float32
	GreenX, GreenY float32
	BlueX, BlueY   float32
	WhiteX, WhiteY float32
}

// V2f is a 2D float vector.
type V2f [2]float32

// Attribute is one parsed header attribute. Value holds string, []Channel,
// Chromaticities, Compression, Box2i, LineOrder, float32, int32, V2f or, for
// other types, the raw []byte.
type Attribute struct {
	Name  string
	Type  string
	Value any
}

// Header is a parsed single-part OpenEXR header.
type Header struct {
	Version     uint8
	Flags       uint32
	Attributes  []Attribute
	Channels    []Channel
	Compression Compression
	DataWindow  Box2i
	LineOrder   LineOrder
	// PayloadOffset is the offset of the block offset table.
	PayloadOffset int
}

// Width returns the data window width.
func (h *Header) Width() int { return h.DataWindow.Width() }

// Height returns the data window height.
func (h *Header) Height() int { return h.DataWindow.Height() }

// ChannelCount returns the number of channels.
func (h *Header) ChannelCount() int { return len(h.Channels) }

// Tiled reports whether the file stores tiles instead of scanlines.
func (h *Header) Tiled() bool { return h.Flags&FlagTiled != 0 }

// Attribute returns the named attribute.
func (h *Header) Attribute(name string) (Attribute, bool) {
	for _, a := range h.Attributes {
		if a.Name == name {
			return a, true
		}
	}

	return Attribute{}, false
}

// cursor reads little-endian fields from an attribute list.
type cursor struct {
	data []byte
	off  int
}

func (c *cursor) cstring() (string, error) {
	i := bytes.IndexByte(c.data[c.off:], 0)
	if i < 0 {
		return "", fmt.Errorf("%w: unterminated string at offset %d", ErrTruncatedAttribute, c.off)
	}
	s := string(c.data[c.off : c.off+i])
	c.off += i + 1

	return s, nil
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.off+n > len(c.data) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedAttribute, n, c.off, len(c.data)-c.off)
	}
	b := c.data[c.off : c.off+n]
	c.off += n

	return b, nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) f32() (float32, error) {
	v, err := c.u32()
	return math.Float32frombits(v), err
}

// ParseHeader parses the magic, version field and attribute list.
// Parsing stops at the empty attribute name that terminates the header.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < 8 || binary.LittleEndian.Uint32(data) != Magic {
		return nil, ErrInvalidMagic
	}

	field := binary.LittleEndian.Uint32(data[4:])
	h := &Header{
		Version: uint8(field),
		Flags:   field &^ 0xff,
	}

	var hasChannels, hasWindow, hasCompression bool
	c := &cursor{data: data, off: 8}
	for {
		name, err := c.cstring()
		if err != nil {
			return nil, err
		}
		if name == "" {
			break
		}
		typ, err := c.cstring()
		if err != nil {
			return nil, err
		}
		size, err := c.u32()
		if err != nil {
			return nil, err
		}
		raw, err := c.bytes(int(size))
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}

		value, err := parseValue(typ, raw)
		if err != nil {
			return nil, fmt.Errorf("attribute %q of type %s: %w", name, typ, err)
		}
		h.Attributes = append(h.Attributes, Attribute{Name: name, Type: typ, Value: value})

		switch v := value.(type) {
		case []Channel:
			if name == "channels" {
				h.Channels, hasChannels = v, true
			}
		case Box2i:
			if name == "dataWindow" {
				h.DataWindow, hasWindow = v, true
			}
		case Compression:
			if name == "compression" {
				h.Compression, hasCompression = v, true
			}
		case LineOrder:
			if name == "lineOrder" {
				h.LineOrder = v
			}
		}
	}

	switch {
	case !hasChannels:
		return nil, fmt.Errorf("%w: channels", ErrMissingAttribute)
	case !hasWindow:
		return nil, fmt.Errorf("%w: dataWindow", ErrMissingAttribute)
	case !hasCompression:
		return nil, fmt.Errorf("%w: compression", ErrMissingAttribute)
	}
	if h.Width() <= 0 || h.Height() <= 0 {
		return nil, fmt.Errorf("%w: empty data window %+v", ErrUnsupportedLayout, h.DataWindow)
	}

	h.PayloadOffset = c.off

	return h, nil
}

func parseValue(typ string, raw []byte) (any, error) {
	c := &cursor{data: raw}

	switch typ {
	case "string":
		return string(raw), nil
	case "chlist":
		return parseChannels(c)
	case "chromaticities":
		var f [8]float32
		for i := range f {
			v, err := c.f32()
			if err != nil {
				return nil, err
			}
			f[i] = v
		}
		return Chromaticities{f[0], f[1], f[2], f[3], f[4], f[5], f[6], f[7]}, nil
	case "compression":
		b, err := c.bytes(1)
		if err != nil {
			return nil, err
		}
		return Compression(b[0]), nil
	case "lineOrder":
		b, err := c.bytes(1)
		if err != nil {
			return nil, err
		}
		return LineOrder(b[0]), nil
	case "box2i":
		var v [4]int32
		for i := range v {
			u, err := c.u32()
			if err != nil {
				return nil, err
			}
			v[i] = int32(u)
		}
		return Box2i{XMin: v[0], YMin: v[1], XMax: v[2], YMax: v[3]}, nil
	case "float":
		return c.f32()
	case "int":
		u, err := c.u32()
		return int32(u), err
	case "v2f":
		x, err := c.f32()
		if err != nil {
			return nil, err
		}
		y, err := c.f32()
		return V2f{x, y}, err
	default:
		return raw, nil
	}
}

// parseChannels reads name, pixel type, linear flag, three reserved bytes and
// sampling rates until the empty terminating name.
func parseChannels(c *cursor) ([]Channel, error) {
	var out []Channel
	for {
		name, err := c.cstring()
		if err != nil {
			return nil, err
		}
		if name == "" {
			return out, nil
		}

		b, err := c.bytes(16)
		if err != nil {
			return nil, err
		}
		out = append(out, Channel{
			Name:      name,
			Type:      PixelType(int32(binary.LittleEndian.Uint32(b))),
			Linear:    b[4] != 0,
			XSampling: int32(binary.LittleEndian.Uint32(b[8:])),
			YSampling: int32(binary.LittleEndian.Uint32(b[12:])),
		})
	}
}
