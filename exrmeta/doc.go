/*
Package exrmeta parses OpenEXR headers and wraps decoded pixel data.

ParseHeader walks the attribute list of a single-part file and decodes the
attribute types an HDR cross image carries: string, chlist, chromaticities,
compression, box2i, lineOrder, float, int and v2f. Other types are kept as raw
bytes. Width and height come from the data window and the channel count from
the channel list.

Pixel payloads are not decoded by the parser. Decode hands the file to a
Decompressor and wraps the flat interleaved float buffer it returns.
ScanlineDecompressor covers uncompressed, RLE, ZIPS and ZIP scanline files
natively. OpenEXRDecompressor delegates to github.com/mrjoshuak/go-openexr and
covers every compression that library reads.
*/
package exrmeta
