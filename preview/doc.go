/*
Package preview renders HDRE cubemap levels into low-dynamic-range preview
textures and stores them as EDDS (Enfusion DDS) files.

Tonemap lays a level out as a horizontal cross, applies exposure, Reinhard
compression and display gamma, and returns an 8-bit image. Write encodes such
an image with BCn or uncompressed BGRA payloads, one block per mip level from
smallest to largest. Blocks are stored as-is (COPY) or as an LZ4 chunk stream
with a rolling 64 KiB dictionary. Read decodes the largest level back to RGBA.
*/
package preview
