/*
Package radiance decodes Radiance RGBE (.hdr) still images.

Only run-length RGBE files (FORMAT=32-bit_rle_rgbe) are accepted. The scanline
layout is decided once from the first scanline marker: new-style run-length
planes, or legacy flat RGBE quads for the whole image. Decoded pixels are
RGBA float32 with alpha fixed at 1, and the decoded image satisfies hdr.Image
from github.com/mdouchement/hdr.
*/
package radiance
