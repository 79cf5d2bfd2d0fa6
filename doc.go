/*
Package hdre implements the HDRE container: a versioned, little-endian,
mip-chained HDR cubemap format with an optional spherical-harmonics block.

An HDRE file starts with a fixed 256-byte header followed by the pixel payload,
level-major, then face-major in the fixed order +X, +Y, +Z, -X, -Y, -Z, then
sample-major. Samples are unsigned bytes, IEEE half floats, IEEE floats or
shared-exponent RGBE quads, selected by the header sample-type tag.

Every historical version above 2.0 stays readable. Files at version 2.75 or
below use the legacy level-size policy that never shrinks a level under 8x8
(see [LevelSize]).

The package also slices horizontal-cross images into cubemap faces
([ExtractCross]) and builds mip chains through a [Prefilterer] collaborator.
Decoders for the source image formats live in the radiance and exrmeta
sub-packages. The exposure-stack merge engine lives in merge.
*/
package hdre
