/*
Package merge reconstructs a radiance image from an exposure stack.

Each color channel runs through four stages on its own goroutine: sampling
intensities at fixed locations of the reference exposure, fitting a response
curve g(z) by weighted least squares, mapping every pixel to log radiance, and
composing the channel into the interleaved output. Results carry per-channel
statistics instead of sharing state between runs.

The response curve is solved through the SVD pseudo-inverse of
gonum.org/v1/gonum/mat. A rank-deficient system is reported as
ErrUnsolvableSystem rather than returned as a degenerate curve.
*/
package merge
