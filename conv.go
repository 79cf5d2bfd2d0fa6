// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hdre

package hdre

const maxUint16 = int(^uint16(0))

// u16FromInt converts an int to a uint16.
func u16FromInt(n int) (uint16, error) {
	if n < 0 || n > maxUint16 {
		return 0, ErrSizeOverflow
	}

	// #nosec G115 -- bounds checked above.
	return uint16(n), nil
}

// isPowerOfTwo reports whether n is a positive power of two.
func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
