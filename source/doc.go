// Package source decides the input format of a cubemap once, at the
// boundary, and decodes it into a level-0 face set.
package source
