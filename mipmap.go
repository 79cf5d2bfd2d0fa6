package hdre

const (
	// MaxLevels is the number of mip levels a container stores.
	MaxLevels = 6

	// LegacySizingVersion is the last version that floors level sizes at 8.
	LegacySizingVersion = 2.75

	legacyMinLevelSize = 8
)

// LevelSize returns the face width of a mip level.
//
// Level 0 is always baseWidth. For version > 2.75 each level halves down to 1;
// older files never shrink a level below 8.
func LevelSize(baseWidth, level int, version float32) int {
	if level <= 0 {
		return baseWidth
	}

	size := baseWidth >> level
	if version > LegacySizingVersion {
		if size < 1 {
			return 1
		}
		return size
	}

	if size < legacyMinLevelSize {
		return legacyMinLevelSize
	}

	return size
}

// levelSamples returns the sample count of one mip level across all faces.
func levelSamples(size, channels int) int {
	return size * size * channels * FaceCount
}
