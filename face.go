package hdre

// Face identifies one side of a cubemap.
type Face int

// Cubemap faces in container order.
const (
	FacePositiveX Face = iota
	FacePositiveY
	FacePositiveZ
	FaceNegativeX
	FaceNegativeY
	FaceNegativeZ
)

// FaceCount is the number of faces per mip level.
const FaceCount = 6

// FaceOrder is the fixed order faces are stored in every mip level.
var FaceOrder = [FaceCount]Face{
	FacePositiveX,
	FacePositiveY,
	FacePositiveZ,
	FaceNegativeX,
	FaceNegativeY,
	FaceNegativeZ,
}

// String returns the conventional face name, e.g. "+X".
func (f Face) String() string {
	switch f {
	case FacePositiveX:
		return "+X"
	case FacePositiveY:
		return "+Y"
	case FacePositiveZ:
		return "+Z"
	case FaceNegativeX:
		return "-X"
	case FaceNegativeY:
		return "-Y"
	case FaceNegativeZ:
		return "-Z"
	default:
		return "invalid"
	}
}
