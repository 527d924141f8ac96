package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/** @brief A quaternion, used to represent rotational orientation. Components are stored x, y, z, w. */
type Quaternion Vec4

/**
 * @brief a 4x4 matrix used for bone offsets, socket transforms and node transforms.
 * Elements are stored row-major for column vectors: Data[row*4+col], with the
 * translation in Data[3], Data[7] and Data[11].
 */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}
