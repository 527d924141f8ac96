package math

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMat4InverseRoundTrip(t *testing.T) {
	trs := NewMat4TRS(NewVec3(1, 2, 3), Quaternion{0, 0.7071068, 0, 0.7071068}, NewVec3(2, 2, 2))

	inv, ok := trs.Inverse()
	require.True(t, ok)
	require.True(t, trs.Mul(inv).Compare(NewMat4Identity(), 1e-5))
}

func TestMat4InverseSingular(t *testing.T) {
	_, ok := Mat4{}.Inverse()
	require.False(t, ok)
}

func TestMat4TranslationLayout(t *testing.T) {
	tr := NewMat4Translation(NewVec3(4, 5, 6))
	require.Equal(t, float32(4), tr.Data[3])
	require.Equal(t, float32(5), tr.Data[7])
	require.Equal(t, float32(6), tr.Data[11])

	tp := NewMat4Transposed(tr)
	require.Equal(t, float32(4), tp.Data[12])
	require.Equal(t, float32(5), tp.Data[13])
	require.Equal(t, float32(6), tp.Data[14])
}

func TestMat4FromColumnMajor(t *testing.T) {
	colMajor := [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		7, 8, 9, 1,
	}
	require.Equal(t, NewMat4Translation(NewVec3(7, 8, 9)), NewMat4FromColumnMajor(colMajor))
}

func TestQuaternionToMat4(t *testing.T) {
	// 90 degrees around Z maps +X onto +Y.
	rot := Quaternion{0, 0, 0.7071068, 0.7071068}.ToMat4()
	x := Vec3{rot.Data[0], rot.Data[4], rot.Data[8]}
	require.True(t, x.Compare(NewVec3(0, 1, 0), 1e-5))

	require.Equal(t, NewMat4Identity(), NewQuatIdentity().ToMat4())
}

func TestNewMat4FromSlice(t *testing.T) {
	_, ok := NewMat4FromSlice(make([]float32, 15))
	require.False(t, ok)

	values := make([]float32, 16)
	values[5] = 3
	mat, ok := NewMat4FromSlice(values)
	require.True(t, ok)
	require.Equal(t, float32(3), mat.Data[5])
}

func TestClamp(t *testing.T) {
	require.Equal(t, 1, Clamp(5, 0, 1))
	require.Equal(t, float32(0), Clamp(float32(-2), 0, 1))
	require.Equal(t, 0.5, Clamp(0.5, 0, 1))
	require.Equal(t, 7, Clamp(7, 7, 7))
	require.Equal(t, "m", Clamp("z", "a", "m"))
}
