package remote

import (
	"errors"
	"math"
	"testing"

	"memscene/process"
	"memscene/process_blob"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attachedImage(t *testing.T) (*Accessor, *process_blob.ProcessImage) {
	t.Helper()
	img := process_blob.NewProcessImage(4242, process.BASEADDRESS)
	a := New(WithOpener(func(name string) (process.Process, error) {
		if name != "Game.exe" {
			return nil, errors.New("not found")
		}
		return img, nil
	}))
	require.True(t, a.Attach("Game.exe"))
	return a, img
}

func TestDetachedReadsReturnDefaults(t *testing.T) {
	a := New()
	assert.False(t, a.Attached())

	for _, addr := range []process.ProcessMemoryAddress{0, 1, 0x140000000, math.MaxUint64} {
		assert.Zero(t, a.ReadInt32(addr))
		assert.Zero(t, a.ReadInt64(addr))
		assert.Zero(t, a.ReadFloat32(addr))
		assert.Zero(t, a.ReadFloat64(addr))
		assert.Nil(t, a.ReadBytes(addr, 16))
		assert.Zero(t, a.ReadPointer(addr))
		assert.Equal(t, [3]float32{}, a.ReadVector3f(addr))
		m, ok := a.ReadMatrix16f(addr)
		assert.False(t, ok)
		assert.Equal(t, [16]float32{}, m)
		assert.Empty(t, a.ReadString(addr, 64))
		assert.Zero(t, a.ReadChain(addr, 8, 8))
		assert.False(t, a.WriteInt32(addr, 1))
		assert.False(t, a.WriteFloat32(addr, 1))
	}
}

func TestAttachFailures(t *testing.T) {
	assert.False(t, New().Attach("Game.exe"), "no opener")

	a := New(WithOpener(func(string) (process.Process, error) { return nil, errors.New("denied") }))
	assert.False(t, a.Attach("Game.exe"))
	assert.False(t, a.Attached())

	a = New(WithOpener(func(string) (process.Process, error) { panic("boom") }))
	assert.False(t, a.Attach("Game.exe"))
}

func TestTypedReads(t *testing.T) {
	a, img := attachedImage(t)
	assert.Equal(t, process.ProcessID(4242), a.PID())
	assert.Equal(t, process.BASEADDRESS, a.BaseAddress())

	img.PutUint32(0x20000000, uint32(0xFFFFFFFE))
	img.PutUint64(0x20000010, 0x1122334455667788)
	img.PutFloat32(0x20000020, 12.5)
	img.PutFloats(0x20000030, 1, 2, 3)
	img.PutBytes(0x20000040, []byte("Players\x00junk"))

	assert.Equal(t, int32(-2), a.ReadInt32(0x20000000))
	assert.Equal(t, int64(0x1122334455667788), a.ReadInt64(0x20000010))
	assert.Equal(t, float32(12.5), a.ReadFloat32(0x20000020))
	assert.Equal(t, [3]float32{1, 2, 3}, a.ReadVector3f(0x20000030))
	assert.Equal(t, "Players", a.ReadString(0x20000040, 32))
	assert.Equal(t, []byte("Play"), a.ReadBytes(0x20000040, 4))

	matrix := make([]float32, 16)
	for i := range matrix {
		matrix[i] = float32(i)
	}
	img.PutFloats(0x20001000, matrix...)
	m, ok := a.ReadMatrix16f(0x20001000)
	require.True(t, ok)
	assert.Equal(t, float32(15), m[15])
}

func TestReadStringDropsInvalidUTF8(t *testing.T) {
	a, img := attachedImage(t)
	img.PutBytes(0x20000000, []byte{'a', 0xff, 'b', 0})
	assert.Equal(t, "ab", a.ReadString(0x20000000, 8))
}

func TestFaultsDegradeToZero(t *testing.T) {
	a, img := attachedImage(t)
	img.PutUint64(0x20000000, 99)

	img.Fault(0x20000000, true)
	assert.Zero(t, a.ReadInt64(0x20000000))
	img.Fault(0x20000000, false)
	assert.Equal(t, int64(99), a.ReadInt64(0x20000000))

	// a read running off the end of the mapped page
	assert.Nil(t, a.ReadBytes(0x20000ff8, 16))
	assert.Nil(t, a.ReadBytes(0x20000000, MaxReadSize+1))

	img.PanicOnRead = true
	assert.Zero(t, a.ReadInt64(0x20000000))
	assert.Zero(t, a.ReadChain(0x20000000, 0, 0))
}

func TestReadChain(t *testing.T) {
	a, img := attachedImage(t)
	img.PutPointer(process.BASEADDRESS+0x40, 0x30000000)
	img.PutPointer(0x30000000+0x1c0, 0x40000000)

	assert.Equal(t, process.ProcessMemoryAddress(0x40000000), a.ReadChain(a.BaseAddress(), 0x40, 0x1c0))
	assert.Zero(t, a.ReadChain(a.BaseAddress(), 0x48, 0x1c0))
}

func TestWritesAndDetach(t *testing.T) {
	a, img := attachedImage(t)
	img.PutUint32(0x20000000, 0)

	assert.True(t, a.WriteInt32(0x20000000, -7))
	assert.Equal(t, int32(-7), a.ReadInt32(0x20000000))
	assert.True(t, a.WriteFloat32(0x20000004, 16))
	assert.Equal(t, float32(16), a.ReadFloat32(0x20000004))
	assert.False(t, a.WriteInt32(0, 1))

	a.Detach()
	a.Detach()
	assert.False(t, a.Attached())
	assert.False(t, img.IsOpen())
	assert.Zero(t, a.PID())
	assert.Zero(t, a.ReadInt32(0x20000000))
	assert.False(t, a.WriteInt32(0x20000000, 1))
}
