package process_test

import (
	"testing"

	"memscene/process"
	"memscene/process_blob"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPathFollowsPointers(t *testing.T) {
	img := process_blob.NewProcessImage(1, process.BASEADDRESS)
	img.PutPointer(process.BASEADDRESS+0x100, 0x20000000)
	img.PutPointer(0x20000000+0x1c0, 0x30000000)
	img.PutUint32(0x30000000+0x10, 77)

	v, err := process.ReadPath[uint32](img, process.BASEADDRESS, 0x100, 0x1c0, 0x10)
	require.NoError(t, err)
	assert.Equal(t, uint32(77), v)

	ptr, err := process.ReadPath[uint64](img, process.BASEADDRESS, 0x100, 0x1c0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x30000000), ptr)
}

func TestReadPathNullLink(t *testing.T) {
	img := process_blob.NewProcessImage(1, process.BASEADDRESS)
	img.PutPointer(process.BASEADDRESS+0x100, 0)

	_, err := process.ReadPath[uint64](img, process.BASEADDRESS, 0x100, 0x8)
	assert.ErrorIs(t, err, process.ErrInvalidPointer)

	_, err = process.ReadPath[uint64](img, 0x50000000, 0x0, 0x8)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)
}
