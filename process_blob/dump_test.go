package process_blob

import (
	"os"
	"path/filepath"
	"testing"

	"memscene/process"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	img := NewProcessImage(42, process.BASEADDRESS)
	img.PutPointer(process.BASEADDRESS+0x100, 0x10000010)
	img.PutBytes(0x10000ffc, []byte("spans two pages"))
	img.PutFloats(0x30000000, 1, 2, 3)

	dir := t.TempDir()
	require.NoError(t, img.Save(dir, "RobloxPlayerBeta.exe"))

	entries, err := filepath.Glob(filepath.Join(dir, "blob_*.bin"))
	require.NoError(t, err)
	assert.Len(t, entries, 3, "contiguous pages share one blob")

	loaded, name, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "RobloxPlayerBeta.exe", name)
	assert.Equal(t, process.ProcessID(42), loaded.GetPID())
	assert.Equal(t, process.BASEADDRESS, loaded.BaseAddress())

	data, err := loaded.ReadMemory(0x10000ffc, 15)
	require.NoError(t, err)
	assert.Equal(t, "spans two pages", string(data))

	want, err := img.GetMemoryMap()
	require.NoError(t, err)
	got, err := loaded.GetMemoryMap()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadErrors(t *testing.T) {
	_, _, err := Load(t.TempDir())
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, metadataFile), []byte("{"), 0o644))
	_, _, err = Load(dir)
	assert.Error(t, err)
}

func TestOpenerMatchesName(t *testing.T) {
	img := NewProcessImage(9, process.BASEADDRESS)
	require.NoError(t, img.Close())
	open := Opener(img, "Game.exe")

	_, err := open("other.exe")
	assert.ErrorIs(t, err, os.ErrNotExist)

	proc, err := open("game.EXE")
	require.NoError(t, err)
	assert.Equal(t, process.ProcessID(9), proc.GetPID())
}

func TestRecorderKeepsSuccessfulReads(t *testing.T) {
	src := NewProcessImage(5, process.BASEADDRESS)
	src.PutUint64(0x10000000, 0xdeadbeef)
	src.PutUint64(0x10000008, 0xfeed)

	rec := NewRecorder(src)
	_, err := rec.ReadMemory(0x10000000, 8)
	require.NoError(t, err)
	_, err = rec.ReadMemory(0x50000000, 8)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)

	replay := rec.Image()
	data, err := replay.ReadMemory(0x10000000, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xef, 0xbe, 0xad, 0xde, 0, 0, 0, 0}, data)

	// Unread bytes of a recorded page come back zeroed.
	data, err = replay.ReadMemory(0x10000008, 8)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 8), data)

	assert.False(t, replay.IsValidAddress(0x50000000))
	assert.Equal(t, src.BaseAddress(), replay.BaseAddress())
}
