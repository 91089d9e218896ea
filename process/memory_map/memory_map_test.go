package memory_map

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMaps = `140000000-140001000 r--p 00000000 00:2a 99 /games/Roblox Player/RobloxPlayerBeta.exe
140001000-147000000 r-xp 00001000 00:2a 99 /games/Roblox Player/RobloxPlayerBeta.exe
7f0000000000-7f0000021000 rw-p 00000000 00:00 0
garbage line
7f1000000000-7f1000001000 ---p 00000000 00:00 0 [guard]
`

func TestParseAndFindRegion(t *testing.T) {
	mm, err := Parse(strings.NewReader(sampleMaps))
	require.NoError(t, err)
	require.Len(t, mm, 4)
	assert.Equal(t, "/games/Roblox Player/RobloxPlayerBeta.exe", mm[0].Path)
	assert.Empty(t, mm[2].Path)

	SortByAddress(mm)
	region := FindRegion(0x7f0000000010, mm)
	require.NotNil(t, region)
	assert.True(t, region.IsWritable())

	assert.Nil(t, FindRegion(0x7f0000021000, mm))
	assert.False(t, FindRegion(0x7f1000000000, mm).IsReadable())
}

func TestModuleBase(t *testing.T) {
	mm, err := Parse(strings.NewReader(sampleMaps))
	require.NoError(t, err)

	base, ok := ModuleBase("robloxplayerbeta.exe", mm)
	require.True(t, ok)
	assert.Equal(t, uint64(0x140000000), base)

	_, ok = ModuleBase("other.exe", mm)
	assert.False(t, ok)
}
