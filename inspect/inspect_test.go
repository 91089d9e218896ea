package inspect

import (
	"bytes"
	"fmt"
	"testing"

	"memscene/instance"
	"memscene/offsets"
	"memscene/remote"
	"memscene/scenefixture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*scenefixture.World, *remote.Accessor, *instance.Walker) {
	t.Helper()
	world := scenefixture.New(offsets.Default())
	mem := remote.New(remote.WithOpener(world.Opener()))
	require.True(t, mem.Attach(scenefixture.ProcessName))
	return world, mem, instance.NewWalker(mem, world.Offsets)
}

func TestChildren(t *testing.T) {
	world, _, walker := setup(t)

	var buf bytes.Buffer
	Children(&buf, walker, world.DataModel, "DataModel")
	out := buf.String()
	assert.Contains(t, out, "(DataModel) has 2 children")
	assert.Contains(t, out, `"Workspace" (Workspace)`)
	assert.Contains(t, out, `"Players" (Players)`)

	buf.Reset()
	Children(&buf, walker, 0, "Workspace")
	assert.Equal(t, "Workspace: null\n", buf.String())
}

func TestChildrenTruncates(t *testing.T) {
	world, _, walker := setup(t)
	for i := 0; i < MaxListed+5; i++ {
		world.AddPlayer(fmt.Sprintf("P%02d", i), int64(i))
	}

	var buf bytes.Buffer
	Children(&buf, walker, world.Players, "Players")
	assert.Contains(t, buf.String(), "has 25 children")
	assert.Contains(t, buf.String(), "... 5 more")
	assert.NotContains(t, buf.String(), `"P20"`)
}

func TestNode(t *testing.T) {
	world, mem, walker := setup(t)
	player := world.AddPlayer("Alpha", 77)
	world.SpawnCharacter(player, "HumanoidRootPart")

	var buf bytes.Buffer
	Node(&buf, mem, walker, world.Offsets, player, 0x400, false, "Player")
	out := buf.String()

	assert.Contains(t, out, `"Alpha" (Player)`)
	assert.Contains(t, out, "[+0x18 Instance.ClassDescriptor -> ")
	assert.Contains(t, out, "[+0xb0 Instance.Name -> ")
	assert.Contains(t, out, "[+0x2b8 Player.UserId]")
	assert.Contains(t, out, "[+0x380 Player.ModelInstance -> ")

	buf.Reset()
	Node(&buf, mem, walker, world.Offsets, 0x7000_0000_0000, 64, false)
	assert.Contains(t, buf.String(), "unreadable")
}
