// Package inspect prints instance nodes for offset debugging: their names,
// children and raw memory with known fields labeled.
package inspect

import (
	"fmt"
	"io"

	"memscene/hexdump"
	"memscene/offsets"
	"memscene/process"
)

// MaxListed bounds how many children Children prints.
const MaxListed = 20

type Memory interface {
	ReadBytes(addr process.ProcessMemoryAddress, length int) []byte
	ReadPointer(addr process.ProcessMemoryAddress) process.ProcessMemoryAddress
}

type Tree interface {
	ListChildren(parent process.ProcessMemoryAddress) []process.ProcessMemoryAddress
	ReadName(node process.ProcessMemoryAddress) string
	ReadClassName(node process.ProcessMemoryAddress) string
}

// Children lists parent's children with their names and classes.
func Children(w io.Writer, tree Tree, parent process.ProcessMemoryAddress, label string) {
	if parent == 0 {
		fmt.Fprintf(w, "%s: null\n", label)
		return
	}

	children := tree.ListChildren(parent)
	fmt.Fprintf(w, "%s %s (%s) has %d children\n", label, parent.ToString(), tree.ReadClassName(parent), len(children))
	for i, child := range children {
		if i == MaxListed {
			fmt.Fprintf(w, "  ... %d more\n", len(children)-MaxListed)
			break
		}
		fmt.Fprintf(w, "  %2d %s %q (%s)\n", i, child.ToString(), tree.ReadName(child), tree.ReadClassName(child))
	}
}

// Node dumps size bytes of node, labeling the fields of the given
// categories. Words pointing at readable memory are marked.
func Node(w io.Writer, mem Memory, tree Tree, table *offsets.Table, node process.ProcessMemoryAddress, size int, color bool, categories ...string) {
	if node == 0 {
		fmt.Fprintln(w, "node: null")
		return
	}
	fmt.Fprintf(w, "%s %q (%s)\n", node.ToString(), tree.ReadName(node), tree.ReadClassName(node))

	data := mem.ReadBytes(node, size)
	if data == nil {
		fmt.Fprintf(w, "  unreadable (%d bytes)\n", size)
		return
	}

	labels := make(map[uint64]string)
	for key, off := range table.Fields(append([]string{"Instance"}, categories...)...) {
		// ChildrenEnd is relative to the children container, not the node
		if key == offsets.InstanceChildrenEnd {
			continue
		}
		if uint64(off) < uint64(size) {
			labels[uint64(off)] = key.String()
		}
	}

	o := hexdump.DefaultOptions()
	o.Address = uint64(node)
	o.Color = color
	o.Labels = labels
	o.IsPointer = func(v uint64) bool {
		return mem.ReadBytes(process.ProcessMemoryAddress(v), 1) != nil
	}
	hexdump.DumpToWriter(w, data, o)
}
