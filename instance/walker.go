// Package instance walks the target's instance tree by pointer chasing.
//
// Layout assumed for every node:
//
//	node + Instance.ChildrenStart -> container
//	container + 0                  -> first child pointer
//	container + Instance.ChildrenEnd -> one past the last child pointer
//	node + Instance.Name           -> name string
//	node + Instance.ClassDescriptor -> descriptor, descriptor + ClassDescriptor.Name -> class name string
package instance

import (
	"unicode"
	"unicode/utf8"

	"memscene/offsets"
	"memscene/process"
)

const (
	// MaxChildren rejects child ranges read from garbage pointers.
	MaxChildren = 1000

	// inline strings store up to inlineNameMax bytes followed by a terminator
	inlineNameProbe = 32
	inlineNameMax   = 16

	// MaxNameLength bounds the out-of-line string decode.
	MaxNameLength = 64
)

// Memory is the subset of the remote accessor the walker needs.
type Memory interface {
	ReadPointer(addr process.ProcessMemoryAddress) process.ProcessMemoryAddress
	ReadBytes(addr process.ProcessMemoryAddress, length int) []byte
}

// Walker resolves children, names and class names of instance nodes.
type Walker struct {
	mem     Memory
	offsets *offsets.Table
}

func NewWalker(mem Memory, table *offsets.Table) *Walker {
	return &Walker{mem: mem, offsets: table}
}

// childRange returns the first child slot and the number of slots, or zero
// slots when the container is missing or implausible.
func (w *Walker) childRange(parent process.ProcessMemoryAddress) (process.ProcessMemoryAddress, int) {
	if parent == 0 {
		return 0, 0
	}

	container := w.mem.ReadPointer(parent.Add(w.offsets.Get(offsets.InstanceChildrenStart)))
	if container == 0 {
		return 0, 0
	}

	start := w.mem.ReadPointer(container)
	end := w.mem.ReadPointer(container.Add(w.offsets.Get(offsets.InstanceChildrenEnd)))
	if start == 0 || end == 0 || end <= start {
		return 0, 0
	}

	count := uint64(end-start) / process.PointerSize
	if count == 0 || count > MaxChildren {
		return 0, 0
	}
	return start, int(count)
}

// ListChildren returns the non-null children of parent in memory order.
func (w *Walker) ListChildren(parent process.ProcessMemoryAddress) []process.ProcessMemoryAddress {
	start, count := w.childRange(parent)
	if count == 0 {
		return nil
	}

	children := make([]process.ProcessMemoryAddress, 0, count)
	for i := 0; i < count; i++ {
		child := w.mem.ReadPointer(start + process.ProcessMemoryAddress(i*process.PointerSize))
		if child != 0 {
			children = append(children, child)
		}
	}
	return children
}

// ResolveChildByName returns the first child whose name equals name exactly, or zero.
func (w *Walker) ResolveChildByName(parent process.ProcessMemoryAddress, name string) process.ProcessMemoryAddress {
	start, count := w.childRange(parent)
	for i := 0; i < count; i++ {
		child := w.mem.ReadPointer(start + process.ProcessMemoryAddress(i*process.PointerSize))
		if child == 0 {
			continue
		}
		if w.ReadName(child) == name {
			return child
		}
	}
	return 0
}

// ReadName returns the instance's Name, or "" when it cannot be decoded.
func (w *Walker) ReadName(node process.ProcessMemoryAddress) string {
	if node == 0 {
		return ""
	}
	return w.DecodeString(w.mem.ReadPointer(node.Add(w.offsets.Get(offsets.InstanceName))))
}

// ReadClassName returns the name stored in the instance's class descriptor.
func (w *Walker) ReadClassName(node process.ProcessMemoryAddress) string {
	if node == 0 {
		return ""
	}
	descriptor := w.mem.ReadPointer(node.Add(w.offsets.Get(offsets.InstanceClassDesc)))
	if descriptor == 0 {
		return ""
	}
	return w.DecodeString(w.mem.ReadPointer(descriptor.Add(w.offsets.Get(offsets.ClassDescriptorName))))
}

// DecodeString decodes the string object at addr. Short strings are stored
// inline; longer ones hold a pointer to a null-terminated buffer. Either way
// the result is entirely printable or empty.
func (w *Walker) DecodeString(addr process.ProcessMemoryAddress) string {
	if addr == 0 {
		return ""
	}

	if s, ok := decodeInline(w.mem.ReadBytes(addr, inlineNameProbe)); ok {
		return s
	}

	data := w.mem.ReadPointer(addr)
	if data == 0 {
		return ""
	}
	raw := w.mem.ReadBytes(data, MaxNameLength)
	if raw == nil {
		// the buffer may sit closer than MaxNameLength to the end of its mapping
		raw = w.mem.ReadBytes(data, inlineNameProbe)
	}
	s, _ := decodeTerminated(raw, len(raw))
	return s
}

func decodeInline(raw []byte) (string, bool) {
	for i, b := range raw {
		if b != 0 {
			continue
		}
		if i == 0 || i > inlineNameMax {
			return "", false
		}
		return printable(raw[:i])
	}
	return "", false
}

func decodeTerminated(raw []byte, limit int) (string, bool) {
	if len(raw) > limit {
		raw = raw[:limit]
	}
	for i, b := range raw {
		if b == 0 {
			raw = raw[:i]
			break
		}
	}
	if len(raw) == 0 {
		return "", false
	}
	return printable(raw)
}

// printable drops invalid UTF-8 and rejects anything containing non-printable runes.
func printable(raw []byte) (string, bool) {
	runes := make([]rune, 0, len(raw))
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		raw = raw[size:]
		if r == utf8.RuneError && size <= 1 {
			continue
		}
		if !unicode.IsPrint(r) {
			return "", false
		}
		runes = append(runes, r)
	}
	if len(runes) == 0 {
		return "", false
	}
	return string(runes), true
}
