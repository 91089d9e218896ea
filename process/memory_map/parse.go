package memory_map

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Parse reads the /proc/[pid]/maps text format. Malformed lines are skipped.
//
//	00400000-0040b000 r-xp 00000000 08:01 1234   /usr/bin/app
func Parse(r io.Reader) ([]MemoryMapItem, error) {
	var memoryMap []MemoryMapItem
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		startText, endText, ok := strings.Cut(fields[0], "-")
		if !ok {
			continue
		}

		startAddr, err := strconv.ParseUint(startText, 16, 64)
		if err != nil {
			continue
		}

		endAddr, err := strconv.ParseUint(endText, 16, 64)
		if err != nil || endAddr <= startAddr {
			continue
		}

		item := MemoryMapItem{
			Address: startAddr,
			Size:    uint(endAddr - startAddr),
			Perms:   fields[1],
		}
		// the pathname may itself contain spaces
		if len(fields) >= 6 {
			item.Path = strings.Join(fields[5:], " ")
		}

		memoryMap = append(memoryMap, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return memoryMap, nil
}
