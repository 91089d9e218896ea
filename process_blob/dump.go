package process_blob

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"memscene/process"
	"memscene/process/memory_map"
)

const (
	metadataFile  = "metadata.json"
	memoryMapFile = "process_memory_map.json"
)

type metadata struct {
	PID  process.ProcessID `json:"pid"`
	Name string            `json:"name"`
	Base uint64            `json:"base"`
}

func blobName(region memory_map.MemoryMapItem) string {
	return fmt.Sprintf("blob_0x%x_%d.bin", region.Address, region.Size)
}

// regionsLocked coalesces allocated pages into contiguous regions.
func (p *ProcessImage) regionsLocked() []memory_map.MemoryMapItem {
	starts := make([]uint64, 0, len(p.pages))
	for start := range p.pages {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	var regions []memory_map.MemoryMapItem
	for _, start := range starts {
		if n := len(regions); n > 0 && regions[n-1].End() == start {
			regions[n-1].Size += pageSize
			continue
		}
		regions = append(regions, memory_map.MemoryMapItem{Address: start, Size: pageSize, Perms: "rw-p"})
	}
	return regions
}

// Save writes the image to dirname as metadata, a memory map and one blob
// per contiguous region.
func (p *ProcessImage) Save(dirname, name string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := os.MkdirAll(dirname, 0o755); err != nil {
		return fmt.Errorf("create dump dir: %w", err)
	}

	meta, err := json.MarshalIndent(metadata{PID: p.pid, Name: name, Base: uint64(p.base)}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dirname, metadataFile), meta, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	regions := p.regionsLocked()
	mm, err := json.MarshalIndent(regions, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dirname, memoryMapFile), mm, 0o644); err != nil {
		return fmt.Errorf("write memory map: %w", err)
	}

	for _, region := range regions {
		data := make([]byte, 0, region.Size)
		for page := region.Address; page < region.End(); page += pageSize {
			data = append(data, p.pages[page]...)
		}
		if err := os.WriteFile(filepath.Join(dirname, blobName(region)), data, 0o644); err != nil {
			return fmt.Errorf("write region 0x%x: %w", region.Address, err)
		}
	}
	return nil
}

// Load reads a directory written by Save. The image is open on return.
func Load(dirname string) (*ProcessImage, string, error) {
	raw, err := os.ReadFile(filepath.Join(dirname, metadataFile))
	if err != nil {
		return nil, "", fmt.Errorf("read metadata: %w", err)
	}
	var meta metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, "", fmt.Errorf("decode metadata: %w", err)
	}

	raw, err = os.ReadFile(filepath.Join(dirname, memoryMapFile))
	if err != nil {
		return nil, "", fmt.Errorf("read memory map: %w", err)
	}
	var regions []memory_map.MemoryMapItem
	if err := json.Unmarshal(raw, &regions); err != nil {
		return nil, "", fmt.Errorf("decode memory map: %w", err)
	}

	img := NewProcessImage(meta.PID, process.ProcessMemoryAddress(meta.Base))
	for _, region := range regions {
		data, err := os.ReadFile(filepath.Join(dirname, blobName(region)))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("read region 0x%x: %w", region.Address, err)
		}
		img.PutBytes(process.ProcessMemoryAddress(region.Address), data)
	}
	return img, meta.Name, nil
}

// Opener reopens img for name, matched case-insensitively.
func Opener(img *ProcessImage, name string) process.Opener {
	pid := img.pid
	return func(requested string) (process.Process, error) {
		if !strings.EqualFold(requested, name) {
			return nil, fmt.Errorf("%s: %w", requested, os.ErrNotExist)
		}
		if err := img.Open(pid); err != nil {
			return nil, err
		}
		return img, nil
	}
}

// Recorder passes reads through to a live process and keeps a copy of every
// successful read, so a session can be saved and replayed offline. Bytes of
// a recorded page that were never read replay as zero.
type Recorder struct {
	process.Process
	image *ProcessImage
}

func NewRecorder(proc process.Process) *Recorder {
	return &Recorder{
		Process: proc,
		image:   NewProcessImage(proc.GetPID(), proc.BaseAddress()),
	}
}

func (r *Recorder) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	data, err := r.Process.ReadMemory(addr, size)
	if err == nil {
		r.image.PutBytes(addr, data)
	}
	return data, err
}

// Image is the recorded copy.
func (r *Recorder) Image() *ProcessImage {
	return r.image
}
