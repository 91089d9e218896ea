// Package offsets holds the byte offsets of fields inside the target's
// structures. A table is immutable once built; every lookup falls back to the
// last known layout when a source did not provide the field.
package offsets

import (
	"strings"
	"sync"

	"memscene/coloransi"
	"memscene/process"

	"github.com/Moonlight-Companies/gologger/logger"
)

// Key names one field: the structure it lives in and the field name.
type Key struct {
	Category string
	Field    string
}

func (k Key) String() string {
	return k.Category + "." + k.Field
}

var (
	FakeDataModelPointer   = Key{"FakeDataModel", "Pointer"}
	FakeDataModelReal      = Key{"FakeDataModel", "RealDataModel"}
	InstanceName           = Key{"Instance", "Name"}
	InstanceChildrenStart  = Key{"Instance", "ChildrenStart"}
	InstanceChildrenEnd    = Key{"Instance", "ChildrenEnd"}
	InstanceClassDesc      = Key{"Instance", "ClassDescriptor"}
	ClassDescriptorName    = Key{"ClassDescriptor", "Name"}
	DataModelWorkspace     = Key{"DataModel", "Workspace"}
	DataModelPlaceID       = Key{"DataModel", "PlaceId"}
	WorkspaceCurrentCamera = Key{"Workspace", "CurrentCamera"}
	CameraFieldOfView      = Key{"Camera", "FieldOfView"}
	PlayerLocalPlayer      = Key{"Player", "LocalPlayer"}
	PlayerUserID           = Key{"Player", "UserId"}
	PlayerModelInstance    = Key{"Player", "ModelInstance"}
	PlayerDisplayName      = Key{"Player", "DisplayName"}
	BasePartPrimitive      = Key{"BasePart", "Primitive"}
	BasePartPosition       = Key{"BasePart", "Position"}
	HumanoidHealth         = Key{"Humanoid", "Health"}
	HumanoidMaxHealth      = Key{"Humanoid", "MaxHealth"}
	HumanoidWalkspeed      = Key{"Humanoid", "Walkspeed"}
	VisualEnginePointer    = Key{"VisualEngine", "Pointer"}
	VisualEngineViewMatrix = Key{"VisualEngine", "ViewMatrix"}
)

// defaults is the last known layout, used for every field a source does not provide.
var defaults = map[Key]int64{
	FakeDataModelPointer:   130504488,
	FakeDataModelReal:      448,
	InstanceName:           176,
	InstanceChildrenStart:  112,
	InstanceChildrenEnd:    8,
	InstanceClassDesc:      24,
	ClassDescriptorName:    8,
	DataModelWorkspace:     376,
	DataModelPlaceID:       408,
	WorkspaceCurrentCamera: 1120,
	CameraFieldOfView:      352,
	PlayerLocalPlayer:      304,
	PlayerUserID:           696,
	PlayerModelInstance:    896,
	PlayerDisplayName:      304,
	BasePartPrimitive:      328,
	BasePartPosition:       228,
	HumanoidHealth:         404,
	HumanoidMaxHealth:      436,
	HumanoidWalkspeed:      468,
	VisualEnginePointer:    125167824,
	VisualEngineViewMatrix: 288,
}

// DefaultVersion labels a table built only from defaults.
const DefaultVersion = "builtin"

// Table maps keys to offsets. It is safe for concurrent use.
type Table struct {
	version string
	values  map[Key]int64

	missing sync.Map
	log     *logger.Logger
}

// Default returns a table holding only the built-in layout.
func Default() *Table {
	return New(DefaultVersion, nil)
}

// New builds a table from overrides keyed by category then field, layered over
// the defaults. Category and field names match case-insensitively; negative
// offsets are ignored.
func New(version string, overrides map[string]map[string]int64) *Table {
	t := &Table{
		version: version,
		values:  make(map[Key]int64, len(defaults)),
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorTeal, coloransi.Black, "offsets")),
	}
	for k, v := range defaults {
		t.values[k] = v
	}

	canonical := make(map[string]Key, len(defaults))
	for k := range defaults {
		canonical[strings.ToLower(k.String())] = k
	}

	for category, fields := range overrides {
		for field, v := range fields {
			if v < 0 {
				continue
			}
			k, ok := canonical[strings.ToLower(category+"."+field)]
			if !ok {
				k = Key{category, field}
			}
			t.values[k] = v
		}
	}
	return t
}

func (t *Table) Version() string {
	return t.version
}

// Get returns the offset for key. Keys with neither a loaded value nor a
// default resolve to zero and are reported once.
func (t *Table) Get(key Key) process.ProcessMemorySize {
	if v, ok := t.values[key]; ok {
		return process.ProcessMemorySize(v)
	}
	if _, seen := t.missing.LoadOrStore(key, true); !seen {
		t.log.Debugln("no offset for", key.String())
	}
	return 0
}

// Lookup is Get by category and field name.
func (t *Table) Lookup(category, field string) process.ProcessMemorySize {
	return t.Get(Key{category, field})
}

// Fields returns every key of the given categories with its offset.
func (t *Table) Fields(categories ...string) map[Key]process.ProcessMemorySize {
	out := make(map[Key]process.ProcessMemorySize)
	for k, v := range t.values {
		for _, c := range categories {
			if strings.EqualFold(k.Category, c) {
				out[k] = process.ProcessMemorySize(v)
			}
		}
	}
	return out
}
