package savegame

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Snapshot is one saved simulation state
type Snapshot struct {
	gorm.Model
	Name    string `json:"name" gorm:"size:128;index"`
	MapName string `json:"mapName" gorm:"size:128"`
	Tick    uint64 `json:"tick"`

	Players []PlayerRow `json:"players" gorm:"foreignKey:SnapshotID;constraint:OnDelete:CASCADE"`
	Units   []UnitRow   `json:"units" gorm:"foreignKey:SnapshotID;constraint:OnDelete:CASCADE"`
}

func (*Snapshot) TableName() string {
	return "snapshots"
}

// PlayerRow holds what a player owns beyond its units. Unit-derived
// aggregates are rebuilt on restore.
type PlayerRow struct {
	ID         uint `json:"id" gorm:"primarykey"`
	SnapshotID uint `json:"snapshotId" gorm:"index"`

	Index        int            `json:"index"`
	Name         string         `json:"name" gorm:"size:64"`
	Type         uint8          `json:"type"`
	TeamID       int            `json:"teamId"`
	Defeated     bool           `json:"defeated"`
	Revealed     bool           `json:"revealed"`
	RevealAtTick uint64         `json:"revealAtTick"`
	Score        int            `json:"score"`
	TotalKills   int            `json:"totalKills"`
	TotalRazings int            `json:"totalRazings"`
	Resources    datatypes.JSON `json:"resources"`
	MaxResources datatypes.JSON `json:"maxResources"`
	Upgrades     datatypes.JSON `json:"upgrades"`
	Kills        datatypes.JSON `json:"kills"`
}

func (*PlayerRow) TableName() string {
	return "snapshot_players"
}

// UnitRow is one living unit. Container and goal references are slots,
// -1 when unset.
type UnitRow struct {
	ID         uint `json:"id" gorm:"primarykey"`
	SnapshotID uint `json:"snapshotId" gorm:"index"`

	Slot        int    `json:"slot"`
	Type        string `json:"type" gorm:"size:64"`
	Player      int    `json:"player"`
	RescuedFrom int    `json:"rescuedFrom"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Layer       int    `json:"layer"`
	Container   int    `json:"container"`
	Seat        int    `json:"seat"` // position among the container's passengers

	Stats     datatypes.JSON `json:"stats"`
	Upgrades  datatypes.JSON `json:"upgrades"`
	Equipment datatypes.JSON `json:"equipment"`

	UnderConstruction bool   `json:"underConstruction"`
	BuildProgress     int    `json:"buildProgress"`
	Burning           bool   `json:"burning"`
	TTL               uint64 `json:"ttl"`
	ResourcesHeld     int    `json:"resourcesHeld"`
	Carrying          uint8  `json:"carrying"`
	SeenBy            uint32 `json:"seenBy"`

	Action   uint8 `json:"action"`
	GoalSlot int   `json:"goalSlot"`
	GoalX    int   `json:"goalX"`
	GoalY    int   `json:"goalY"`
	Mine     int   `json:"mine"`
}

func (*UnitRow) TableName() string {
	return "snapshot_units"
}

// Models lists every table the store migrates
var Models = []interface{}{
	&Snapshot{},
	&PlayerRow{},
	&UnitRow{},
}
