package core

import "math/bits"

const (
	// PlayerMax is the number of player slots, including the neutral one.
	PlayerMax = 16
	// PlayerNumNeutral is the slot of the neutral player.
	PlayerNumNeutral = PlayerMax - 1
)

// PlayerType decides how a player is controlled
type PlayerType uint8

const (
	PlayerNobody PlayerType = iota
	PlayerNeutral
	PlayerPerson
	PlayerComputer
	PlayerRescuePassive
	PlayerRescueActive
)

// IsRescuable reports whether units of this player type join whoever reaches them.
func (t PlayerType) IsRescuable() bool {
	return t == PlayerRescuePassive || t == PlayerRescueActive
}

// Resource indexes the per-player resource arrays
type Resource uint8

const (
	ResourceGold Resource = iota
	ResourceWood
	ResourceOil
	ResourceOre
	MaxCosts
)

// Costs is one amount per resource
type Costs [MaxCosts]int

// Unlimited marks a resource without a storage cap.
const Unlimited = -1

// AlertState debounces "under attack" notifications.
type AlertState struct {
	LastTick uint64
	LastPos  TilePos
	Fired    bool
}

// Player represents a game player
type Player struct {
	Index     int
	Name      string
	TeamID    int
	Faction   string
	Color     uint32 // RGBA
	Type      PlayerType
	AIEnabled bool
	Defeated  bool

	allied       uint32
	enemy        uint32
	sharedVision uint32 // players this one gives its vision to

	// Revealed players are visible to everyone, fog or not.
	Revealed     bool
	RevealAtTick uint64 // pending reveal after town hall loss, 0 when none

	units     []int
	unitIndex map[int]int

	Supply                        int
	Demand                        int
	TotalUnits                    int
	TotalBuildings                int
	NumBuildings                  int
	NumBuildingsUnderConstruction int
	NumTownHalls                  int
	UnitTypesCount                map[string]int
	UnitTypesAIActiveCount        map[string]int

	Resources    Costs
	MaxResources Costs
	Incomes      Costs
	TradeCost    int

	Score         int
	TotalKills    int
	TotalRazings  int
	UnitTypeKills map[string]int

	// Upgrades holds researched upgrade identifiers
	Upgrades map[string]bool

	Alert AlertState
}

// NewPlayer creates a player with empty aggregates and unlimited storage.
func NewPlayer(index int, name string, t PlayerType) *Player {
	p := &Player{
		Index:                  index,
		Name:                   name,
		Type:                   t,
		AIEnabled:              t == PlayerComputer,
		unitIndex:              make(map[int]int),
		UnitTypesCount:         make(map[string]int),
		UnitTypesAIActiveCount: make(map[string]int),
		UnitTypeKills:          make(map[string]int),
		Upgrades:               make(map[string]bool),
	}
	for i := range p.MaxResources {
		p.MaxResources[i] = Unlimited
	}
	return p
}

func bit(i int) uint32 { return 1 << uint(i) }

// IsAllied reports whether o is an ally of p
func (p *Player) IsAllied(o *Player) bool {
	return o != nil && p.allied&bit(o.Index) != 0
}

// IsEnemy reports whether p is hostile to o
func (p *Player) IsEnemy(o *Player) bool {
	return o != nil && p.enemy&bit(o.Index) != 0
}

// SharesVisionWith reports whether p gives its vision to o
func (p *Player) SharesVisionWith(o *Player) bool {
	return o != nil && p.sharedVision&bit(o.Index) != 0
}

// IsBothSharedVision reports whether vision is shared in both directions
func (p *Player) IsBothSharedVision(o *Player) bool {
	return p.SharesVisionWith(o) && o.SharesVisionWith(p)
}

// SetSharedVision starts or stops giving vision to o
func (p *Player) SetSharedVision(o *Player, on bool) {
	if on {
		p.sharedVision |= bit(o.Index)
	} else {
		p.sharedVision &^= bit(o.Index)
	}
}

// IsNeutral reports whether p is the neutral player
func (p *Player) IsNeutral() bool {
	return p.Index == PlayerNumNeutral || p.Type == PlayerNeutral
}

// AddUnit appends a unit slot to the player's unit list
func (p *Player) AddUnit(slot int) {
	if _, ok := p.unitIndex[slot]; ok {
		return
	}
	p.unitIndex[slot] = len(p.units)
	p.units = append(p.units, slot)
}

// RemoveUnit drops a unit slot, swapping the last one into its place
func (p *Player) RemoveUnit(slot int) {
	i, ok := p.unitIndex[slot]
	if !ok {
		return
	}
	last := len(p.units) - 1
	p.units[i] = p.units[last]
	p.unitIndex[p.units[i]] = i
	p.units = p.units[:last]
	delete(p.unitIndex, slot)
}

// HasUnit reports whether the slot is in the player's unit list
func (p *Player) HasUnit(slot int) bool {
	_, ok := p.unitIndex[slot]
	return ok
}

// Units returns the player's unit slots
func (p *Player) Units() []int {
	return p.units
}

// UnitCount returns the number of units the player owns
func (p *Player) UnitCount() int {
	return len(p.units)
}

// AddResource changes a stock, clamping at zero and at the storage cap
func (p *Player) AddResource(r Resource, amount int) {
	v := p.Resources[r] + amount
	if v < 0 {
		v = 0
	}
	if max := p.MaxResources[r]; max != Unlimited && v > max {
		v = max
	}
	p.Resources[r] = v
}

// SupplyRatio returns the supply ratio (>= 1.0 means enough supply)
func (p *Player) SupplyRatio() float64 {
	if p.Demand <= 0 {
		return 1.0
	}
	return float64(p.Supply) / float64(p.Demand)
}

// PlayerManager manages all players in a game
type PlayerManager struct {
	Players []*Player
}

func NewPlayerManager() *PlayerManager {
	return &PlayerManager{}
}

// AddPlayer registers a player. Players sharing a TeamID become mutual
// allies, players on different teams become enemies. Neutral stays out of both.
func (pm *PlayerManager) AddPlayer(p *Player) {
	if p.unitIndex == nil {
		n := NewPlayer(p.Index, p.Name, p.Type)
		n.TeamID, n.Faction, n.Color = p.TeamID, p.Faction, p.Color
		*p = *n
	}
	pm.Players = append(pm.Players, p)
	for _, o := range pm.Players {
		if o == p || p.IsNeutral() || o.IsNeutral() {
			continue
		}
		if o.TeamID == p.TeamID {
			pm.SetAlliance(p.Index, o.Index)
		} else {
			pm.SetEnemy(p.Index, o.Index)
		}
	}
}

func (pm *PlayerManager) GetPlayer(id int) *Player {
	for _, p := range pm.Players {
		if p.Index == id {
			return p
		}
	}
	return nil
}

// Neutral returns the neutral player, creating it on first use
func (pm *PlayerManager) Neutral() *Player {
	if p := pm.GetPlayer(PlayerNumNeutral); p != nil {
		return p
	}
	p := NewPlayer(PlayerNumNeutral, "Neutral", PlayerNeutral)
	pm.Players = append(pm.Players, p)
	return p
}

// SetAlliance makes a and b mutual allies
func (pm *PlayerManager) SetAlliance(a, b int) {
	pa, pb := pm.GetPlayer(a), pm.GetPlayer(b)
	if pa == nil || pb == nil {
		return
	}
	pa.allied |= bit(b)
	pb.allied |= bit(a)
	pa.enemy &^= bit(b)
	pb.enemy &^= bit(a)
}

// SetEnemy makes a and b mutual enemies
func (pm *PlayerManager) SetEnemy(a, b int) {
	pa, pb := pm.GetPlayer(a), pm.GetPlayer(b)
	if pa == nil || pb == nil {
		return
	}
	pa.enemy |= bit(b)
	pb.enemy |= bit(a)
	pa.allied &^= bit(b)
	pb.allied &^= bit(a)
}

// AreAllies checks if two players are allied
func (pm *PlayerManager) AreAllies(a, b int) bool {
	pa := pm.GetPlayer(a)
	pb := pm.GetPlayer(b)
	if pa == nil || pb == nil {
		return false
	}
	return a == b || pa.IsAllied(pb)
}

// VisionSharers returns the players that share vision with p in both directions.
func (pm *PlayerManager) VisionSharers(p *Player) []*Player {
	if bits.OnesCount32(p.sharedVision) == 0 {
		return nil
	}
	var out []*Player
	for _, o := range pm.Players {
		if o != p && p.IsBothSharedVision(o) {
			out = append(out, o)
		}
	}
	return out
}
