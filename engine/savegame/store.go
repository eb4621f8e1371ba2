// Package savegame persists simulation snapshots to SQLite through GORM.
package savegame

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/systems"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

var (
	// ErrUnknownType is returned when a snapshot names a type the registry lacks
	ErrUnknownType = errors.New("unknown unit type")
	// ErrUnknownPlayer is returned when a snapshot player is missing from the sim
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrSlotTaken is returned when restoring into a sim that still has units
	ErrSlotTaken = errors.New("simulation already has units")
)

// Store reads and writes snapshots
type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite file at path and migrates the schema
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open savegame db: %w", err)
	}
	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("migrate savegame db: %w", err)
	}
	log.Debug().Str("path", path).Msg("savegame store ready")
	return &Store{db: db}, nil
}

// Close releases the underlying connection
func (st *Store) Close() error {
	sqlDB, err := st.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save captures the players and living units of s under name
func (st *Store) Save(s *systems.Sim, name, mapName string) (uint, error) {
	snap, err := Capture(s, name, mapName)
	if err != nil {
		return 0, err
	}
	err = st.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(snap).Error
	})
	if err != nil {
		return 0, fmt.Errorf("save snapshot %q: %w", name, err)
	}
	log.Info().
		Uint("id", snap.ID).
		Str("name", name).
		Uint64("tick", snap.Tick).
		Int("units", len(snap.Units)).
		Msg("snapshot saved")
	return snap.ID, nil
}

// Load reads one snapshot with its rows
func (st *Store) Load(id uint) (*Snapshot, error) {
	var snap Snapshot
	err := st.db.
		Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("`index`") }).
		Preload("Units", func(db *gorm.DB) *gorm.DB { return db.Order("slot") }).
		First(&snap, id).Error
	if err != nil {
		return nil, fmt.Errorf("load snapshot %d: %w", id, err)
	}
	return &snap, nil
}

// List returns snapshot headers, newest first
func (st *Store) List() ([]Snapshot, error) {
	var out []Snapshot
	if err := st.db.Order("id desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

// Delete drops a snapshot and its rows
func (st *Store) Delete(id uint) error {
	return st.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("snapshot_id = ?", id).Delete(&UnitRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("snapshot_id = ?", id).Delete(&PlayerRow{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&Snapshot{}, id).Error
	})
}

// Capture builds a snapshot of s without writing it
func Capture(s *systems.Sim, name, mapName string) (*Snapshot, error) {
	snap := &Snapshot{Name: name, MapName: mapName, Tick: s.World.TickCount}
	for _, p := range s.Players.Players {
		row, err := playerRow(p)
		if err != nil {
			return nil, err
		}
		snap.Players = append(snap.Players, row)
	}
	for _, u := range s.Pool.Units() {
		if !u.IsAlive() {
			continue
		}
		row, err := unitRow(u)
		if err != nil {
			return nil, err
		}
		snap.Units = append(snap.Units, row)
	}
	return snap, nil
}

func playerRow(p *core.Player) (PlayerRow, error) {
	row := PlayerRow{
		Index:        p.Index,
		Name:         p.Name,
		Type:         uint8(p.Type),
		TeamID:       p.TeamID,
		Defeated:     p.Defeated,
		Revealed:     p.Revealed,
		RevealAtTick: p.RevealAtTick,
		Score:        p.Score,
		TotalKills:   p.TotalKills,
		TotalRazings: p.TotalRazings,
	}
	var err error
	if row.Resources, err = json.Marshal(p.Resources); err != nil {
		return row, err
	}
	if row.MaxResources, err = json.Marshal(p.MaxResources); err != nil {
		return row, err
	}
	if row.Upgrades, err = json.Marshal(p.Upgrades); err != nil {
		return row, err
	}
	if row.Kills, err = json.Marshal(p.UnitTypeKills); err != nil {
		return row, err
	}
	return row, nil
}

func slotOf(u *unit.Unit) int {
	if u == nil {
		return -1
	}
	return u.Slot
}

func unitRow(u *unit.Unit) (UnitRow, error) {
	row := UnitRow{
		Slot:              u.Slot,
		Type:              u.Type.Ident,
		Player:            -1,
		RescuedFrom:       -1,
		X:                 u.TilePos.X,
		Y:                 u.TilePos.Y,
		Layer:             u.MapLayer,
		Container:         slotOf(u.Container),
		Seat:              -1,
		UnderConstruction: u.UnderConstruction,
		BuildProgress:     u.BuildProgress,
		Burning:           u.Burning,
		TTL:               u.TTL,
		ResourcesHeld:     u.ResourcesHeld,
		Carrying:          uint8(u.Carrying),
		SeenBy:            u.Seen.ByPlayer,
		Mine:              slotOf(u.Mine),
		GoalSlot:          -1,
	}
	if u.Player != nil {
		row.Player = u.Player.Index
	}
	if u.RescuedFrom != nil {
		row.RescuedFrom = u.RescuedFrom.Index
	}
	if u.Container != nil {
		for i, in := range u.Container.Inside {
			if in == u {
				row.Seat = i
				break
			}
		}
	}

	o := u.CurrentOrder()
	row.Action = uint8(o.Action)
	row.GoalSlot = slotOf(o.Goal())
	row.GoalX, row.GoalY = o.GoalPos.X, o.GoalPos.Y

	var err error
	if row.Stats, err = json.Marshal(u.Stats); err != nil {
		return row, err
	}
	if row.Upgrades, err = json.Marshal(u.Upgrades); err != nil {
		return row, err
	}
	if row.Equipment, err = json.Marshal(u.Equipment); err != nil {
		return row, err
	}
	return row, nil
}

// Restore rebuilds snap inside s. s must have the snapshot's players and
// no units. Ghosts, training queues and missiles in flight are not kept.
func Restore(snap *Snapshot, s *systems.Sim) error {
	if s.Pool.Live() > 0 {
		return ErrSlotTaken
	}
	players := make(map[int]*core.Player, len(snap.Players))
	for _, row := range snap.Players {
		p := s.Players.GetPlayer(row.Index)
		if p == nil && row.Index == core.PlayerNumNeutral {
			p = s.Players.Neutral()
		}
		if p == nil {
			return fmt.Errorf("%w: %d", ErrUnknownPlayer, row.Index)
		}
		players[row.Index] = p
	}
	s.World.TickCount = snap.Tick

	// hosts go first so passengers can board them in seat order
	rows := append([]UnitRow(nil), snap.Units...)
	sort.SliceStable(rows, func(i, j int) bool {
		if (rows[i].Container < 0) != (rows[j].Container < 0) {
			return rows[i].Container < 0
		}
		if rows[i].Container != rows[j].Container {
			return rows[i].Container < rows[j].Container
		}
		return rows[i].Seat < rows[j].Seat
	})

	restored := make(map[int]*unit.Unit, len(rows))
	for len(rows) > 0 {
		var waiting []UnitRow
		for _, row := range rows {
			var host *unit.Unit
			if row.Container >= 0 {
				if host = restored[row.Container]; host == nil {
					waiting = append(waiting, row)
					continue
				}
			}
			u, err := restoreUnit(s, row, players)
			if err != nil {
				return err
			}
			restored[row.Slot] = u
			if host != nil {
				s.PutInContainer(u, host)
			} else {
				s.PlaceUnit(u, core.TilePos{X: row.X, Y: row.Y}, row.Layer)
			}
		}
		if len(waiting) == len(rows) {
			return fmt.Errorf("restore snapshot %d: %d units inside missing containers", snap.ID, len(waiting))
		}
		rows = waiting
	}

	for _, row := range snap.Units {
		reissue(s, restored[row.Slot], row, restored)
	}

	// unit-driven aggregates are rebuilt above; the rest comes from the rows
	for _, row := range snap.Players {
		if err := restorePlayer(players[row.Index], row); err != nil {
			return err
		}
	}
	log.Info().
		Uint("id", snap.ID).
		Uint64("tick", snap.Tick).
		Int("units", len(restored)).
		Msg("snapshot restored")
	return nil
}

func restoreUnit(s *systems.Sim, row UnitRow, players map[int]*core.Player) (*unit.Unit, error) {
	t, ok := s.Types.Lookup(row.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, row.Type)
	}
	var owner *core.Player
	if row.Player >= 0 {
		if owner = players[row.Player]; owner == nil {
			return nil, fmt.Errorf("%w: %d", ErrUnknownPlayer, row.Player)
		}
	}
	var decodeErr error
	u := s.RestoreUnit(row.Slot, t, owner, func(u *unit.Unit) {
		if err := json.Unmarshal(row.Stats, &u.Stats); err != nil {
			decodeErr = err
			return
		}
		if len(row.Upgrades) > 0 {
			if err := json.Unmarshal(row.Upgrades, &u.Upgrades); err != nil {
				decodeErr = err
				return
			}
		}
		if len(row.Equipment) > 0 {
			if err := json.Unmarshal(row.Equipment, &u.Equipment); err != nil {
				decodeErr = err
				return
			}
		}
		u.UnderConstruction = row.UnderConstruction
		u.BuildProgress = row.BuildProgress
		u.Burning = row.Burning
		u.TTL = row.TTL
		u.ResourcesHeld = row.ResourcesHeld
		u.Carrying = core.Resource(row.Carrying)
		u.Seen.ByPlayer = row.SeenBy
		if row.RescuedFrom >= 0 {
			u.RescuedFrom = players[row.RescuedFrom]
		}
	})
	if decodeErr != nil {
		return nil, fmt.Errorf("decode unit %d: %w", row.Slot, decodeErr)
	}
	return u, nil
}

// reissue gives u back the order it was carrying out
func reissue(s *systems.Sim, u *unit.Unit, row UnitRow, restored map[int]*unit.Unit) {
	switch unit.Action(row.Action) {
	case unit.ActionMove:
		s.CommandMove(u, core.TilePos{X: row.GoalX, Y: row.GoalY}, true)
	case unit.ActionAttack:
		if g := restored[row.GoalSlot]; g != nil {
			s.CommandAttack(u, g, true)
		}
	case unit.ActionResource:
		if m := restored[row.Mine]; m != nil {
			if err := s.AssignWorker(u, m); err != nil {
				log.Warn().Err(err).Int("slot", u.Slot).Msg("worker not reassigned")
			}
		}
	}
}

func restorePlayer(p *core.Player, row PlayerRow) error {
	p.Defeated = row.Defeated
	p.Revealed = row.Revealed
	p.RevealAtTick = row.RevealAtTick
	p.Score = row.Score
	p.TotalKills = row.TotalKills
	p.TotalRazings = row.TotalRazings
	if err := json.Unmarshal(row.Resources, &p.Resources); err != nil {
		return fmt.Errorf("decode player %d: %w", row.Index, err)
	}
	if err := json.Unmarshal(row.MaxResources, &p.MaxResources); err != nil {
		return fmt.Errorf("decode player %d: %w", row.Index, err)
	}
	p.Upgrades = make(map[string]bool)
	if err := json.Unmarshal(row.Upgrades, &p.Upgrades); err != nil {
		return fmt.Errorf("decode player %d: %w", row.Index, err)
	}
	p.UnitTypeKills = make(map[string]int)
	if err := json.Unmarshal(row.Kills, &p.UnitTypeKills); err != nil {
		return fmt.Errorf("decode player %d: %w", row.Index, err)
	}
	return nil
}
