package maplib

import (
	"github.com/rs/zerolog/log"

	"github.com/1siamBot/rts-simcore/engine/core"
)

// VisionLayer selects one of the per-player tile counters
type VisionLayer uint8

const (
	LayerSight VisionLayer = iota
	LayerCloak             // cloak detection
	LayerEthereal          // ethereal detection
	LayerRadar
	LayerJammer
	NumVisionLayers
)

func (l VisionLayer) String() string {
	switch l {
	case LayerSight:
		return "sight"
	case LayerCloak:
		return "cloak"
	case LayerEthereal:
		return "ethereal"
	case LayerRadar:
		return "radar"
	case LayerJammer:
		return "jammer"
	default:
		return "unknown"
	}
}

// Vision holds how many units of each player currently cover a tile, per
// layer, plus which players have ever seen it.
type Vision struct {
	counts   [NumVisionLayers][core.PlayerMax]uint16
	Explored uint32
}

// Count returns the counter of player p on layer l
func (v *Vision) Count(l VisionLayer, p int) int {
	return int(v.counts[l][p])
}

// Inc increments a counter and reports whether it left zero.
func (v *Vision) Inc(l VisionLayer, p int) bool {
	v.counts[l][p]++
	if l == LayerSight {
		v.Explored |= 1 << uint(p)
	}
	return v.counts[l][p] == 1
}

// Dec decrements a counter and reports whether it reached zero.
func (v *Vision) Dec(l VisionLayer, p int) bool {
	if v.counts[l][p] == 0 {
		log.Panic().Str("layer", l.String()).Int("player", p).Msg("vision counter underflow")
	}
	v.counts[l][p]--
	return v.counts[l][p] == 0
}

// IsExplored reports whether player p has ever seen the tile
func (v *Vision) IsExplored(p int) bool {
	return v.Explored&(1<<uint(p)) != 0
}

// Reset clears every counter but keeps exploration
func (v *Vision) Reset() {
	v.counts = [NumVisionLayers][core.PlayerMax]uint16{}
}
