package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/1siamBot/rts-simcore/engine/core"
	"github.com/1siamBot/rts-simcore/engine/maplib"
	"github.com/1siamBot/rts-simcore/engine/scenario"
	"github.com/1siamBot/rts-simcore/engine/systems"
	"github.com/1siamBot/rts-simcore/engine/unit"
)

const (
	hudHeight   = 40
	floatFrames = 45
)

var palette = []color.RGBA{
	{220, 50, 50, 255},
	{60, 110, 230, 255},
	{40, 170, 80, 255},
	{200, 170, 40, 255},
	{160, 60, 200, 255},
	{240, 130, 30, 255},
	{60, 190, 190, 255},
	{230, 230, 230, 255},
}

var terrainColors = map[maplib.TerrainType]color.RGBA{
	maplib.TerrainGrass:     {70, 120, 60, 255},
	maplib.TerrainDirt:      {120, 95, 60, 255},
	maplib.TerrainSand:      {190, 175, 120, 255},
	maplib.TerrainWater:     {50, 90, 170, 255},
	maplib.TerrainDeepWater: {30, 60, 130, 255},
	maplib.TerrainRock:      {110, 110, 110, 255},
	maplib.TerrainCliff:     {80, 70, 60, 255},
	maplib.TerrainRoad:      {150, 140, 120, 255},
	maplib.TerrainBridge:    {130, 100, 70, 255},
	maplib.TerrainOre:       {200, 160, 40, 255},
	maplib.TerrainForest:    {30, 80, 35, 255},
	maplib.TerrainWall:      {90, 90, 100, 255},
}

// floater is a damage number drifting up over the map
type floater struct {
	x, y   float64
	text   string
	clr    color.RGBA
	frames int
}

// Viewer draws the map as one player sees it. It is the presentation
// sink of the simulation: every effect is drained once per frame.
type Viewer struct {
	sim    *systems.Sim
	loop   *core.GameLoop
	queue  *systems.EffectQueue
	viewer *core.Player
	tilePx int
	face   text.Face

	showFog  bool
	floaters []floater
	lastNote string
}

// NewViewer wraps a built scenario. The sim must use an EffectQueue.
func NewViewer(g *scenario.Game, player, tilePx int) (*Viewer, error) {
	q, ok := g.Sim.Effects.(*systems.EffectQueue)
	if !ok {
		return nil, fmt.Errorf("effect sink %T is not a queue", g.Sim.Effects)
	}
	p := g.Sim.Players.GetPlayer(player)
	if p == nil {
		return nil, fmt.Errorf("no player %d", player)
	}
	v := &Viewer{
		sim:     g.Sim,
		loop:    core.NewGameLoop(g.Sim, g.Sim.World.TickRate),
		queue:   q,
		viewer:  p,
		tilePx:  max(tilePx, 4),
		face:    text.NewGoXFace(basicfont.Face7x13),
		showFog: !g.Sim.Map.NoFogOfWar,
	}
	v.loop.Play()
	return v, nil
}

func (v *Viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if v.loop.State == core.StatePlaying {
			v.loop.Pause()
		} else {
			v.loop.Play()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		v.nextViewpoint()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		v.showFog = !v.showFog
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPeriod) && v.loop.State == core.StatePaused {
		v.loop.Step(1)
	}

	v.loop.Update()
	v.consumeEffects()

	n := 0
	for _, f := range v.floaters {
		f.frames--
		f.y -= 0.5
		if f.frames > 0 {
			v.floaters[n] = f
			n++
		}
	}
	v.floaters = v.floaters[:n]
	return nil
}

func (v *Viewer) nextViewpoint() {
	players := v.sim.Players.Players
	for i, p := range players {
		if p != v.viewer {
			continue
		}
		for j := 1; j <= len(players); j++ {
			if next := players[(i+j)%len(players)]; !next.IsNeutral() {
				v.viewer = next
				return
			}
		}
	}
}

func (v *Viewer) consumeEffects() {
	scale := float64(v.tilePx) / core.PixelTileSize
	for _, e := range v.queue.Drain() {
		if e.Player >= 0 && e.Player != v.viewer.Index {
			continue
		}
		switch e.Kind {
		case systems.EffectDamageNumber:
			clr := color.RGBA{255, 80, 80, 255}
			label := fmt.Sprintf("-%d", e.Value)
			if e.Value < 0 {
				clr = color.RGBA{80, 255, 80, 255}
				label = fmt.Sprintf("+%d", -e.Value)
			}
			v.floaters = append(v.floaters, floater{
				x:      float64(e.Pos.X) * scale,
				y:      float64(e.Pos.Y)*scale + hudHeight,
				text:   label,
				clr:    clr,
				frames: floatFrames,
			})
		case systems.EffectExplosion:
			v.floaters = append(v.floaters, floater{
				x:      float64(e.Pos.X) * scale,
				y:      float64(e.Pos.Y)*scale + hudHeight,
				text:   "*",
				clr:    color.RGBA{255, 200, 0, 255},
				frames: floatFrames / 3,
			})
		case systems.EffectNotify:
			v.lastNote = e.Name
		}
	}
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{10, 10, 15, 255})
	v.drawTiles(screen)
	v.drawUnits(screen)
	for _, f := range v.floaters {
		v.print(screen, f.text, f.x, f.y, f.clr)
	}
	v.drawHUD(screen)
}

func (v *Viewer) drawTiles(screen *ebiten.Image) {
	tm := v.sim.Map.Layer(0)
	px := float32(v.tilePx)
	for y := 0; y < tm.Height; y++ {
		for x := 0; x < tm.Width; x++ {
			t := tm.At(x, y)
			clr := terrainColors[t.Terrain]
			if v.showFog {
				switch {
				case v.sim.TileVisible(v.viewer, core.TilePos{X: x, Y: y}, 0):
				case t.Vision.IsExplored(v.viewer.Index):
					clr = dim(clr, 2)
				default:
					continue
				}
			}
			vector.DrawFilledRect(screen, float32(x)*px, float32(y)*px+hudHeight, px, px, clr, false)
		}
	}
}

func (v *Viewer) drawUnits(screen *ebiten.Image) {
	scale := float32(v.tilePx) / core.PixelTileSize
	for _, u := range v.sim.Pool.Units() {
		if u.Removed || u.MapLayer != 0 || u.Destroyed {
			continue
		}
		if v.showFog && !v.sim.IsVisible(u, v.viewer) {
			continue
		}
		w, h := u.Type.TileSize()
		x := float32(u.TilePos.X*core.PixelTileSize+u.Offset.X) * scale
		y := float32(u.TilePos.Y*core.PixelTileSize+u.Offset.Y)*scale + hudHeight
		bw, bh := float32(w*v.tilePx), float32(h*v.tilePx)

		clr := v.playerColor(u.Player)
		if u.CurrentAction() == unit.ActionDie {
			clr = dim(clr, 3)
		}
		if u.Type.Building {
			vector.DrawFilledRect(screen, x+1, y+1, bw-2, bh-2, clr, false)
			if u.UnderConstruction {
				vector.StrokeRect(screen, x+1, y+1, bw-2, bh-2, 1, color.RGBA{255, 255, 255, 160}, false)
			}
		} else {
			vector.DrawFilledCircle(screen, x+bw/2, y+bh/2, bw/2-1, clr, false)
		}
		if u.Burning {
			vector.DrawFilledCircle(screen, x+bw-3, y+3, 2, color.RGBA{255, 120, 0, 255}, false)
		}
		if pct := u.Stats.Percent(unit.HP); pct < 100 {
			vector.DrawFilledRect(screen, x, y-3, bw, 2, color.RGBA{40, 40, 40, 200}, false)
			vector.DrawFilledRect(screen, x, y-3, bw*float32(pct)/100, 2, color.RGBA{0, 200, 0, 255}, false)
		}
	}
}

func (v *Viewer) drawHUD(screen *ebiten.Image) {
	p := v.viewer
	state := "running"
	if v.loop.State == core.StatePaused {
		state = "paused"
	}
	line1 := fmt.Sprintf("tick %d  %s  fog:%v  units:%d  ghosts:%d  fps:%.0f",
		v.sim.World.TickCount, state, v.showFog, v.sim.Pool.Live(), v.sim.Ghosts(), ebiten.ActualFPS())
	line2 := fmt.Sprintf("view: %s  gold:%d wood:%d  supply:%d/%d  score:%d",
		p.Name, p.Resources[core.ResourceGold], p.Resources[core.ResourceWood], p.Demand, p.Supply, p.Score)
	if p.Defeated {
		line2 += "  DEFEATED"
	}
	if v.lastNote != "" {
		line2 += "  | " + v.lastNote
	}
	v.print(screen, line1, 4, 2, color.RGBA{230, 230, 230, 255})
	v.print(screen, line2, 4, 18, v.playerColor(p))
}

func (v *Viewer) print(screen *ebiten.Image, s string, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, s, v.face, op)
}

func (v *Viewer) playerColor(p *core.Player) color.RGBA {
	switch {
	case p == nil || p.IsNeutral():
		return color.RGBA{170, 170, 170, 255}
	case p.Color != 0:
		c := p.Color
		return color.RGBA{uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)}
	}
	return palette[p.Index%len(palette)]
}

func dim(c color.RGBA, by uint8) color.RGBA {
	return color.RGBA{c.R / by, c.G / by, c.B / by, c.A}
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	tm := v.sim.Map.Layer(0)
	return tm.Width * v.tilePx, tm.Height*v.tilePx + hudHeight
}
