package core

import "math"

// PixelTileSize is the edge of one map tile in pixels.
const PixelTileSize = 32

// TilePos represents integer tile coordinates
type TilePos struct {
	X, Y int
}

// Add returns p offset by o
func (p TilePos) Add(o TilePos) TilePos {
	return TilePos{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns p - o
func (p TilePos) Sub(o TilePos) TilePos {
	return TilePos{X: p.X - o.X, Y: p.Y - o.Y}
}

// DistanceTo returns euclidean distance to another tile
func (p TilePos) DistanceTo(o TilePos) float64 {
	dx := float64(p.X - o.X)
	dy := float64(p.Y - o.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// PixelPos is a position in map pixels, also used for sub-tile offsets.
type PixelPos struct {
	X, Y int
}

// TileCenter returns the pixel center of a w*h tile rectangle starting at p.
func TileCenter(p TilePos, w, h int) PixelPos {
	return PixelPos{
		X: p.X*PixelTileSize + w*PixelTileSize/2,
		Y: p.Y*PixelTileSize + h*PixelTileSize/2,
	}
}

// RectDistance is the tile distance between two rectangles. Overlapping
// rectangles are 0 apart, edge-adjacent ones 1.
func RectDistance(a TilePos, aw, ah int, b TilePos, bw, bh int) int {
	dx := gap(a.X, aw, b.X, bw)
	dy := gap(a.Y, ah, b.Y, bh)
	return Isqrt(dx*dx + dy*dy)
}

func gap(a, aw, b, bw int) int {
	switch {
	case a+aw <= b:
		return b - (a + aw) + 1
	case b+bw <= a:
		return a - (b + bw) + 1
	default:
		return 0
	}
}

// Isqrt is the integer square root, floor(sqrt(n)).
func Isqrt(n int) int {
	if n <= 0 {
		return 0
	}
	return int(math.Sqrt(float64(n)))
}
