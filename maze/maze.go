package maze

import (
	"fmt"
	"maps"
	"math"

	"github.com/riverbend/agentville/memory"
)

// Event is a subject-predicate-object triple plus a human-readable
// description, dropped onto a tile so nearby personas can perceive it.
type Event struct {
	SPO         memory.SPO
	Description string
}

// TilePos addresses a single cell of the maze grid, origin top-left.
type TilePos struct {
	X, Y int
}

func (t TilePos) EuclidianDistance(o TilePos) float64 {
	dx := float64(t.X - o.X)
	dy := float64(t.Y - o.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Tile is one grid cell: the world/sector/arena/object address it belongs
// to, whether personas can stand on it, and the events currently posted
// there (a persona's own activity event, plus any idle game-object events).
type Tile struct {
	Path             memory.Path
	SpawningLocation string
	Collision        bool
	Events           map[Event]struct{}
}

// Maze is the fixed grid a simulation runs on: tile contents plus a
// reverse index from address (sector/arena/object path) to every tile that
// carries it, so personas can jump straight to "the kitchen" without
// scanning the whole grid.
type Maze struct {
	name   string
	folder string

	width  int
	height int

	tileSize int

	collisionInfo [][]bool
	tiles         [][]Tile

	addressTiles map[memory.Path][]TilePos
}

func (m Maze) Name() string {
	return m.name
}

func (m Maze) Folder() string {
	return m.folder
}

// PathToTiles returns every tile registered under the given address, at
// whichever level (sector/arena/object) that address was built with.
func (m *Maze) PathToTiles(plan memory.Path) ([]TilePos, bool) {
	t, ok := m.addressTiles[plan]
	return t, ok
}

// buildAddressIndex walks every tile once and records it under each prefix
// of its address (sector, then arena, then object) so PathToTiles and
// Exists can answer at any granularity without re-scanning the grid.
func buildAddressIndex(tiles [][]Tile) map[memory.Path][]TilePos {
	index := map[memory.Path][]TilePos{}

	levels := []memory.PathLevel{memory.PathLevelSector, memory.PathLevelArena, memory.PathLevelObject}

	for y, row := range tiles {
		for x, tile := range row {
			level := tile.Path.Level()
			for _, l := range levels {
				if level < l {
					break
				}
				addr := tile.Path.AtLevel(l)
				index[addr] = append(index[addr], TilePos{X: x, Y: y})
			}
		}
	}

	return index
}

func New(name, folder string, width, height int, tileSize int, collisionInfo [][]bool, tiles [][]Tile) *Maze {
	if len(tiles) != height {
		panic("tiles length does not match specified maze height")
	}
	for i, row := range tiles {
		if len(row) != width {
			panic(fmt.Errorf("tiles row %d width does not match specified maze width", i))
		}
	}

	if len(collisionInfo) != height {
		panic("collision info length does not match specified maze height")
	}
	for i, row := range collisionInfo {
		if len(row) != width {
			panic(fmt.Errorf("collision info row %d width does not match specified maze width", i))
		}
	}

	return &Maze{
		name:          name,
		folder:        folder,
		width:         width,
		height:        height,
		tileSize:      tileSize,
		collisionInfo: collisionInfo,
		tiles:         tiles,
		addressTiles:  buildAddressIndex(tiles),
	}
}

// Exists reports whether any tile in the grid is registered under p.
func (m *Maze) Exists(p memory.Path) bool {
	_, ok := m.addressTiles[p]

	return ok
}

func (m *Maze) GetTile(pos TilePos) Tile {
	return m.tiles[pos.Y][pos.X]
}

func (m *Maze) UpdateTile(pos TilePos, f func(*Tile)) {
	f(&m.tiles[pos.Y][pos.X])
}

func clampRange(center, radius, limit int) (lo, hi int) {
	lo = center - radius
	if lo < 0 {
		lo = 0
	}
	hi = center + radius + 1
	if hi > limit {
		hi = limit
	}
	return lo, hi
}

// GetNearbyTiles returns every tile position in the square of the given
// radius around tile, clamped to the grid edges.
func (m *Maze) GetNearbyTiles(tile TilePos, visionRadius int) []TilePos {
	left, right := clampRange(tile.X, visionRadius, m.width)
	top, bottom := clampRange(tile.Y, visionRadius, m.height)

	side := 2*visionRadius + 1
	nearby := make([]TilePos, 0, side*side)
	for x := left; x < right; x++ {
		for y := top; y < bottom; y++ {
			nearby = append(nearby, TilePos{X: x, Y: y})
		}
	}
	return nearby
}

func (m *Maze) AddEventToTile(tile TilePos, event Event) {
	m.tiles[tile.Y][tile.X].Events[event] = struct{}{}
}

func (m *Maze) RemoveEventFromTile(tile TilePos, event Event) {
	delete(m.tiles[tile.Y][tile.X].Events, event)
}

// RemoveSubjectEventsFromTile clears every event on tile whose subject
// matches, used when a persona leaves an activity its event was tied to.
func (m *Maze) RemoveSubjectEventsFromTile(tile TilePos, subject string) {
	m.UpdateTile(tile, func(t *Tile) {
		maps.DeleteFunc(t.Events, func(ev Event, _ struct{}) bool {
			return ev.SPO.Subject == subject
		})
	})
}

// TurnTileEventIdle replaces ev with a bare-subject event, the idle state a
// game object event is demoted to once whatever used it has moved on.
func (m *Maze) TurnTileEventIdle(tile TilePos, ev Event) {
	m.UpdateTile(tile, func(t *Tile) {
		delete(t.Events, ev)
		t.Events[Event{SPO: memory.SPO{Subject: ev.SPO.Subject}}] = struct{}{}
	})
}
