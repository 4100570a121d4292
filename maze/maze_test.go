package maze_test

import (
	"testing"

	"github.com/riverbend/agentville/maze"
	"github.com/riverbend/agentville/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEmptyMaze(width, height int) *maze.Maze {
	collision := make([][]bool, height)
	tiles := make([][]maze.Tile, height)
	for i := 0; i < height; i++ {
		collision[i] = make([]bool, width)
		tiles[i] = make([]maze.Tile, width)
		for j := 0; j < width; j++ {
			tiles[i][j] = maze.Tile{Events: map[maze.Event]struct{}{}}
		}
	}
	return maze.New("test", "test", width, height, 1, collision, tiles)
}

func TestGetNearbyTilesClipsToBounds(t *testing.T) {
	m := makeEmptyMaze(5, 5)

	nearby := m.GetNearbyTiles(maze.TilePos{X: 0, Y: 0}, 1)

	for _, p := range nearby {
		assert.GreaterOrEqual(t, p.X, 0)
		assert.GreaterOrEqual(t, p.Y, 0)
		assert.Less(t, p.X, 5)
		assert.Less(t, p.Y, 5)
	}
	// Clipped to the top-left corner: only a 2x2 square is in bounds.
	assert.Len(t, nearby, 4)
}

func TestGetNearbyTilesFullSquareInBounds(t *testing.T) {
	m := makeEmptyMaze(10, 10)

	nearby := m.GetNearbyTiles(maze.TilePos{X: 5, Y: 5}, 2)

	assert.Len(t, nearby, 25)
}

func TestAddRemoveAndIdleEvent(t *testing.T) {
	m := makeEmptyMaze(3, 3)
	pos := maze.TilePos{X: 1, Y: 1}

	ev := maze.Event{SPO: memory.SPO{Subject: "alice", Predicate: "is", Object: "reading"}, Description: "alice is reading"}
	m.AddEventToTile(pos, ev)

	tile := m.GetTile(pos)
	_, ok := tile.Events[ev]
	require.True(t, ok)

	m.TurnTileEventIdle(pos, ev)

	tile = m.GetTile(pos)
	_, ok = tile.Events[ev]
	assert.False(t, ok, "idle-turned event should replace the original entry")

	idle := maze.Event{SPO: memory.SPO{Subject: "alice"}}
	_, ok = tile.Events[idle]
	assert.True(t, ok, "idle event keyed only on subject should remain")
}

func TestRemoveSubjectEventsFromTile(t *testing.T) {
	m := makeEmptyMaze(3, 3)
	pos := maze.TilePos{X: 0, Y: 0}

	alice := maze.Event{SPO: memory.SPO{Subject: "alice", Predicate: "is", Object: "reading"}}
	bob := maze.Event{SPO: memory.SPO{Subject: "bob", Predicate: "is", Object: "cooking"}}
	m.AddEventToTile(pos, alice)
	m.AddEventToTile(pos, bob)

	m.RemoveSubjectEventsFromTile(pos, "alice")

	tile := m.GetTile(pos)
	_, aliceStillThere := tile.Events[alice]
	_, bobStillThere := tile.Events[bob]
	assert.False(t, aliceStillThere)
	assert.True(t, bobStillThere)
}

func TestAddressReverseIndex(t *testing.T) {
	height, width := 2, 2
	collision := [][]bool{{false, false}, {false, false}}
	world := memory.NewPath(memory.PathWithWorld("the Ville"), memory.PathWithSector("house"), memory.PathWithArena("kitchen"), memory.PathWithObject("fridge"))
	tiles := [][]maze.Tile{
		{{Path: world, Events: map[maze.Event]struct{}{}}, {Events: map[maze.Event]struct{}{}}},
		{{Events: map[maze.Event]struct{}{}}, {Events: map[maze.Event]struct{}{}}},
	}

	m := maze.New("test", "test", width, height, 1, collision, tiles)

	arena := world.AtLevel(memory.PathLevelArena)
	require.True(t, m.Exists(arena))

	atTiles, ok := m.PathToTiles(arena)
	require.True(t, ok)
	assert.Equal(t, []maze.TilePos{{X: 0, Y: 0}}, atTiles)
}
