package agent

import (
	"fmt"
	"testing"

	"github.com/riverbend/agentville/maze"
	"github.com/riverbend/agentville/memory"

	"github.com/stretchr/testify/assert"
)

func emptyTestMaze(width, height int) *maze.Maze {
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

func TestFallbackTargetTilesPrefersLivingArea(t *testing.T) {
	livingArea := memory.NewPath(memory.PathWithWorld("the Ville"), memory.PathWithSector("house"))

	collision := [][]bool{{false, false}, {false, false}}
	tiles := [][]maze.Tile{
		{{Events: map[maze.Event]struct{}{}}, {Path: livingArea, Events: map[maze.Event]struct{}{}}},
		{{Events: map[maze.Event]struct{}{}}, {Events: map[maze.Event]struct{}{}}},
	}
	m := maze.New("test", "test", 2, 2, 1, collision, tiles)

	p := &Persona{state: State{LivingArea: livingArea, Position: maze.TilePos{X: 0, Y: 0}}}

	got := p.fallbackTargetTiles(m)

	assert.Equal(t, []maze.TilePos{{X: 1, Y: 0}}, got)
}

func TestFallbackTargetTilesFallsBackToCurrentPosition(t *testing.T) {
	m := emptyTestMaze(2, 2)
	unknownArea := memory.NewPath(memory.PathWithWorld("nowhere"))

	p := &Persona{state: State{LivingArea: unknownArea, Position: maze.TilePos{X: 1, Y: 1}}}

	tiles := p.fallbackTargetTiles(m)

	assert.Equal(t, []maze.TilePos{{X: 1, Y: 1}}, tiles)
}

func TestSampleReturnsAllWhenSampleSizeExceedsLength(t *testing.T) {
	arr := []int{1, 2, 3}

	out := sample(arr, 10)

	assert.ElementsMatch(t, []int{1, 2, 3}, out)
}

func TestSampleTruncatesToRequestedSize(t *testing.T) {
	arr := []int{1, 2, 3, 4, 5}

	out := sample(arr, 2)

	assert.Len(t, out, 2)
}

// TestExecuteDoesNotPanicWhenTargetIsUnreachable covers the case where
// maze.Pathfind finds no route at all (returns an empty slice); execute must
// treat that as "stay put" instead of panicking on an out-of-range slice.
func TestExecuteDoesNotPanicWhenTargetIsUnreachable(t *testing.T) {
	target := memory.NewPath(memory.PathWithWorld("nowhere"), memory.PathWithSector("unreachable"))

	// The target tile itself is marked as collision, so no route can ever
	// reach it; maze.Pathfind exhausts its iteration budget and returns an
	// empty path rather than a route.
	collision := [][]bool{
		{false, false},
		{false, true},
	}
	tiles := [][]maze.Tile{
		{{Events: map[maze.Event]struct{}{}}, {Events: map[maze.Event]struct{}{}}},
		{{Events: map[maze.Event]struct{}{}}, {Path: target, Events: map[maze.Event]struct{}{}}},
	}
	m := maze.New("test", "test", 2, 2, 1, collision, tiles)

	p := &Persona{
		name: "tester",
		state: State{
			Position: maze.TilePos{X: 0, Y: 0},
		},
	}

	assert.NotPanics(t, func() {
		p.execute(m, map[string]*Persona{}, target)
	})
}

// TestExecuteChasePersonaTargetsPathMidpoint covers the `<persona> Name`
// address: the walk should end at the tile halfway along the shortest path
// to the other persona, not at the persona itself.
func TestExecuteChasePersonaTargetsPathMidpoint(t *testing.T) {
	m := emptyTestMaze(12, 1)

	p := &Persona{
		name:  "Isabella Rodriguez",
		state: State{Position: maze.TilePos{X: 0, Y: 0}},
	}
	bob := &Persona{
		name:  "Bob",
		state: State{Position: maze.TilePos{X: 10, Y: 0}},
	}
	personas := map[string]*Persona{"Isabella Rodriguez": p, "Bob": bob}

	plan := memory.SpecialPath(memory.PathStatePersona, "Bob")
	next, _, _ := p.execute(m, personas, plan)

	// The direct path spans 10 steps; the executor walks to the tile at
	// x=5, taking the first step now and leaving four queued.
	assert.Equal(t, maze.TilePos{X: 1, Y: 0}, next)
	assert.Len(t, p.state.PlannedPath, 4)
	assert.True(t, p.state.ActivityPathSet)
}

// TestExecuteWaitingAddressWalksToExactTile covers the `<waiting> X x Y y`
// address produced by the wait reaction.
func TestExecuteWaitingAddressWalksToExactTile(t *testing.T) {
	m := emptyTestMaze(4, 1)

	p := &Persona{
		name:  "Isabella Rodriguez",
		state: State{Position: maze.TilePos{X: 0, Y: 0}},
	}

	plan := memory.SpecialPath(memory.PathStateWaiting, fmt.Sprintf(memory.WaitingArgFormat, 3, 0))
	next, _, _ := p.execute(m, map[string]*Persona{}, plan)

	assert.Equal(t, maze.TilePos{X: 1, Y: 0}, next)
	assert.Equal(t, []maze.TilePos{{X: 2, Y: 0}, {X: 3, Y: 0}}, p.state.PlannedPath)
}
