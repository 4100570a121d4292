package agent

import (
	"testing"

	"github.com/riverbend/agentville/maze"
	"github.com/riverbend/agentville/memory"

	"github.com/stretchr/testify/assert"
)

func newPerceiveTestPersona(m *maze.Maze) *Persona {
	state := State{
		Position:           maze.TilePos{X: 0, Y: 0},
		CurrentTime:        dayAt(9, 0),
		VisionRadius:       4,
		AttentionBandwidth: 3,
		Retention:          5,
	}

	assoc := memory.NewAssociative(map[string][]float64{}, map[string]int{}, map[string]int{})
	p := New("Isabella Rodriguez", assoc, memory.NewSpatial(), state, fakeEmbedder{}, fakeCognition{importance: 4})
	p.ctx = MoveCtx{Log: discardLog()}
	return p
}

func TestPerceiveAddsEventOnce(t *testing.T) {
	m := emptyTestMaze(3, 3)
	m.AddEventToTile(maze.TilePos{X: 1, Y: 1}, maze.Event{
		SPO:         memory.SPO{Subject: "Klaus Mueller", Predicate: "is", Object: "reading"},
		Description: "reading a research paper",
	})

	p := newPerceiveTestPersona(m)

	added := p.perceive(m)
	assert.Len(t, added, 1)

	// The same event stays in vision on later ticks but is already inside the
	// retention window, so it must not be written to memory again.
	for i := 0; i < 3; i++ {
		assert.Empty(t, p.perceive(m))
	}

	assoc, _ := p.Memory()
	assert.Len(t, assoc.GetLatestEventIds(), 1)
}

func TestPerceiveKeepsOnlyClosestEventsWithinBandwidth(t *testing.T) {
	m := emptyTestMaze(6, 1)
	for x := 1; x <= 5; x++ {
		m.AddEventToTile(maze.TilePos{X: x, Y: 0}, maze.Event{
			SPO:         memory.SPO{Subject: "object " + string(rune('a'+x)), Predicate: "is", Object: "humming"},
			Description: "humming",
		})
	}

	p := newPerceiveTestPersona(m)
	p.state.AttentionBandwidth = 2

	added := p.perceive(m)

	assert.Len(t, added, 2)
}

func TestPerceiveRegistersNearbyTilesInSpatialMemory(t *testing.T) {
	livingRoom := memory.ParsePath("the Ville:house:living room:sofa")
	collision := [][]bool{{false, false}}
	tiles := [][]maze.Tile{{
		{Events: map[maze.Event]struct{}{}},
		{Path: livingRoom, Events: map[maze.Event]struct{}{}},
	}}
	m := maze.New("test", "test", 2, 1, 1, collision, tiles)

	p := newPerceiveTestPersona(m)
	p.perceive(m)

	_, spatial := p.Memory()
	known := spatial.GetKnown(memory.ParsePath("the Ville:house:living room"), memory.PathLevelObject)
	assert.Equal(t, []string{"sofa"}, known)
}

func TestPerceiveImportanceDrivesReflectionTrigger(t *testing.T) {
	m := emptyTestMaze(3, 3)
	m.AddEventToTile(maze.TilePos{X: 2, Y: 2}, maze.Event{
		SPO:         memory.SPO{Subject: "Klaus Mueller", Predicate: "is", Object: "reading"},
		Description: "reading a research paper",
	})

	p := newPerceiveTestPersona(m)
	p.state.CurrentReflectionTrigger = 10

	p.perceive(m)

	assert.Equal(t, 6, p.state.CurrentReflectionTrigger)
	assert.Equal(t, 1, p.state.ReflectionElements)
}
