package agent

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/riverbend/agentville/maze"
	"github.com/riverbend/agentville/memory"
)

// embeddingKeyFor trims a trailing parenthetical qualifier from a description
// ("Isabella is cooking breakfast (scrambling eggs)" -> "Isabella is cooking breakfast")
// so embedding keys stay short and comparable across near-duplicate descriptions.
func embeddingKeyFor(description string) string {
	if idx := strings.Index(description, " ("); idx != -1 && strings.HasSuffix(description, ")") {
		return description[:idx]
	}
	return description
}

// perceive scans the tiles within the agent's vision radius, registers newly
// discovered places in spatial memory, and writes through to associative
// memory any events in the agent's current arena that haven't already been
// captured within the retention window.
func (p *Persona) perceive(m *maze.Maze) []memory.NodeId {
	nearbyTiles := m.GetNearbyTiles(p.state.Position, p.state.VisionRadius)

	for _, pos := range nearbyTiles {
		tile := m.GetTile(pos)
		p.spatialMemory.Register(tile.Path)
	}

	// Only events in the same arena as the agent are eligible for perception.
	currentArenaPath := m.GetTile(p.state.Position).Path.AtLevel(memory.PathLevelArena)

	// Objects can span multiple tiles, so the same event may surface more
	// than once; dedupe it.
	seen := make(map[maze.Event]struct{})
	candidates := []struct {
		event    maze.Event
		distance float64
	}{}
	for _, pos := range nearbyTiles {
		tile := m.GetTile(pos)
		if len(tile.Events) == 0 {
			continue
		}
		if !tile.Path.AtLevel(memory.PathLevelArena).Matches(currentArenaPath) {
			continue
		}

		distance := p.state.Position.EuclidianDistance(pos)

		for event := range tile.Events {
			if _, ok := seen[event]; ok {
				continue
			}

			seen[event] = struct{}{}
			candidates = append(candidates, struct {
				event    maze.Event
				distance float64
			}{event, distance})
		}
	}

	slices.SortFunc(candidates, func(a, b struct {
		event    maze.Event
		distance float64
	},
	) int {
		return cmp.Compare(a.distance, b.distance)
	})

	keep := min(p.state.AttentionBandwidth, len(candidates))

	perceivedEvents := make([]maze.Event, 0, keep)
	for _, c := range candidates[:keep] {
		perceivedEvents = append(perceivedEvents, c.event)
	}

	memories := make([]memory.NodeId, 0, len(perceivedEvents))
	for _, perceivedEvent := range perceivedEvents {
		if perceivedEvent.SPO.Predicate == "" {
			perceivedEvent.SPO.Predicate = "is"
			perceivedEvent.SPO.Object = "idle"
			perceivedEvent.Description = "idle"
		}
		perceivedEvent.Description = fmt.Sprintf("%s is %s", perceivedEvent.SPO.Subject, perceivedEvent.Description)

		// Skip events already captured within the retention window.
		if _, ok := p.associativeMemory.GetLatestEventSPOs(p.state.Retention)[perceivedEvent.SPO]; ok {
			continue
		}

		keywords := make([]string, 0, 2)

		subject := memory.ParsePath(perceivedEvent.SPO.Subject).Base()
		object := memory.ParsePath(perceivedEvent.SPO.Object).Base()
		keywords = append(keywords, subject)
		keywords = append(keywords, object)

		embeddingKey := embeddingKeyFor(perceivedEvent.Description)
		embedding := p.GetEmbedding(embeddingKey)

		var importance int
		if strings.Contains(perceivedEvent.Description, "is idle") {
			// Idle events are the overwhelming majority of perceived events and
			// carry no information worth an LLM round-trip; pin their poignancy.
			importance = 1
		} else {
			importance = p.cognition.GenerateImportanceScore(p, memory.NodeTypeEvent, perceivedEvent.Description)
		}
		valence := p.cognition.GenerateValenceScore(p, memory.NodeTypeEvent, perceivedEvent.Description)

		chatNodes := make([]memory.NodeId, 0, 1)
		if subject == p.name && perceivedEvent.SPO.Predicate == "chat with" {
			currentEvent := p.state.ActivitySPO

			chatKey := embeddingKeyFor(p.state.ActivityDescription)
			chatEmbedding := p.GetEmbedding(chatKey)

			chatImportance := p.cognition.GenerateImportanceScoreChat(p, p.state.Chat, p.state.ActivityDescription)
			chatValence := p.cognition.GenerateValenceScoreChat(p, p.state.Chat, p.state.ActivityDescription)

			chatNode := p.addChatToMemory(currentEvent, p.state.ActivityDescription, keywords, chatImportance, chatValence, p.state.Chat, p.state.CurrentTime, nil, chatKey, chatEmbedding)
			chatNodes = append(chatNodes, chatNode.Id)
		}

		memories = append(memories, p.addEventToMemory(perceivedEvent, keywords, importance, valence, chatNodes, embeddingKey, embedding).Id)
	}

	return memories
}
