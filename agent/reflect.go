package agent

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/riverbend/agentville/memory"
)

const (
	focalPointCount   = 3
	reflectionMinPool = 100
	thoughtLifespan   = 30 * 24 * time.Hour
)

// candidateFocalNodes collects every event and thought recorded since the
// last reflection (idle-tagged nodes excluded, since "idle" is a filler
// event rather than something worth reflecting on), oldest first.
func (p *Persona) candidateFocalNodes() []memory.NodeId {
	events := p.associativeMemory.GetLatestEventIds()
	thoughts := p.associativeMemory.GetLatestThoughtIds()

	nodes := make([]memory.NodeId, 0, len(events)+len(thoughts))
	nodes = append(nodes, events...)
	nodes = append(nodes, thoughts...)

	nodes = slices.DeleteFunc(nodes, func(n memory.NodeId) bool {
		return strings.Contains(p.associativeMemory.GetNode(n).EmbeddingKey, "idle")
	})

	slices.SortFunc(nodes, func(a, b memory.NodeId) int {
		return p.associativeMemory.GetNode(a).LastAccessed.Compare(p.associativeMemory.GetNode(b).LastAccessed)
	})

	return nodes
}

func (p *Persona) generateFocalPoints() []string {
	nodes := p.candidateFocalNodes()

	// NOTE(Friso): the paper reflects over the last 100 memories; the
	// original code instead uses everything since the last reflection.
	// This takes whichever pool is bigger.
	n := max(p.state.ReflectionElements, reflectionMinPool)
	n = min(n, len(nodes))

	return p.cognition.GenerateFocalPoints(p, nodes[len(nodes)-n:], focalPointCount)
}

func (p *Persona) runReflect() {
	focalPoints := p.generateFocalPoints()
	retrieved := p.retrieveForFocalPoints(focalPoints)

	for _, nodes := range retrieved {
		for thought, evidence := range p.cognition.GenerateInsightAndEvidence(p, nodes, 5) {
			p.recordThought(thought, evidence)
		}
	}
}

func (p *Persona) shouldReflect() bool {
	return p.state.CurrentReflectionTrigger < 1 &&
		len(p.associativeMemory.GetLatestEventIds())+len(p.associativeMemory.GetLatestThoughtIds()) != 0
}

func (p *Persona) resetReflectionTrigger() {
	p.state.CurrentReflectionTrigger = p.state.ReflectionTrigger
	p.state.ReflectionElements = 0
}

// recordThought scores and embeds a generated thought exactly like any
// other reflection insight, then files it away with a 30-day expiration.
func (p *Persona) recordThought(thought string, evidence []memory.NodeId) {
	created := p.state.CurrentTime
	expiration := created.Add(thoughtLifespan)

	spo := p.cognition.GenerateActivitySPO(p, thought)
	keywords := []string{spo.Subject, spo.Predicate, spo.Object}
	importance := p.cognition.GenerateImportanceScore(p, memory.NodeTypeThought, thought)
	valence := p.cognition.GenerateValenceScore(p, memory.NodeTypeThought, thought)
	embedding := p.GetEmbedding(thought)

	p.addThoughtToMemory(spo, thought, keywords, importance, valence, evidence, created, &expiration, thought, embedding)
}

// conversationHasEnded reports whether the persona's current chat, if any,
// is close enough to its end time that post-conversation reflection should
// run this tick rather than waiting for the chat to actually finish.
func (p *Persona) conversationHasEnded() bool {
	if p.state.ChatEndTime.IsZero() {
		return false
	}
	return !p.state.CurrentTime.Add(10 * time.Second).Before(p.state.ChatEndTime)
}

func (p *Persona) reflect() {
	if p.shouldReflect() {
		p.runReflect()
		p.resetReflectionTrigger()
	}

	if !p.conversationHasEnded() {
		return
	}

	var evidence []memory.NodeId
	if id, ok := p.associativeMemory.GetLastChat(p.state.ChattingWith); ok {
		evidence = []memory.NodeId{id}
	}

	planningThought := p.cognition.GeneratePlanningThoughtAfterConversation(p, p.state.Chat)
	p.recordThought(fmt.Sprintf("For %s's planning: %s", p.name, planningThought), evidence)

	memoThought := p.cognition.GenerateMemoAfterConversation(p, p.state.Chat)
	p.recordThought(fmt.Sprintf("%s %s", p.name, memoThought), evidence)
}
