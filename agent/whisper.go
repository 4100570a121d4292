package agent

import (
	"log/slog"
	"time"

	"github.com/riverbend/agentville/memory"
)

// IngestWhisper implements the operator's `load_history_via_whisper` seed
// path: an out-of-band statement is rewritten as a first-person inner
// thought and appended to the persona's memory with a 30-simulated-day
// expiration, same as any other reflection-derived thought.
func (p *Persona) IngestWhisper(log *slog.Logger, whisper string) memory.ConceptNode {
	p.ctx = MoveCtx{Log: log.With(slog.String("persona", p.name))}

	thought := p.cognition.GenerateWhisperInnerThought(p, whisper)

	created := p.state.CurrentTime
	expiration := created.Add(time.Hour * 24 * 30)

	spo := p.cognition.GenerateActivitySPO(p, thought)
	keywords := []string{spo.Subject, spo.Predicate, spo.Object}
	importance := p.cognition.GenerateImportanceScore(p, memory.NodeTypeEvent, whisper)
	valence := p.cognition.GenerateValenceScore(p, memory.NodeTypeEvent, whisper)
	embedding := p.GetEmbedding(thought)

	return p.addThoughtToMemory(spo, thought, keywords, importance, valence, nil, created, &expiration, thought, embedding)
}
