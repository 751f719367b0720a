package llmstream

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultSummaryLen is the character budget for derived block summaries.
const DefaultSummaryLen = 120

// summaryEllipsis is appended when a summary had to be truncated.
const summaryEllipsis = "…"

// ThinkingBlock is one reasoning span tracked across the lifetime of a turn.
// Content is append-only until the block is finalized; CharCount and
// LineCount are derived on every append, Summary once on finalize.
type ThinkingBlock struct {
	ID      string `json:"id"`
	Content string `json:"content"`

	IsComplete bool `json:"is_complete"`

	// IsCollapsed is UI-only display state; the registry initializes it to
	// collapsed and never touches it again.
	IsCollapsed bool `json:"is_collapsed"`

	Summary   string `json:"summary,omitempty"`
	CharCount int    `json:"char_count"`
	LineCount int    `json:"line_count"`
}

// ThinkingRegistry correlates reasoning-block identifiers (or their absence)
// to accumulated content and derived display metadata. Each block moves
// through (absent) -> active -> finalized; finalization is exactly-once and
// finalizing again is a no-op, never an error.
//
// The registry is only ever mutated by the single task decoding one session's
// stream, so it carries no locking.
type ThinkingRegistry struct {
	blocks     map[string]*ThinkingBlock
	order      []string // creation order, for nil-id resolution and listing
	nextAutoID int
	summaryLen int
}

// NewThinkingRegistry creates a registry with the given summary character
// budget. A non-positive budget falls back to DefaultSummaryLen.
func NewThinkingRegistry(summaryLen int) *ThinkingRegistry {
	if summaryLen <= 0 {
		summaryLen = DefaultSummaryLen
	}
	return &ThinkingRegistry{
		blocks:     make(map[string]*ThinkingBlock),
		summaryLen: summaryLen,
	}
}

// Start creates a block for the given id, auto-generating a monotonic id when
// none is supplied. Starting an id that already exists returns the existing
// block unchanged.
func (r *ThinkingRegistry) Start(id *string) *ThinkingBlock {
	blockID := r.resolveOrGenerate(id)
	if b, ok := r.blocks[blockID]; ok {
		return b
	}
	return r.create(blockID)
}

// Delta appends text to the block named by id. A nil id targets whichever
// unfinalized block was most recently created, auto-creating one when none
// exists. Appends to a finalized block are dropped: content is frozen at
// finalization.
func (r *ThinkingRegistry) Delta(id *string, text string) {
	b := r.resolve(id, true)
	if b == nil || b.IsComplete {
		return
	}
	b.Content += text
	b.CharCount = utf8.RuneCountInString(b.Content)
	b.LineCount = strings.Count(b.Content, "\n") + 1
}

// End finalizes the resolved block, deriving its summary. Ending a missing or
// already-finalized block is a no-op.
func (r *ThinkingRegistry) End(id *string) {
	b := r.resolve(id, false)
	if b == nil || b.IsComplete {
		return
	}
	b.IsComplete = true
	b.Summary = summarize(b.Content, r.summaryLen)
}

// Apply routes a thinking event to Start/Delta/End; any other event kind is
// ignored. Convenient for consumers that feed the whole canonical stream
// through the registry.
func (r *ThinkingRegistry) Apply(ev Event) {
	switch ev.Kind {
	case EventThinkingStart:
		r.Start(ev.ThinkingID)
	case EventThinkingDelta:
		r.Delta(ev.ThinkingID, ev.Content)
	case EventThinkingEnd:
		r.End(ev.ThinkingID)
	}
}

// Get returns the block for id, if present.
func (r *ThinkingRegistry) Get(id string) (*ThinkingBlock, bool) {
	b, ok := r.blocks[id]
	return b, ok
}

// Blocks returns all blocks in creation order.
func (r *ThinkingRegistry) Blocks() []*ThinkingBlock {
	out := make([]*ThinkingBlock, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.blocks[id])
	}
	return out
}

// Remove deletes the block for id, if present.
func (r *ThinkingRegistry) Remove(id string) {
	if _, ok := r.blocks[id]; !ok {
		return
	}
	delete(r.blocks, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Clear drops every block. Used at session boundaries; blocks are never
// shared across sessions.
func (r *ThinkingRegistry) Clear() {
	r.blocks = make(map[string]*ThinkingBlock)
	r.order = nil
}

func (r *ThinkingRegistry) create(id string) *ThinkingBlock {
	b := &ThinkingBlock{ID: id, IsCollapsed: true, LineCount: 0}
	r.blocks[id] = b
	r.order = append(r.order, id)
	return b
}

// resolve maps an optional id to a block. A nil id targets the most recently
// created unfinalized block; autoCreate controls whether a missing target is
// created on the spot (deltas auto-create, ends do not).
func (r *ThinkingRegistry) resolve(id *string, autoCreate bool) *ThinkingBlock {
	if id != nil {
		if b, ok := r.blocks[*id]; ok {
			return b
		}
		if autoCreate {
			return r.create(*id)
		}
		return nil
	}

	for i := len(r.order) - 1; i >= 0; i-- {
		if b := r.blocks[r.order[i]]; !b.IsComplete {
			return b
		}
	}
	if autoCreate {
		return r.create(r.generateID())
	}
	return nil
}

func (r *ThinkingRegistry) resolveOrGenerate(id *string) string {
	if id != nil {
		return *id
	}
	return r.generateID()
}

func (r *ThinkingRegistry) generateID() string {
	r.nextAutoID++
	return fmt.Sprintf("thinking-%d", r.nextAutoID)
}

// summarize derives a bounded one-line summary: truncate at the character
// budget, prefer breaking at the last whitespace inside the budget, and mark
// truncation with an ellipsis.
func summarize(content string, budget int) string {
	s := strings.Join(strings.Fields(content), " ")
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}

	cut := string(runes[:budget])
	if idx := strings.LastIndexFunc(cut, func(r rune) bool { return r == ' ' }); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ") + summaryEllipsis
}
