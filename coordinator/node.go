package coordinator

import (
	"context"

	"docindex/lexical"
	"docindex/segment"
	"docindex/vector"
)

// saveNode segments `text` once and writes the resulting node to both the
// lexical and vector indexes, so the two never disagree about where a
// node's segment boundaries fall (spec.md §3's shared IndexNode.segments).
func (c *Coordinator) saveNode(ctx context.Context, nodeID string, nodeType lexical.NodeType, metadata map[string]string, text string) error {
	segs := segment.Get().Segment(text)
	if len(segs) == 0 && text != "" {
		segs = []segment.Segment{{Start: 0, End: len(text), Text: text}}
	}

	lexSegs := make([]lexical.Segment, len(segs))
	vecSegs := make([]vector.Segment, len(segs))
	for i, s := range segs {
		lexSegs[i] = lexical.Segment{Start: s.Start, End: s.End, Text: s.Text}
		vecSegs[i] = vector.Segment{Start: s.Start, End: s.End, Text: s.Text}
	}

	if err := c.lex.Save(lexical.Node{
		NodeID: nodeID, NodeType: nodeType, Metadata: metadata, Segments: lexSegs,
	}); err != nil {
		return err
	}
	return c.vec.Save(ctx, nodeID, vecSegs, metadata)
}

// removeNode removes a node_id from both indexes, best-effort: a failure
// in one index is logged but does not block removal from the other, since
// the release pipeline itself is documented as best-effort cleanup.
func (c *Coordinator) removeNode(ctx context.Context, nodeID string) {
	if err := c.lex.Remove(nodeID); err != nil {
		c.log.Warn("lexical remove failed", "node_id", nodeID, "err", err)
	}
	if err := c.vec.Remove(ctx, nodeID); err != nil {
		c.log.Warn("vector remove failed", "node_id", nodeID, "err", err)
	}
}
