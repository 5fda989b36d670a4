// Package chunking derives a file's contiguous code regions from its IR
// node hierarchy: one chunk per top-level declaration, block chunks for
// declarations larger than the configured maximum, and file chunks for
// the undeclared regions in between. The chunker is deterministic:
// chunks come out sorted by start line, and re-running it over the same
// IRDocument always yields the same chunk vector.
package chunking

import (
	"sort"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/pkg/alg/interval"
)

// declChunkKinds maps a declaration node kind to the chunk kind its
// region is labeled with. Node kinds absent here never seed a chunk.
var declChunkKinds = map[ir.Kind]ir.ChunkKind{
	ir.KindFunction:  ir.ChunkFunction,
	ir.KindMethod:    ir.ChunkFunction,
	ir.KindClass:     ir.ChunkClass,
	ir.KindStruct:    ir.ChunkClass,
	ir.KindInterface: ir.ChunkClass,
}

// Summary is the repo-wide chunking outcome attached to the run result.
type Summary struct {
	TotalChunks int
	ByKind      map[ir.ChunkKind]int
}

// Chunk computes doc's chunk vector. cfg.MinSize gates how small an
// undeclared gap may be before it is dropped rather than emitted as a
// file chunk; cfg.MaxSize splits any declaration region larger than it
// into block chunks.
func Chunk(doc *ir.IRDocument, cfg config.ChunkingConfig) []ir.Chunk {
	minSize, maxSize := cfg.MinSize, cfg.MaxSize
	if minSize <= 0 {
		minSize = 1
	}

	if maxSize <= 0 {
		maxSize = 400
	}

	decls := declarations(doc)
	spans := declSpans(doc)

	var chunks []ir.Chunk

	lastCovered := 0

	for _, d := range decls {
		if d.StartLine <= lastCovered {
			// Nested or overlapping declaration; the enclosing chunk
			// already covers it and carries its symbol.
			continue
		}

		if gap := d.StartLine - lastCovered - 1; gap >= minSize {
			chunks = append(chunks, ir.Chunk{
				File:      doc.File.Path,
				StartLine: lastCovered + 1,
				EndLine:   d.StartLine - 1,
				Kind:      ir.ChunkFile,
			})
		}

		end := max(d.EndLine, d.StartLine)
		chunks = append(chunks, split(doc, spans, d, end, maxSize)...)
		lastCovered = end
	}

	if tail := lastLine(doc); tail-lastCovered >= minSize {
		chunks = append(chunks, ir.Chunk{
			File:      doc.File.Path,
			StartLine: lastCovered + 1,
			EndLine:   tail,
			Kind:      ir.ChunkFile,
		})
	}

	return chunks
}

// split emits d's region as one declaration chunk, or as a run of block
// chunks of at most maxSize lines when the region exceeds it. Symbols
// carry every declaration name whose span intersects the chunk.
func split(doc *ir.IRDocument, spans *interval.Tree[int, string], d *ir.Node, end, maxSize int) []ir.Chunk {
	kind := declChunkKinds[d.Kind]

	if end-d.StartLine+1 <= maxSize {
		return []ir.Chunk{{
			File:      doc.File.Path,
			StartLine: d.StartLine,
			EndLine:   end,
			Kind:      kind,
			Symbols:   symbolsIn(spans, d.StartLine, end),
		}}
	}

	var chunks []ir.Chunk

	for start := d.StartLine; start <= end; start += maxSize {
		stop := min(start+maxSize-1, end)

		chunkKind := ir.ChunkBlock
		if start == d.StartLine {
			chunkKind = kind
		}

		chunks = append(chunks, ir.Chunk{
			File:      doc.File.Path,
			StartLine: start,
			EndLine:   stop,
			Kind:      chunkKind,
			Symbols:   symbolsIn(spans, start, stop),
		})
	}

	return chunks
}

// declarations returns doc's chunk-seeding nodes sorted by start line,
// ties broken by name so the output never depends on node vector order.
func declarations(doc *ir.IRDocument) []*ir.Node {
	var decls []*ir.Node

	for _, n := range doc.Nodes {
		if _, ok := declChunkKinds[n.Kind]; ok {
			decls = append(decls, n)
		}
	}

	sort.Slice(decls, func(i, j int) bool {
		if decls[i].StartLine != decls[j].StartLine {
			return decls[i].StartLine < decls[j].StartLine
		}

		return decls[i].Name < decls[j].Name
	})

	return decls
}

// declSpans indexes every declaration's line span in an interval tree:
// an oversized declaration splits into many block chunks, and each one
// issues its own overlap query against the same spans.
func declSpans(doc *ir.IRDocument) *interval.Tree[int, string] {
	spans := interval.New[int, string]()

	for _, n := range doc.Nodes {
		if _, ok := declChunkKinds[n.Kind]; ok {
			spans.Insert(n.StartLine, max(n.EndLine, n.StartLine), n.Name)
		}
	}

	return spans
}

// symbolsIn lists the names of declaration spans intersecting
// [start, end], sorted and deduplicated.
func symbolsIn(spans *interval.Tree[int, string], start, end int) []string {
	seen := make(map[string]bool)

	var symbols []string

	for _, iv := range spans.QueryOverlap(start, end) {
		if !seen[iv.Value] {
			seen[iv.Value] = true

			symbols = append(symbols, iv.Value)
		}
	}

	sort.Strings(symbols)

	return symbols
}

// lastLine is the file's known extent: the maximum end line any node
// reports. IR carries no raw source, so trailing undeclared lines past
// the last node are invisible to the chunker.
func lastLine(doc *ir.IRDocument) int {
	last := 0

	for _, n := range doc.Nodes {
		last = max(last, n.EndLine, n.StartLine)
	}

	return last
}
