package config

// Source identifies where a field's effective value came from.
type Source string

// Source kinds, in merge-precedence order (lowest to highest).
const (
	SourcePreset  Source = "preset"
	SourceFile    Source = "file"
	SourceEnv     Source = "env"
	SourceBuilder Source = "builder"
	SourceStage   Source = "stage-gate"
)

// Provenance records, per field path, which source last set its value.
// It is append-mostly: each merge layer overwrites the entries it
// touches, so the final map reflects only the winning source per field.
type Provenance struct {
	entries map[string]Source
}

func newProvenance() *Provenance {
	return &Provenance{entries: make(map[string]Source)}
}

func (p *Provenance) record(field string, source Source) {
	p.entries[field] = source
}

// Of returns the source that set field's effective value, and whether
// field was ever recorded.
func (p *Provenance) Of(field string) (Source, bool) {
	s, ok := p.entries[field]
	return s, ok
}

// Summary returns a copy of the full field-path to source map, for
// debugging and for `corrax config explain`-style output.
func (p *Provenance) Summary() map[string]Source {
	out := make(map[string]Source, len(p.entries))
	for k, v := range p.entries {
		out[k] = v
	}

	return out
}
