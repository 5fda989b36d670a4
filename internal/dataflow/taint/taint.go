package taint

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/dataflow/ifds"
	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// Config is the effective taint-analysis configuration: the repository's
// resource bounds (config.TaintConfig) plus the matcher set and an
// optional external SMT binding.
type Config struct {
	config.TaintConfig
	Matchers       Matchers
	ExternalSolver ExternalSolver
}

// Confidence is a coarse qualitative rating attached to each emitted
// vulnerability, derived from whether the path crossed a sanitizer-shaped
// node that failed to actually kill the fact (field-insensitively) and
// whether the run was truncated before exhausting the worklist.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Vulnerability is one tainted-source-reaches-sink finding.
type Vulnerability struct {
	Source         string
	Sink           string
	Path           []string
	SanitizersSeen []string
	Truncated      bool
	Confidence     Confidence
	Kind           string
}

// SourceSignature and SinkSignature identify a vulnerability's endpoints
// independent of the exact path between them, for differential matching.
func (v Vulnerability) SourceSignature() string { return v.Source }
func (v Vulnerability) SinkSignature() string    { return v.Sink }

// PathHashPrefix returns a short, stable hash of the full path, used as
// the third component of differential-mode matching keys.
func (v Vulnerability) PathHashPrefix() string {
	h := sha256.New()
	for _, n := range v.Path {
		h.Write([]byte(n))
		h.Write([]byte{0})
	}

	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}

// Summary is the attached Result.Summaries[pipeline.StageTaint] payload.
type Summary struct {
	Vulnerabilities []Vulnerability
	Stats           ifds.Stats
	Truncated       bool
}

// Analyze runs the taint client's IFDS problem over repo and returns
// every vulnerability found.
func Analyze(repo *pipeline.RepoView, cfg Config) Summary {
	limits := ifds.Limits{
		MaxPathEdges:  maxPathEdgesFor(cfg),
		MaxIterations: cfg.WorklistMaxIterations,
	}

	problem := newGraphProblem(repo, cfg.Matchers, cfg)
	solver := ifds.NewIFDSSolver[Fact](problem, limits)
	result := solver.Solve()

	vulns := collectVulnerabilities(problem, result, cfg)

	return Summary{
		Vulnerabilities: vulns,
		Stats:           result.Stats,
		Truncated:       result.Stats.Truncated,
	}
}

// maxPathEdgesFor derives a path-edge ceiling from max_paths and
// max_depth: their product, with an unset max_depth counted as 1. A zero
// max_paths (no limit configured) yields 0, which the solver treats as
// unbounded rather than as zero work.
func maxPathEdgesFor(cfg Config) int {
	if cfg.MaxPaths <= 0 {
		return 0
	}

	depth := cfg.MaxDepth
	if depth <= 0 {
		depth = 1
	}

	bound := cfg.MaxPaths * depth
	if bound <= 0 {
		return 0
	}

	return bound
}

func collectVulnerabilities(g *graphProblem, result *ifds.Result[Fact], cfg Config) []Vulnerability {
	var out []Vulnerability

	for nodeID, node := range g.nodes {
		if !anyMatch(g.matchers.Sinks, node) {
			continue
		}

		for fact := range reachingFacts(result, nodeID) {
			if fact.IsZero() {
				continue
			}

			v := buildVulnerability(g, result, node, fact, cfg)
			out = append(out, v)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Sink != out[j].Sink {
			return out[i].Sink < out[j].Sink
		}

		return out[i].Source < out[j].Source
	})

	return out
}

// reachingFacts enumerates every non-zero fact result.Reaches confirms at
// node, by scanning the node's path-edge set directly rather than probing
// a closed fact universe (the universe is unbounded: facts carry
// interned path conditions).
func reachingFacts(result *ifds.Result[Fact], node ifds.NodeID) map[Fact]struct{} {
	out := make(map[Fact]struct{})

	for pe := range result.PathEdges[node] {
		out[pe.D2] = struct{}{}
	}

	return out
}

func buildVulnerability(g *graphProblem, result *ifds.Result[Fact], sink *ir.Node, fact Fact, cfg Config) Vulnerability {
	steps := result.Path(ifds.NodeID(sink.ID), fact)

	path := make([]string, 0, len(steps))
	sanitizers := map[string]struct{}{}

	var source string

	for _, st := range steps {
		path = append(path, string(st.Node))

		n := g.nodes[st.Node]
		if n == nil {
			continue
		}

		if anyMatch(g.matchers.Sources, n) && source == "" {
			source = n.Name
		}

		if anyMatch(g.matchers.Sanitizers, n) {
			sanitizers[n.Name] = struct{}{}
		}
	}

	if source == "" && len(path) > 0 {
		source = path[0]
	}

	sanitizerList := make([]string, 0, len(sanitizers))
	for s := range sanitizers {
		sanitizerList = append(sanitizerList, s)
	}

	sort.Strings(sanitizerList)

	return Vulnerability{
		Source:         source,
		Sink:           sink.Name,
		Path:           path,
		SanitizersSeen: sanitizerList,
		Truncated:      result.Stats.Truncated,
		Confidence:     confidenceFor(result.Stats.Truncated, len(sanitizerList)),
		Kind:           string(sink.Kind),
	}
}

func confidenceFor(truncated bool, sanitizerCount int) Confidence {
	if truncated {
		return ConfidenceLow
	}

	if sanitizerCount > 0 {
		// A sanitizer-shaped node appeared on the path but did not kill
		// the fact (e.g. its result was discarded, or field-sensitivity
		// missed the tainted field): still a real reach, but worth a
		// human's second look.
		return ConfidenceMedium
	}

	return ConfidenceHigh
}
