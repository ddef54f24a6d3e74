// Package pipeline wires the indexers, IR builder, cheap pass, summary
// normalizer, content-addressed cache, call-graph mapper, and fixpoint driver
// into the single "analyze" operation spec.md §6 describes. cmd/jsflow is a
// thin Cobra shell around Run, matching the teacher's pattern of keeping
// runCheckMangle/checkFile (cmd_mangle_check.go) independently testable
// functions called from a one-line RunE.
package pipeline

import (
	"context"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jsflow/internal/astmodel"
	"jsflow/internal/cache"
	"jsflow/internal/callgraph"
	"jsflow/internal/cheappass"
	"jsflow/internal/config"
	"jsflow/internal/diagnostics"
	"jsflow/internal/facts"
	"jsflow/internal/fixpoint"
	"jsflow/internal/ids"
	"jsflow/internal/index"
	"jsflow/internal/ir"
	"jsflow/internal/logging"
	"jsflow/internal/summary"
)

// Extractor is the optional external summary extractor from spec.md §4.7: a
// source of additional dependency edges beyond the cheap pass's baseline, for
// a function that was not already satisfied from cache. Edges it returns are
// merged into the summary before summary.Normalize runs, so they are subject
// to the exact same validation and bounding as the baseline itself. Disabled
// by leaving Options.Extractor nil (internal/llmextractor.Extractor is the
// one concrete implementation, and the CLI only constructs it when an API key
// is configured).
type Extractor interface {
	Extract(ctx context.Context, fn *ir.FuncIR, baseline *cheappass.Result) ([]cheappass.Edge, error)
}

// Options bundles one analyze run's inputs.
type Options struct {
	Program      astmodel.Program
	CallGraph    []byte
	CallGraphErr error // non-nil (e.g. missing file) is returned as an IO error before any other stage runs
	Mode         callgraph.Mode
	Config       *config.PipelineConfig
	Cache        *cache.Cache
	Extractor    Extractor
	Logger       *zap.Logger
}

// Stats is the ambient --stats summary (SPEC_FULL.md's supplemented flag).
type Stats struct {
	FunctionCount int `json:"functionCount"`
	EdgeCount     int `json:"edgeCount"`
	FactCount     int `json:"factCount"`
	CacheHits     int `json:"cacheHits"`
	CacheMisses   int `json:"cacheMisses"`
}

// ExplainEntry is one function's data for an explain bundle (internal/explain),
// left for the caller to write since output file I/O is a CLI concern
// (spec.md §1's external "output file I/O beyond canonical serialization").
type ExplainEntry struct {
	FuncID   string
	Hash     string
	IR       *ir.FuncIR
	Summary  *summary.Summary
	Baseline *cheappass.Result
}

// Result bundles everything one analyze run produces: the final flow facts,
// the mapped call graph (for internal/witness), per-function explain data,
// and run statistics.
type Result struct {
	Facts   []facts.FlowFact
	Mapped  []callgraph.MappedCallEdge
	Explain []ExplainEntry
	Stats   Stats
}

// funcResult is one function's per-function pipeline output, computed
// independently of every other function so the fan-out stage can shard freely.
type funcResult struct {
	id       ids.FuncId
	fn       *ir.FuncIR
	baseline *cheappass.Result
	summary  *summary.Summary
	cacheHit bool
}

// Run executes the full analyze pipeline and returns the final deduplicated
// FlowFact set plus run statistics. Diagnostics collected in lenient mode are
// returned via *diagnostics.List even on success; callers (cmd/jsflow) decide
// whether to print them.
func Run(ctx context.Context, opts Options) (*Result, *diagnostics.List, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	diags := diagnostics.NewList()

	if opts.CallGraphErr != nil {
		return nil, diags, diagnostics.Wrap(diagnostics.IO, "callgraph", opts.CallGraphErr)
	}

	idx, err := index.Build(opts.Program)
	if err != nil {
		return nil, diags, diagnostics.Wrap(diagnostics.InvariantViolation, "program", err)
	}
	all := idx.Functions.All()
	logging.Stage(logger, "index").Info("indexed functions", zap.Int("func_count", len(all)))

	results, err := shardCompute(ctx, all, idx, opts)
	if err != nil {
		return nil, diags, err
	}

	graph, err := callgraph.ParseExternalGraph(opts.CallGraph)
	if err != nil {
		return nil, diags, diagnostics.Wrap(diagnostics.SchemaViolation, "callgraph", err)
	}
	mapped, cgDiags, err := callgraph.Map(graph, idx.Functions, idx.Callsites, opts.Mode)
	diags.Merge(cgDiags)
	if err != nil {
		return nil, diags, err
	}
	logging.Stage(logger, "callgraph").Info("mapped call edges", zap.Int("edge_count", len(mapped)))

	in := fixpoint.Inputs{
		CallEdges: mapped,
		IR:        make(map[ids.FuncId]*ir.FuncIR, len(results)),
		Baseline:  make(map[ids.FuncId]*cheappass.Result, len(results)),
		Summaries: make(map[ids.FuncId]*summary.Summary, len(results)),
	}
	cacheHits, cacheMisses := 0, 0
	edgeCount := 0
	explainEntries := make([]ExplainEntry, 0, len(results))
	for _, r := range results {
		in.IR[r.id] = r.fn
		in.Baseline[r.id] = r.baseline
		in.Summaries[r.id] = r.summary
		edgeCount += len(r.summary.Edges)
		if r.cacheHit {
			cacheHits++
		} else {
			cacheMisses++
		}
		hash, err := cache.Key(opts.Config.AnalysisConfigVersion, r.fn)
		if err != nil {
			return nil, diags, diagnostics.Wrap(diagnostics.IO, r.id.String(), err)
		}
		explainEntries = append(explainEntries, ExplainEntry{
			FuncID: r.id.String(), Hash: hash, IR: r.fn, Summary: r.summary, Baseline: r.baseline,
		})
	}

	start := time.Now()
	out, err := fixpoint.Run(in, opts.Config)
	if err != nil {
		return nil, diags, err
	}
	logging.Stage(logger, "fixpoint").Info("fixpoint converged",
		zap.Int("edge_count", len(out)), logging.DurationMS(time.Since(start).Milliseconds()))

	stats := Stats{
		FunctionCount: len(all),
		EdgeCount:     edgeCount,
		FactCount:     len(out),
		CacheHits:     cacheHits,
		CacheMisses:   cacheMisses,
	}
	return &Result{Facts: out, Mapped: mapped, Explain: explainEntries, Stats: stats}, diags, nil
}

// shardCompute runs IR build, the cheap pass, cache lookup, and summary
// normalization for every function, fanning the independent per-function work
// out across a bounded worker pool (spec.md §5: "may shard IR construction
// and cheap-pass computation across worker threads... outputs merged via
// canonical sort"). Results are returned sorted by FuncId regardless of
// completion order.
func shardCompute(ctx context.Context, all []index.FunctionEntry, idx *index.Indices, opts Options) ([]funcResult, error) {
	results := make([]funcResult, len(all))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, fn := range all {
		i, fn := i, fn
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			r, err := computeOne(gctx, fn, idx.Statements, opts)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return ids.CmpFuncID(results[i].id, results[j].id) < 0 })
	return results, nil
}

func computeOne(ctx context.Context, fn index.FunctionEntry, stmtIdx *index.StatementIndex, opts Options) (funcResult, error) {
	funcIR, err := ir.Build(fn, stmtIdx)
	if err != nil {
		return funcResult{}, diagnostics.Wrap(diagnostics.InvariantViolation, fn.ID.String(), err)
	}
	if err := ir.Normalize(funcIR); err != nil {
		return funcResult{}, diagnostics.Wrap(diagnostics.InvariantViolation, fn.ID.String(), err)
	}

	baseline, err := cheappass.Run(funcIR, opts.Config)
	if err != nil {
		return funcResult{}, err
	}

	buildSummary := func() (*summary.Summary, error) {
		s := summary.FromBaseline(funcIR.FuncID, baseline)
		if opts.Extractor != nil {
			extra, err := opts.Extractor.Extract(ctx, funcIR, baseline)
			if err != nil {
				return nil, diagnostics.Wrap(diagnostics.IO, fn.ID.String(), err)
			}
			s.Edges = append(s.Edges, extra...)
		}
		if err := summary.Normalize(s, funcIR, baseline, opts.Config); err != nil {
			return nil, err
		}
		return s, nil
	}

	var s *summary.Summary
	cacheHit := false
	if opts.Cache != nil {
		key, err := cache.Key(opts.Config.AnalysisConfigVersion, funcIR)
		if err != nil {
			return funcResult{}, diagnostics.Wrap(diagnostics.IO, fn.ID.String(), err)
		}
		cached, hit, err := opts.Cache.Get(key)
		if err != nil {
			return funcResult{}, err
		}
		if hit {
			s, cacheHit = cached, true
		} else {
			s, err = buildSummary()
			if err != nil {
				return funcResult{}, err
			}
			if err := opts.Cache.Put(key, s); err != nil {
				return funcResult{}, err
			}
		}
	} else {
		s, err = buildSummary()
		if err != nil {
			return funcResult{}, err
		}
	}

	return funcResult{id: funcIR.FuncID, fn: funcIR, baseline: baseline, summary: s, cacheHit: cacheHit}, nil
}
