package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jsflow/internal/cache"
	"jsflow/internal/callgraph"
	"jsflow/internal/canon"
	"jsflow/internal/config"
	"jsflow/internal/explain"
	"jsflow/internal/facts"
	"jsflow/internal/frontend"
	"jsflow/internal/llmextractor"
	"jsflow/internal/mangleexport"
	"jsflow/internal/pipeline"
	"jsflow/internal/witness"
)

var (
	analyzeRepo      string
	analyzeTsconfig  string
	analyzeCallGraph string
	analyzeOut       string
	analyzeWitness   string
	analyzeExplain   string
	analyzeMangleOut string
	analyzeConfig    string
	analyzeLLMAPIKey string
	analyzeLLMModel  string
	analyzeLenient   bool
	analyzeStats     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the dataflow pipeline over a project and emit flow facts",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeRepo, "repo", "", "Project root directory of frontend-produced *.ast.json dumps")
	analyzeCmd.Flags().StringVar(&analyzeTsconfig, "tsconfig", "", "Single frontend-produced project manifest file")
	analyzeCmd.Flags().StringVar(&analyzeCallGraph, "callgraph", "", "External call graph JSON (required)")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "Output path for flow-facts JSONL (required)")
	analyzeCmd.Flags().StringVar(&analyzeWitness, "witness", "", "Output path for call-chain witnesses JSONL")
	analyzeCmd.Flags().StringVar(&analyzeExplain, "explain", "", "Output directory for per-function explain bundles")
	analyzeCmd.Flags().StringVar(&analyzeMangleOut, "mangle-out", "", "Output path for flow facts rendered as ground Mangle clauses")
	analyzeCmd.Flags().StringVar(&analyzeConfig, "config", "", "Pipeline configuration YAML file")
	analyzeCmd.Flags().StringVar(&analyzeLLMAPIKey, "llm-api-key", os.Getenv("JSFLOW_LLM_API_KEY"), "API key enabling the optional LLM summary extractor (default: $JSFLOW_LLM_API_KEY)")
	analyzeCmd.Flags().StringVar(&analyzeLLMModel, "llm-model", "", "Model name for the LLM summary extractor")
	analyzeCmd.Flags().BoolVar(&analyzeLenient, "lenient", false, "Use lenient call-graph path resolution instead of strict")
	analyzeCmd.Flags().BoolVar(&analyzeStats, "stats", false, "Print a one-line JSON run summary to stderr")
	analyzeCmd.MarkFlagRequired("callgraph")
	analyzeCmd.MarkFlagRequired("out")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeRepo == "" && analyzeTsconfig == "" {
		return fmt.Errorf("one of --repo or --tsconfig is required")
	}

	cfg, err := config.Load(analyzeConfig)
	if err != nil {
		return err
	}

	program, err := frontend.Load(analyzeRepo, analyzeTsconfig)
	if err != nil {
		return err
	}

	callGraphBytes, cgErr := os.ReadFile(analyzeCallGraph)

	mode := callgraph.Strict
	if analyzeLenient {
		mode = callgraph.Lenient
	}

	var extractor pipeline.Extractor
	if analyzeLLMAPIKey != "" {
		ext, err := llmextractor.New(cmd.Context(), analyzeLLMAPIKey, analyzeLLMModel)
		if err != nil {
			return err
		}
		extractor = ext
	}

	opts := pipeline.Options{
		Program:      program,
		CallGraph:    callGraphBytes,
		CallGraphErr: cgErr,
		Mode:         mode,
		Config:       cfg,
		Cache:        cache.New(cfg.CacheRoot),
		Extractor:    extractor,
		Logger:       logger,
	}

	result, diags, err := pipeline.Run(cmd.Context(), opts)
	if diags.Len() > 0 {
		for _, d := range diags.Sorted() {
			fmt.Fprintf(os.Stderr, "[%s] %s %s:%d-%d %s: %s\n", d.Level, d.Category, d.FilePath, d.Start, d.End, d.SubjectID, d.Message)
		}
	}
	if err != nil {
		return err
	}

	if err := writeFacts(analyzeOut, result.Facts); err != nil {
		return err
	}

	if analyzeWitness != "" {
		if err := writeWitnesses(analyzeWitness, result.Mapped); err != nil {
			return err
		}
	}

	if analyzeExplain != "" {
		if err := writeExplainBundle(analyzeExplain, result.Explain, cfg); err != nil {
			return err
		}
	}

	if analyzeMangleOut != "" {
		if err := writeMangleFacts(analyzeMangleOut, result.Facts); err != nil {
			return err
		}
	}

	if analyzeStats {
		data, err := canon.Marshal(map[string]any{
			"functionCount": result.Stats.FunctionCount,
			"edgeCount":     result.Stats.EdgeCount,
			"factCount":     result.Stats.FactCount,
			"cacheHits":     result.Stats.CacheHits,
			"cacheMisses":   result.Stats.CacheMisses,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, string(data))
	}

	return nil
}

func writeFacts(path string, fs []facts.FlowFact) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()
	return facts.WriteJSONL(f, fs)
}

func writeWitnesses(path string, mapped []callgraph.MappedCallEdge) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create witness file: %w", err)
	}
	defer f.Close()
	return witness.WriteJSONL(f, witness.Build(mapped))
}

func writeMangleFacts(path string, fs []facts.FlowFact) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mangle output file: %w", err)
	}
	defer f.Close()
	return mangleexport.WriteFacts(f, fs)
}

func writeExplainBundle(dir string, entries []pipeline.ExplainEntry, cfg *config.PipelineConfig) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create explain directory: %w", err)
	}
	converted := make([]explain.Entry, 0, len(entries))
	for _, e := range entries {
		converted = append(converted, explain.Entry{
			FuncID: e.FuncID, Hash: e.Hash, IR: e.IR, Summary: e.Summary, Baseline: e.Baseline,
		})
	}
	_, err := explain.WriteBundle(dir, converted, cfg)
	return err
}
