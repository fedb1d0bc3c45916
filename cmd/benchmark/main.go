// ABOUTME: Command-line benchmark runner for RAGAS tests
// ABOUTME: Runs scenarios offline by default, or against the configured provider with -live

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/harper/edurag/benchmarks/ragas"
	"github.com/harper/edurag/internal/config"
	"github.com/harper/edurag/internal/core"
	"github.com/harper/edurag/internal/llm"
	"github.com/harper/edurag/internal/logging"
	"github.com/joho/godotenv"
)

func main() {
	testID := flag.String("test", "", "Run specific test by ID. If empty, runs all tests.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	live := flag.Bool("live", false, "Use the configured embedding and generative services instead of offline stand-ins")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := logging.New(nil, level)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("========================================")
	fmt.Println("EduRAG RAGAS Benchmarks")
	fmt.Println("========================================")
	fmt.Println()

	runner := ragas.NewOfflineRunner(logger, *verbose)
	if *live {
		cfg, err := config.Load()
		if err != nil {
			logger.Fatal("failed to load config", "err", err)
		}
		client, err := llm.New(ctx, cfg)
		if err != nil {
			logger.Fatal("failed to create LLM client", "provider", cfg.Provider, "err", err)
		}
		runner = ragas.NewBenchmarkRunner(client, client, core.PipelineConfigFrom(cfg), logger, *verbose)
		fmt.Printf("Mode: live (%s)\n\n", cfg.Provider)
	} else {
		fmt.Printf("Mode: offline\n\n")
	}

	var results []ragas.TestResult
	var err error

	if *testID == "" {
		fmt.Println("Running all RAGAS benchmark tests...")
		fmt.Println()

		results, err = runner.RunAllTests(ctx)
		if err != nil {
			logger.Fatal("benchmark failed", "err", err)
		}
	} else {
		scenario, ok := ragas.GetTest(*testID)
		if !ok {
			ids := make([]string, 0)
			for _, s := range ragas.GetAllTests() {
				ids = append(ids, s.ID)
			}
			logger.Fatal("unknown test ID", "id", *testID, "valid", strings.Join(ids, ", "))
		}

		fmt.Printf("Running test: %s\n\n", scenario.Name)

		result, err := runner.RunTest(ctx, scenario)
		if err != nil {
			logger.Fatal("test failed", "id", scenario.ID, "err", err)
		}
		results = []ragas.TestResult{result}
	}

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	passed := 0
	failed := 0

	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.TestID, result.TestName)
		fmt.Printf("  State: %s\n", result.State)
		fmt.Printf("  Faithfulness: %.2f\n", result.FaithfulnessScore)
		fmt.Printf("  Context Recall: %.2f\n", result.ContextRecallScore)
		fmt.Printf("  Sources: %.2f\n", result.SourceScore)
		fmt.Printf("  Overall: %.2f\n", result.OverallScore)
		fmt.Printf("  Status: %s\n", result.Status)

		if result.Status == "PASS" {
			passed++
		} else {
			failed++
		}
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total Tests: %d\n", len(results))
	fmt.Printf("Passed: %d\n", passed)
	fmt.Printf("Failed: %d\n", failed)
	fmt.Println("========================================")

	if err := runner.ExportResults(results, *outputPath); err != nil {
		logger.Fatal("failed to export results", "err", err)
	}
	fmt.Printf("Results exported to: %s\n", *outputPath)

	if failed > 0 {
		os.Exit(1)
	}
}
