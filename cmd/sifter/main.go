// Copyright 2025 Sifter Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/sifterlabs/sifter"
	"github.com/sifterlabs/sifter/ai"
	"github.com/sifterlabs/sifter/batch"
	"github.com/sifterlabs/sifter/extract"
)

func main() {
	app := &cli.App{
		Name:  "sifter",
		Usage: "Distill interview transcripts into structured insight reports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Analyze transcript files and write an insight report",
				ArgsUsage: "FILE...",
				Action:    analyzeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "host",
						Usage: "OpenAI-compatible service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "Generation model name",
						Value: "qwen2.5:3b",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name, used when --focus is set",
						Value: "embeddinggemma",
					},
					&cli.StringFlag{
						Name:  "token",
						Usage: "API token for the model service",
						Value: "none",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file, - for stdout",
						Value:   "-",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format (markdown, json)",
						Value: "markdown",
					},
					&cli.StringFlag{
						Name:  "focus",
						Usage: "Rank excerpts against this query before analysis",
					},
					&cli.IntFlag{
						Name:  "top",
						Usage: "Keep only the N most relevant excerpts (requires --focus)",
					},
					&cli.StringFlag{
						Name:  "cache",
						Usage: "Response cache directory, empty disables caching",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of excerpts per model call",
						Value: batch.DefaultBatchSize,
					},
					&cli.DurationFlag{
						Name:  "batch-delay",
						Usage: "Pause between batches",
						Value: batch.DefaultBatchDelay,
					},
					&cli.DurationFlag{
						Name:  "failure-delay",
						Usage: "Base delay for retry backoff",
						Value: batch.DefaultFailureDelay,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts per batch",
						Value: batch.DefaultMaxRetries,
					},
					&cli.BoolFlag{
						Name:  "no-batching",
						Usage: "Send all excerpts in a single model call",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func analyzeCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one transcript file is required")
	}

	docs, err := loadDocuments(c.Args().Slice())
	if err != nil {
		return err
	}

	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithGeneratorModel(c.String("model")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithToken(c.String("token")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	batchConfig := batch.DefaultConfig()
	batchConfig.SetBatchSize(c.Int("batch-size"))
	batchConfig.SetBatchDelay(c.Duration("batch-delay"))
	batchConfig.SetFailureDelay(c.Duration("failure-delay"))
	batchConfig.SetMaxRetries(c.Int("max-retries"))
	batchConfig.EnableBatching = !c.Bool("no-batching")

	opts := []sifter.EngineOption{
		sifter.WithAIConfig(aiConfig),
		sifter.WithBatchConfig(batchConfig),
	}
	if focus := c.String("focus"); focus != "" {
		opts = append(opts, sifter.WithFocus(focus))
		if top := c.Int("top"); top > 0 {
			opts = append(opts, sifter.WithTopExcerpts(top))
		}
	}
	if cachePath := c.String("cache"); cachePath != "" {
		opts = append(opts, sifter.WithCachePath(cachePath))
	}

	engine, err := sifter.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer engine.Close()

	fmt.Fprintf(os.Stderr, "Transcripts: %d\n", len(docs))
	fmt.Fprintf(os.Stderr, "Host: %s\n", aiConfig.GeneratorHost)
	fmt.Fprintf(os.Stderr, "Model: %s\n", aiConfig.GeneratorModel)
	fmt.Fprintln(os.Stderr)

	start := time.Now()
	result, err := engine.Run(context.Background(), docs)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	failed := 0
	for _, ex := range result.Excerpts {
		if ex.Error != "" {
			failed++
		}
	}
	fmt.Fprintf(os.Stderr, "Analyzed %d excerpts (%d failed) in %s\n",
		len(result.Excerpts), failed, time.Since(start).Round(time.Millisecond))

	return writeOutput(c.String("output"), c.String("format"), result)
}

func loadDocuments(paths []string) ([]extract.Document, error) {
	docs := make([]extract.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		docs = append(docs, extract.Document{
			Name: path,
			Text: string(data),
		})
	}
	return docs, nil
}

func writeOutput(path, format string, result *sifter.RunResult) error {
	var content string
	switch strings.ToLower(format) {
	case "markdown", "md":
		content = result.Markdown
	case "json":
		content = result.JSON
	default:
		return fmt.Errorf("invalid format %q: must be markdown or json", format)
	}

	if path == "-" {
		_, err := fmt.Print(content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
