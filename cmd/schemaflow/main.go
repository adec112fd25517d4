// Command schemaflow runs one structured completion from the command line.
//
// Usage:
//
//	schemaflow -config config.yaml -model gpt-4o \
//	    -schema contract.json -prompt "Classify: great product!"
//
// With no -schema the reply is returned as plain text.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/schemaflow/completion"
	"github.com/BaSui01/schemaflow/config"
	"github.com/BaSui01/schemaflow/schema"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to the YAML config file")
		model      = flag.String("model", "", "model override (defaults to the configured model)")
		schemaPath = flag.String("schema", "", "path to a JSON Schema file for structured output")
		prompt     = flag.String("prompt", "", "the prompt to send")
		timeout    = flag.Duration("timeout", 2*time.Minute, "overall call timeout")
	)
	flag.Parse()

	if *prompt == "" {
		fmt.Fprintln(os.Stderr, "error: -prompt is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, *model, *schemaPath, *prompt, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, model, schemaPath, prompt string, timeout time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := cfg.BuildLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	provider, err := cfg.BuildProvider(logger)
	if err != nil {
		return err
	}

	opts := &completion.Options{
		AutoHeal:    cfg.Completion.AutoHeal,
		AutoSlice:   cfg.Completion.AutoSlice,
		MaxTokens:   cfg.Completion.MaxTokens,
		Temperature: cfg.Completion.Temperature,
	}
	if schemaPath != "" {
		data, err := os.ReadFile(schemaPath)
		if err != nil {
			return fmt.Errorf("failed to read schema file: %w", err)
		}
		contract, err := schema.FromJSON(data)
		if err != nil {
			return fmt.Errorf("failed to parse schema file: %w", err)
		}
		opts.Schema = contract
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := completion.New(provider, completion.WithLogger(logger))
	resp, err := client.Complete(ctx, model, completion.Text(prompt), opts)
	if err != nil {
		return err
	}

	logger.Info("completion succeeded",
		zap.String("provider", provider.Name()),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	out, err := json.MarshalIndent(resp.Data, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
