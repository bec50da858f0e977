package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"

	"github.com/stacksmith-dev/stacksmith/internal/domain/blueprint"
	"github.com/stacksmith-dev/stacksmith/internal/domain/modifier"
	"github.com/stacksmith-dev/stacksmith/internal/domain/orchestrator"
	"github.com/stacksmith-dev/stacksmith/internal/domain/snapshot"
	"github.com/stacksmith-dev/stacksmith/internal/domain/template"
	"github.com/stacksmith-dev/stacksmith/internal/infrastructure/config"
	"github.com/stacksmith-dev/stacksmith/internal/infrastructure/logging"
)

func main() {
	root := flag.String("root", "", "Project root (overrides STACKSMITH_PROJECT_ROOT)")
	ctxFile := flag.String("context", "", "Template context JSON file")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: stacksmith [flags] blueprint.json|yaml ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.LoadOrDefault()
	if *root != "" {
		cfg.Project.Root = *root
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	values, err := loadContext(*ctxFile)
	if err != nil {
		log.Fatalf("Failed to load context: %v", err)
	}
	tmplCtx := template.NewContext(values)

	parser := blueprint.NewParser()
	var modules []orchestrator.Module
	for _, path := range flag.Args() {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Failed to read blueprint %s: %v", path, err)
		}
		bp, err := parser.ParseFile(path, content)
		if err != nil {
			log.Fatalf("Failed to parse blueprint %s: %v", path, err)
		}
		modules = append(modules, orchestrator.Module{
			ID:        bp.ID,
			Blueprint: bp,
			Context:   tmplCtx,
		})
	}

	opts := []orchestrator.Option{orchestrator.WithManifest(cfg.Project.Manifest)}
	if cfg.Backup.Enabled {
		opts = append(opts, orchestrator.WithSnapshots(
			snapshot.NewStore(cfg.Backup.Dir, logger)))
	}
	orch := orchestrator.New(cfg.Project.Root, modifier.NewDefault(logger), logger, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := orch.Install(ctx, modules)
	printReport(report)
	if err != nil {
		logger.Sync()
		fmt.Fprintf(os.Stderr, "install failed: %v\n", err)
		os.Exit(1)
	}
}

func loadContext(path string) (map[string]interface{}, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var values map[string]interface{}
	if err := sonic.Unmarshal(content, &values); err != nil {
		return nil, fmt.Errorf("invalid context file %s: %w", path, err)
	}
	return values, nil
}

func printReport(report *orchestrator.InstallReport) {
	if report == nil {
		return
	}
	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Printf("✗ %s: %v\n", res.ModuleID, res.Err)
			continue
		}
		s := res.Summary
		fmt.Printf("✓ %s: %d created, %d modified, %d skipped\n",
			res.ModuleID, len(s.Created), len(s.Modified), len(s.Skipped))
		for _, w := range s.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
	}
	for _, id := range report.RolledBack {
		fmt.Printf("↩ rolled back %s\n", id)
	}
	for _, w := range report.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
}
