// Command alugueis-report writes the downloadable reports for one filter into a
// directory, the same files the dashboard offers.
//
// Usage:
//
//	alugueis-report -out ./relatorios -mes 03 -ano 2025 -apto "Apto 2"
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"alugueis/internal/cli"
	"alugueis/internal/ledger"
	applog "alugueis/internal/log"
	"alugueis/internal/report"
	"alugueis/internal/store/file"
)

func main() {
	out := flag.String("out", "relatorios", "output directory")
	month := flag.String("mes", ledger.All, "month filter (01-12 or Todos)")
	year := flag.String("ano", ledger.All, "year filter (YYYY or Todos)")
	unit := flag.String("apto", ledger.All, "unit filter (Comum, Apto 1..Apto 16 or Todos)")
	only := flag.String("arquivo", "", "write only this artifact")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(applog.ComponentReport)

	if err := run(logger, *out, *month, *year, *unit, *only); err != nil {
		logger.Error("Report generation failed", applog.FieldError, err)
		os.Exit(1)
	}
}

func run(logger *applog.Logger, out, month, year, unit, only string) error {
	f, err := ledger.ParseFilter(month, year, unit)
	if err != nil {
		return err
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	svc, cleanup, err := cli.OpenLedger(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()

	var artifacts []report.Artifact
	if only != "" {
		a, err := svc.Report(ctx, f, only)
		if err != nil {
			return err
		}
		artifacts = append(artifacts, a)
	} else if artifacts, err = svc.Reports(ctx, f); err != nil {
		return err
	}

	dest, err := file.New(out)
	if err != nil {
		return err
	}
	for _, a := range artifacts {
		if err := dest.WriteTable(ctx, a.Name, a.Data); err != nil {
			return fmt.Errorf("write %s: %w", a.Name, err)
		}
		logger.Info("Report written", applog.FieldArtifact, a.Name, applog.FieldBytes, len(a.Data))
	}
	for _, line := range f.Describe() {
		logger.Info("Filter", "line", line)
	}
	return nil
}
