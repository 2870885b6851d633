package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joseph-ayodele/jobfit/internal/app"
	"github.com/joseph-ayodele/jobfit/internal/common"
	"github.com/joseph-ayodele/jobfit/internal/export"
	"github.com/joseph-ayodele/jobfit/internal/ingest"
	"github.com/joseph-ayodele/jobfit/internal/repository"
)

const usage = `usage: jobfit <command> [flags]

commands:
  extract <file.html>            print the extracted job record, nothing is stored
  process [-key K] <file.html>   extract, evaluate and store one posting
  ingest  -dir D [-out X.xlsx]   process every .html/.htm file under D
  export  -out X.xlsx [-limit N] write stored applications to a workbook
  list    [-limit N]             print stored applications as JSON
`

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	if len(os.Args) < 2 {
		printError("%s", usage)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig()
	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "extract":
		err = runExtract(ctx, cfg, logger, args)
	case "process":
		err = runProcess(ctx, cfg, logger, args)
	case "ingest":
		err = runIngest(ctx, cfg, logger, args)
	case "export":
		err = runExport(ctx, cfg, logger, args)
	case "list":
		err = runList(ctx, cfg, logger, args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		printError("unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		printError("Error: %v\n", err)
		if code := common.CodeOf(err); code != "" {
			printError("code: %s\n", code)
		}
		os.Exit(1)
	}
}

func runExtract(ctx context.Context, cfg *common.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	raw := fs.Bool("raw", false, "print the normalized model output instead of the decoded record")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("extract needs exactly one file")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	b, err := ingest.ReadPosting(fs.Arg(0))
	if err != nil {
		return err
	}
	_, stage, _, err := app.Stages(ctx, cfg, logger)
	if err != nil {
		return err
	}
	rec, canonical, err := stage.Extract(ctx, string(b))
	if err != nil {
		return err
	}
	if *raw {
		fmt.Println(string(canonical))
		return nil
	}
	return printJSON(rec)
}

func runProcess(ctx context.Context, cfg *common.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	key := fs.String("key", "", "idempotency key (default: SHA-256 of the file)")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("process needs exactly one file")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	b, err := ingest.ReadPosting(fs.Arg(0))
	if err != nil {
		return err
	}
	if *key == "" {
		*key = ingest.KeyFor(b)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.Processor.Process(ctx, *key, string(b))
	if err != nil {
		return err
	}
	return printJSON(out)
}

func runIngest(ctx context.Context, cfg *common.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	dir := fs.String("dir", "", "directory of postings (required)")
	out := fs.String("out", "", "also export stored applications to this XLSX file")
	hidden := fs.Bool("hidden", false, "include hidden files and directories")
	_ = fs.Parse(args)
	if *dir == "" {
		return fmt.Errorf("--dir is required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	results, stats, err := ingest.NewDirIngestor(a.Processor, logger).IngestDirectory(ctx, *dir, !*hidden)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != "" {
			printError("- %s: %s\n", r.Path, r.Err)
		}
	}

	fmt.Printf("Ingest complete!\n")
	fmt.Printf("- Matched: %d\n", stats.Matched)
	fmt.Printf("- Stored: %d\n", stats.Succeeded)
	fmt.Printf("- Already processed: %d\n", stats.Skipped)
	fmt.Printf("- Failures: %d\n", stats.Failed)

	if *out == "" {
		return nil
	}
	return writeExport(ctx, a.Exporter, *out, repository.MaxListLimit)
}

func runExport(ctx context.Context, cfg *common.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "applications.xlsx", "output XLSX path")
	limit := fs.Int("limit", repository.MaxListLimit, "most recent applications to include")
	_ = fs.Parse(args)

	db, err := app.OpenDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	svc := export.NewService(repository.NewApplicationRepository(db, logger), logger)
	return writeExport(ctx, svc, *out, *limit)
}

func runList(ctx context.Context, cfg *common.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("limit", repository.DefaultListLimit, "most recent applications to print")
	_ = fs.Parse(args)

	db, err := app.OpenDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	apps, err := repository.NewApplicationRepository(db, logger).ListRecent(ctx, *limit)
	if err != nil {
		return err
	}
	return printJSON(apps)
}

func writeExport(ctx context.Context, svc *export.Service, out string, limit int) error {
	b, err := svc.ExportApplicationsXLSX(ctx, limit)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(out, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Printf("- Output: %s\n", out)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
