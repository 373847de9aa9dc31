package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/renjie/cellmatch-core/pkg/adapters/factory"
	"github.com/renjie/cellmatch-core/pkg/adapters/report"
	"github.com/renjie/cellmatch-core/pkg/adapters/store"
	"github.com/renjie/cellmatch-core/pkg/config"
	"github.com/renjie/cellmatch-core/pkg/core/domain"
	"github.com/renjie/cellmatch-core/pkg/core/services"
)

// CLI 命令行定义 (kong)
type CLI struct {
	Config string `short:"c" help:"Path to YAML config file."`

	Group GroupCmd `cmd:"" help:"Select and balance cells from a measurement table."`
	Runs  RunsCmd  `cmd:"" help:"List persisted grouping runs."`
	Show  ShowCmd  `cmd:"" help:"Re-render the report of a persisted run."`
}

// GroupCmd 执行一次完整选配: 摄入 -> 选配 -> 均衡 -> 报告
type GroupCmd struct {
	Input    string `arg:"" help:"Measurement table produced by the cell test bench."`
	Series   int    `short:"s" help:"Number of series groups."`
	Parallel int    `short:"p" help:"Cells per group."`
	Format   string `help:"Input format (csv or json); default inferred from file extension."`
	Report   string `help:"Write the text report to this file instead of stdout."`
	Csv      string `help:"Write the assignment CSV to this file."`
	DB       string `name:"db" help:"SQLite path for run history."`
}

func (g *GroupCmd) Run(ctx context.Context, cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	// 命令行参数覆盖配置文件
	if g.Series > 0 {
		cfg.Series = g.Series
	}
	if g.Parallel > 0 {
		cfg.Parallel = g.Parallel
	}
	if g.Format != "" {
		cfg.Format = g.Format
	}
	if g.DB != "" {
		cfg.DBPath = g.DB
	}

	logger := newLogger(cfg.LogLevel)

	// 1. 摄入成绩单
	format := cfg.Format
	if g.Format == "" {
		if ext := strings.TrimPrefix(filepath.Ext(g.Input), "."); ext != "" {
			format = ext
		}
	}

	var cells []domain.Cell
	ingestor, err := factory.GetIngestorFactory().Create(format, func(_ context.Context, batch []domain.Cell) error {
		cells = append(cells, batch...)
		return nil
	})
	if err != nil {
		return err
	}

	f, err := os.Open(g.Input)
	if err != nil {
		return err
	}
	defer f.Close()

	ingestRes, err := ingestor.IngestBatch(ctx, f, format)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	for _, msg := range ingestRes.Errors {
		logger.Warn("ingest row skipped", "detail", msg)
	}
	logger.Info("ingest complete",
		"total", ingestRes.Total,
		"success", ingestRes.Success,
		"failed", ingestRes.Failed,
		"skipped", ingestRes.Skipped)

	// 2. 构建选配服务（可选运行留痕）
	opts := []services.GrouperOption{services.WithLogger(logger)}
	if cfg.DBPath != "" {
		repo, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open run history db: %w", err)
		}
		defer repo.Close()
		opts = append(opts, services.WithRunRepository(repo))
	}
	grouper := services.NewCoreGrouper(opts...)

	result, err := grouper.GroupCells(ctx, cells, cfg.Series, cfg.Parallel)
	if err != nil {
		return err
	}

	// 3. 渲染输出
	out := os.Stdout
	if g.Report != "" {
		out, err = os.Create(g.Report)
		if err != nil {
			return err
		}
		defer out.Close()
	}
	if err := report.NewTextReporter().Render(out, result); err != nil {
		return err
	}

	if g.Csv != "" {
		cf, err := os.Create(g.Csv)
		if err != nil {
			return err
		}
		defer cf.Close()
		if err := report.NewCsvReporter().Render(cf, result); err != nil {
			return err
		}
	}

	return nil
}

// RunsCmd 列出历史运行
type RunsCmd struct {
	DB    string `name:"db" help:"SQLite path for run history."`
	Limit int    `default:"20" help:"Maximum number of runs to list."`
}

func (r *RunsCmd) Run(ctx context.Context, cli *CLI) error {
	repo, err := openRepo(cli.Config, r.DB)
	if err != nil {
		return err
	}
	defer repo.Close()

	runs, err := repo.ListRuns(ctx, r.Limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tSHAPE\tCELLS\tEXCLUDED\tSPREAD%")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%dS%dP\t%d\t%d\t%.2f\n",
			run.RunID, run.CreatedAt, run.Series, run.Parallel,
			run.CellCount, run.ExcludedCount, run.SpreadPercent)
	}
	return tw.Flush()
}

// ShowCmd 重渲染某次历史运行的报告
type ShowCmd struct {
	RunID string `arg:"" help:"ULID of the run to show."`
	DB    string `name:"db" help:"SQLite path for run history."`
}

func (s *ShowCmd) Run(ctx context.Context, cli *CLI) error {
	repo, err := openRepo(cli.Config, s.DB)
	if err != nil {
		return err
	}
	defer repo.Close()

	result, err := repo.GetRun(ctx, s.RunID)
	if err != nil {
		return err
	}
	return report.NewTextReporter().Render(os.Stdout, result)
}

func openRepo(configPath, dbFlag string) (*store.SqliteRunRepository, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	path := cfg.DBPath
	if dbFlag != "" {
		path = dbFlag
	}
	if path == "" {
		return nil, fmt.Errorf("no run history database configured (set --db or db_path)")
	}
	return store.Open(path)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("cellmatch"),
		kong.Description("Battery cell selection and module balancing for pack assembly."),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Bind(&cli),
		kong.ConfigureHelp(kong.HelpOptions{
			Tree: true,
		}),
		kong.UsageOnError(),
	)
	if err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		parser.FatalIfErrorf(err)
	}

	err = kctx.Run()
	parser.FatalIfErrorf(err)
}
