package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"tradeassist/internal/backtest"
	"tradeassist/internal/config"
	"tradeassist/internal/market"
	"tradeassist/internal/report"
	"tradeassist/internal/store"
	"tradeassist/pkg/logger"
)

const usage = `usage: tradeassist <command> [flags]

commands:
  init    write a default TOML configuration file
  run     run one simulation and print its summary
  batch   run a preset across every symbol in the dataset
  serve   expose the simulation service over HTTP
  report  print, list or delete stored results
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit(os.Args[2:])
	case "run":
		err = cmdRun(os.Args[2:])
	case "batch":
		err = cmdBatch(os.Args[2:])
	case "serve":
		err = cmdServe(os.Args[2:])
	case "report":
		err = cmdReport(os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Errorf("%s: %v", os.Args[1], err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "tradeassist.toml", "where to write the configuration")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := os.Stat(*configPath); err == nil {
		return fmt.Errorf("%s already exists", *configPath)
	}
	if err := config.SaveApp(*configPath, config.DefaultApp()); err != nil {
		return err
	}
	fmt.Println("configuration written to", *configPath)
	return nil
}

// bootstrap loads file and environment configuration, initializes logging
// and opens the dataset plus the optional result store.
func bootstrap(configPath string) (config.App, market.Dataset, backtest.ResultSink, func(), error) {
	app, err := config.LoadApp(configPath)
	if err != nil {
		return app, nil, nil, nil, err
	}
	env, err := config.LoadEnv()
	if err != nil {
		return app, nil, nil, nil, err
	}
	app = env.Apply(app)

	if err := logger.Init(app.Logging.Level, app.Logging.Env); err != nil {
		return app, nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	ds, err := market.LoadJSON(app.Data.DatasetPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// run -csv can still inject a series by hand
		ds = market.Dataset{}
	case err != nil:
		return app, nil, nil, nil, fmt.Errorf("load dataset: %w", err)
	}

	cleanup := func() {}
	var sink backtest.ResultSink
	if app.Data.StorePath != "" {
		db, err := store.Open(app.Data.StorePath)
		if err != nil {
			return app, nil, nil, nil, fmt.Errorf("open store: %w", err)
		}
		sink = db
		cleanup = func() { _ = db.Close() }
	} else {
		sink = store.NewMemoryStore()
	}
	return app, ds, sink, cleanup, nil
}

func resolveConfig(app config.App, preset, symbol, tf string, tp, sl float64, start int) (backtest.Config, error) {
	var cfg backtest.Config
	if preset != "" {
		pw := config.NewPresetWriter(app.Data.PresetsPath)
		loaded, err := pw.Get(preset)
		if err != nil {
			if names, nerr := pw.Names(); nerr == nil && len(names) > 0 {
				return cfg, fmt.Errorf("%w (available: %s)", err, strings.Join(names, ", "))
			}
			return cfg, err
		}
		cfg = loaded
	}
	if symbol != "" {
		cfg.Symbol = symbol
	}
	if tf != "" {
		cfg.Timeframe = tf
	}
	if tp > 0 {
		cfg.TargetProfitPercent = tp
	}
	if sl > 0 {
		cfg.StopLossPercent = sl
	}
	if start > 0 {
		cfg.StartIndex = start
	}
	if cfg.Symbol == "" {
		return cfg, fmt.Errorf("symbol is required (flag or preset)")
	}
	return cfg, nil
}

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "tradeassist.toml", "path to the TOML configuration")
	preset := fs.String("preset", "", "named preset to start from")
	symbol := fs.String("symbol", "", "symbol to replay")
	tf := fs.String("tf", "5", "timeframe in minutes")
	tp := fs.Float64("tp", 0, "target profit percent override")
	sl := fs.Float64("sl", 0, "stop loss percent override")
	start := fs.Int("start", 0, "bar index to start evaluating from")
	csvPath := fs.String("csv", "", "CSV file used as the candle series for -symbol")
	exportCSV := fs.String("export-csv", "", "write the candle series the run used to a CSV file")
	savePreset := fs.String("save-preset", "", "store the fully resolved config under this preset name")
	showTrades := fs.Bool("trades", false, "print the per-trade table")
	chart := fs.Bool("chart", false, "render the HTML chart")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, ds, sink, cleanup, err := bootstrap(*configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, err := resolveConfig(app, *preset, *symbol, *tf, *tp, *sl, *start)
	if err != nil {
		return err
	}

	if *csvPath != "" {
		h, err := market.LoadCSV(*csvPath)
		if err != nil {
			return err
		}
		if ds[cfg.Symbol] == nil {
			ds[cfg.Symbol] = map[string]market.History{}
		}
		ds[cfg.Symbol][cfg.Timeframe] = h
	}

	svc, err := backtest.NewService(backtest.ServiceConfig{Data: ds, Sink: sink})
	if err != nil {
		return err
	}
	res, err := svc.Run(signalContext(), cfg)
	if err != nil {
		return err
	}

	report.WriteSummary(os.Stdout, res)
	if *showTrades {
		report.WriteTrades(os.Stdout, res)
	}
	if *savePreset != "" {
		pw := config.NewPresetWriter(app.Data.PresetsPath)
		if err := pw.Put(*savePreset, res.Config); err != nil {
			return err
		}
		fmt.Println("preset saved as", *savePreset)
	}
	if *exportCSV != "" {
		h, err := ds.Timeframe(cfg.Symbol, cfg.Timeframe)
		if err != nil {
			return err
		}
		f, err := os.Create(*exportCSV)
		if err != nil {
			return err
		}
		if err := market.WriteCSV(f, h); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Println("series written to", *exportCSV)
	}
	if *chart {
		h, err := ds.Timeframe(cfg.Symbol, cfg.Timeframe)
		if err != nil {
			return err
		}
		path := filepath.Join(app.Report.OutputDir, fmt.Sprintf("%s_%s.html", cfg.Symbol, res.ID))
		if err := report.WriteChart(path, &h, res); err != nil {
			return err
		}
		fmt.Println("chart written to", path)
	}
	return nil
}

func cmdBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	configPath := fs.String("config", "tradeassist.toml", "path to the TOML configuration")
	preset := fs.String("preset", "", "named preset applied to every symbol")
	tf := fs.String("tf", "5", "timeframe in minutes")
	concurrency := fs.Int("concurrency", 4, "parallel simulations")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, ds, sink, cleanup, err := bootstrap(*configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	var base backtest.Config
	if *preset != "" {
		pw := config.NewPresetWriter(app.Data.PresetsPath)
		base, err = pw.Get(*preset)
		if err != nil {
			return err
		}
	}

	var cfgs []backtest.Config
	for symbol, tfs := range ds {
		if _, ok := tfs[*tf]; !ok {
			continue
		}
		cfg := base
		cfg.Symbol = symbol
		cfg.Timeframe = *tf
		cfgs = append(cfgs, cfg)
	}
	if len(cfgs) == 0 {
		return fmt.Errorf("no symbol in the dataset carries timeframe %s", *tf)
	}

	svc, err := backtest.NewService(backtest.ServiceConfig{Data: ds, Sink: sink})
	if err != nil {
		return err
	}
	results, err := svc.RunBatch(signalContext(), cfgs, *concurrency)
	if err != nil {
		return err
	}
	report.WriteBatch(os.Stdout, results)
	return nil
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "tradeassist.toml", "path to the TOML configuration")
	addr := fs.String("addr", "", "listen address override")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, ds, sink, cleanup, err := bootstrap(*configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if *addr != "" {
		app.Server.Addr = *addr
	}

	svc, err := backtest.NewService(backtest.ServiceConfig{Data: ds, Sink: sink})
	if err != nil {
		return err
	}
	srv, err := backtest.NewHTTPServer(backtest.HTTPConfig{Addr: app.Server.Addr, Svc: svc})
	if err != nil {
		return err
	}

	logger.Infof("serving on %s", app.Server.Addr)
	return srv.Start(signalContext())
}

func cmdReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	configPath := fs.String("config", "tradeassist.toml", "path to the TOML configuration")
	id := fs.String("id", "", "stored result id")
	list := fs.Bool("list", false, "list stored results")
	del := fs.String("delete", "", "delete the stored result with this id")
	showTrades := fs.Bool("trades", false, "print the per-trade table")
	chart := fs.Bool("chart", false, "render the HTML chart")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" && !*list && *del == "" {
		return fmt.Errorf("one of -id, -list or -delete is required")
	}

	app, ds, sink, cleanup, err := bootstrap(*configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if *list || *del != "" {
		rs, ok := sink.(store.ResultStore)
		if !ok {
			return fmt.Errorf("result store does not support listing")
		}
		if *del != "" {
			if err := rs.Delete(signalContext(), *del); err != nil {
				return err
			}
			fmt.Println("deleted", *del)
		}
		if *list {
			metas, err := rs.List(signalContext())
			if err != nil {
				return err
			}
			report.WriteResultList(os.Stdout, metas)
		}
		return nil
	}

	res, err := sink.Load(signalContext(), *id)
	if err != nil {
		return err
	}

	report.WriteSummary(os.Stdout, res)
	if *showTrades {
		report.WriteTrades(os.Stdout, res)
	}
	if *chart {
		h, err := ds.Timeframe(res.Symbol, res.Timeframe)
		if err != nil {
			return err
		}
		path := filepath.Join(app.Report.OutputDir, fmt.Sprintf("%s_%s.html", res.Symbol, res.ID))
		if err := report.WriteChart(path, &h, res); err != nil {
			return err
		}
		fmt.Println("chart written to", path)
	}
	return nil
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx
}
