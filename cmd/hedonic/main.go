// Command hedonic compares OLS, elastic-net and random-forest price models on
// a hold-out split of a sold-houses table and predicts a table of new houses
// with the best one.
//
//	hedonic -config cfg.yaml -sold sold.csv -new new.csv -out prices.csv -report report.json
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/YuminosukeSato/hedonic/dataset"
	"github.com/YuminosukeSato/hedonic/pipeline"
	"github.com/YuminosukeSato/hedonic/pkg/errors"
	"github.com/YuminosukeSato/hedonic/pkg/log"
	"github.com/YuminosukeSato/hedonic/tableio"
)

type options struct {
	config   string
	sold     string
	fresh    string
	out      string
	report   string
	logLevel string
	workers  int
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("hedonic", flag.ContinueOnError)
	fs.StringVar(&o.config, "config", "", "YAML configuration (defaults when empty)")
	fs.StringVar(&o.sold, "sold", "", "sold table with the target column (.csv, .gz, .zst, .lz4)")
	fs.StringVar(&o.fresh, "new", "", "table of houses to price")
	fs.StringVar(&o.out, "out", "", "output table of (identifier, predicted price)")
	fs.StringVar(&o.report, "report", "", "optional JSON report with the full ranking")
	fs.StringVar(&o.logLevel, "log-level", "", "overrides log_level from the configuration")
	fs.IntVar(&o.workers, "workers", -1, "overrides workers from the configuration")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.sold == "" {
		return o, errors.NewInvalidArgumentError("hedonic", "sold", "a sold table is required", o.sold)
	}
	if (o.fresh == "") != (o.out == "") {
		return o, errors.NewInvalidArgumentError("hedonic", "out", "-new and -out must be given together", o.out)
	}
	return o, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		log.GetLogger().Error("hedonic failed", log.ErrAttrKey, err)
		fmt.Fprintln(os.Stderr, "hedonic:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := pipeline.LoadConfig(o.config)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.workers >= 0 {
		cfg.Workers = o.workers
	}
	if err := log.SetupLogger(os.Stderr, cfg.LogLevel); err != nil {
		return err
	}

	sold, err := tableio.ReadCSV(o.sold)
	if err != nil {
		return err
	}
	var fresh *dataset.Table
	if o.fresh != "" {
		t, err := tableio.ReadCSV(o.fresh)
		if err != nil {
			return err
		}
		fresh = &t
	}

	rep, err := pipeline.Run(ctx, cfg, sold, fresh)
	if err != nil {
		return err
	}

	if o.out != "" {
		header, rows := rep.PredictionRows(cfg.Schema.Identifier)
		if err := tableio.WriteCSV(o.out, header, rows); err != nil {
			return err
		}
	}
	if o.report != "" {
		if err := writeReport(o.report, rep); err != nil {
			return err
		}
	}
	log.GetLogger().Info("Run finished",
		log.VariantKey, rep.Best.VariantKey,
		log.R2ScoreKey, float64(rep.Best.R2),
		log.DurationMsKey, rep.DurationMs,
	)
	return nil
}

func writeReport(path string, rep *pipeline.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()
	return rep.WriteJSON(f)
}
