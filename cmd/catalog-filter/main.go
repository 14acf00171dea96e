// Command catalog-filter runs the product filter over catalog files.
//
//	catalog-filter -dietary vegan,gluten-free -max-price 10 catalog1.json catalog2.json.gz
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

func main() {
	var opts options
	flag.StringVar(&opts.dietary, "dietary", "", "comma-separated dietary tags every product must carry")
	flag.StringVar(&opts.maxPrice, "max-price", "", "inclusive price ceiling")
	flag.IntVar(&opts.minRating, "min-rating", 0, "minimum seller rating (0-5)")
	flag.Float64Var(&opts.maxDistanceKm, "max-distance", -1, "max distance in km from -lat/-lon (negative = any)")
	flag.StringVar(&opts.lat, "lat", "", "observer latitude")
	flag.StringVar(&opts.lon, "lon", "", "observer longitude")
	flag.IntVar(&opts.workers, "workers", 4, "files decoded in parallel")
	flag.UintVar(&opts.expected, "expected", 100_000, "expected number of products per file (sizes the dedupe filters)")
	out := flag.String("o", "", "output file (default stdout)")
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] FILE...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	opts.files = flag.Args()

	lg, err := zap.NewDevelopment()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, opts, *out); err != nil {
		lg.Error("Catalog filter failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, lg *zap.Logger, opts options, outPath string) error {
	if len(opts.files) == 0 {
		return errors.New("at least one catalog file is required")
	}
	c, observer, err := opts.criteria()
	if err != nil {
		return errors.Wrap(err, "parse flags")
	}

	products, st, err := collect(ctx, lg, opts.files, opts.workers, opts.expected, c, observer)
	if err != nil {
		return err
	}
	lg.Info("Filter complete",
		zap.Int("files", len(opts.files)),
		zap.Int("read", st.read),
		zap.Int("duplicates", st.duplicates),
		zap.Int("candidates", st.candidates),
		zap.Int("matched", len(products)),
	)

	if outPath == "" {
		if err := writeProducts(os.Stdout, products); err != nil {
			return errors.Wrap(err, "write output")
		}
		return nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	if err := writeOutput(f, products); err != nil {
		return errors.Wrap(err, "write output")
	}
	return nil
}
