package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/wippyai/binpack"
	"github.com/wippyai/binpack/codec"
	"github.com/wippyai/binpack/metrics"
)

type options struct {
	fixtures     string
	typ          string
	format       string
	compare      bool
	stats        bool
	interactive  bool
	maxLength    int
	validateUTF8 bool
	log          logOptions
	names        []string
}

func main() {
	var o options
	flags := pflag.NewFlagSet("binpack", pflag.ContinueOnError)
	flags.StringVarP(&o.fixtures, "fixtures", "f", "", "YAML fixture file (built-in samples when empty)")
	flags.StringVarP(&o.typ, "type", "t", "", "Only fixtures of this sample type ("+strings.Join(sampleTypeNames(), ", ")+")")
	flags.StringVar(&o.format, "format", "hex", "Output format: hex, raw or none")
	flags.BoolVarP(&o.compare, "compare", "c", false, "Compare encoded size with CBOR, JSON and protobuf")
	flags.BoolVar(&o.stats, "stats", false, "Print registry metrics after encoding")
	flags.BoolVarP(&o.interactive, "interactive", "i", false, "Interactive mode with TUI")
	flags.IntVar(&o.maxLength, "max-length", 0, "Largest count accepted on decode (0 for the default)")
	flags.BoolVar(&o.validateUTF8, "validate-utf8", false, "Reject invalid UTF-8 text on decode")
	flags.StringVar(&o.log.Level, "log-level", "warn", "Log level: debug, info, warn, error")
	flags.StringVar(&o.log.Format, "log-format", "console", "Log format: console or json")
	flags.StringVar(&o.log.File, "log-file", "", "Write logs to a rotated file instead of stderr")
	verbose := flags.BoolP("verbose", "v", false, "Shorthand for --log-level=debug")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: binpack [flags] [fixture...]")
		fmt.Fprintln(os.Stderr, "       binpack -f fixtures.yaml -c")
		fmt.Fprintln(os.Stderr, "       binpack -i  (interactive mode)")
		fmt.Fprintln(os.Stderr)
		flags.PrintDefaults()
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		os.Exit(2)
	}
	if *verbose {
		o.log.Level = "debug"
	}
	o.names = flags.Args()

	if err := run(o, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(o options, out io.Writer) error {
	logger, err := newLogger(o.log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	reg := codec.NewRegistryWithConfig(codec.Config{
		Logger:       logger,
		MaxLength:    o.maxLength,
		ValidateUTF8: o.validateUTF8,
	})
	engine := binpack.With(reg)

	all, err := loadFixtures(o.fixtures)
	if err != nil {
		return err
	}
	selected, err := selectFixtures(all, o.typ, o.names)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return fmt.Errorf("no fixtures selected")
	}

	if o.interactive {
		return runInteractive(engine, selected)
	}

	switch o.format {
	case "raw":
		if len(selected) != 1 {
			return fmt.Errorf("raw output needs exactly one fixture, have %d", len(selected))
		}
		return engine.MarshalTo(out, selected[0].Value)
	case "hex", "none":
	default:
		return fmt.Errorf("unknown format %q", o.format)
	}

	perLine := bytesPerLine(terminalWidth())
	for i, f := range selected {
		r, err := inspect(engine, f, o.compare)
		if err != nil {
			return err
		}
		logger.Debug("inspected fixture",
			zap.String("name", f.Name),
			zap.String("codec", r.Codec),
			zap.Int("bytes", len(r.Data)))

		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, r.header())
		if o.format == "hex" {
			fmt.Fprint(out, hexDump(r.Data, perLine))
		}
		if o.compare {
			fmt.Fprint(out, r.sizeTable())
		}
	}

	if o.stats {
		return writeStats(out, reg)
	}
	return nil
}

// writeStats renders the registry collector in the Prometheus text format.
func writeStats(out io.Writer, reg *codec.Registry) error {
	preg := prometheus.NewRegistry()
	if err := preg.Register(metrics.NewCollector(reg, "binpack", nil)); err != nil {
		return err
	}
	families, err := preg.Gather()
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return err
		}
	}
	return nil
}
