package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/tarungka/sonata/internal/utils"
	"github.com/tarungka/sonata/pipeline"
	"github.com/tarungka/sonata/queries"
	"github.com/tarungka/sonata/sinks"
	"github.com/tarungka/sonata/sources"
)

const envPrefix = "SONATA_"

// flagKeys maps the flags that override config file values to their keys.
var flagKeys = map[string]string{
	"dev":         "log.development",
	"log-level":   "log.level",
	"log-file":    "log.file",
	"server":      "server.enabled",
	"addr":        "server.addr",
	"parallelism": "parallelism",
}

func newFlagSet(args []string) (*flag.FlagSet, error) {
	f := flag.NewFlagSet("sonata", flag.ContinueOnError)
	f.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sonata [flags]\n\n%s", f.FlagUsages())
	}

	f.StringSlice("config", nil, "path to one or more config files (will be merged in order)")
	f.Bool("version", false, "show current version of the build")
	f.Bool("list", false, "list the available queries and exit")

	f.String("query", "", "run the named query on the inputs given by flags")
	f.StringSlice("input", nil, "flow export files to read, one per query input (ident only, flows carry no packet time)")
	f.Int64("synthetic", 0, "feed every query input with this many generated packets")
	f.StringToString("param", nil, "query parameter overrides, e.g. threshold=40,epoch_width=0.5")
	f.String("output", "", "write results to this file instead of stdout")
	f.String("format", sinks.FormatDump, "result format: dump, csv or walts")

	f.Bool("dev", false, "human readable logs")
	f.String("log-level", "info", "trace, debug, info, warn or error")
	f.String("log-file", "", "also write logs to this file")
	f.Bool("server", false, "serve the status API while running")
	f.String("addr", ":8080", "address of the status API")
	f.Int("parallelism", 0, "pipelines run at once (default: all)")
	f.Bool("skip-errors", false, "skip tuples that fail instead of stopping the pipeline")

	return f, f.Parse(args)
}

// loadConfig merges, lowest precedence first, the config files, SONATA_*
// environment variables and the command line flags into ko.
func loadConfig(ko *koanf.Koanf, f *flag.FlagSet) error {
	configs, _ := f.GetStringSlice("config")
	for _, path := range configs {
		log.Debug().Msgf("Reading config from %s", path)
		if !utils.PathExists(path) {
			return errors.Errorf("config file %q does not exist", path)
		}
		var parser koanf.Parser
		switch path[strings.LastIndex(path, ".")+1:] {
		case "yaml", "yml":
			parser = yaml.Parser()
		case "json":
			parser = json.Parser()
		default:
			return errors.Errorf("unsupported file extension: %s", path)
		}
		if err := ko.Load(file.Provider(path), parser); err != nil {
			return errors.Wrapf(err, "error reading config %s", path)
		}
	}

	// SONATA_LOG__LEVEL=debug sets log.level
	if err := ko.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return errors.Wrap(err, "error reading environment")
	}

	if err := ko.Load(posflag.ProviderWithFlag(f, ".", ko, func(fl *flag.Flag) (string, interface{}) {
		key, ok := flagKeys[fl.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(f, fl)
	}), nil); err != nil {
		return errors.Wrap(err, "error reading flag config")
	}

	if skip, _ := f.GetBool("skip-errors"); skip {
		if err := ko.Set("error_policy", "skip"); err != nil {
			return err
		}
	}
	return nil
}

// flagPipeline builds the pipeline described by --query and the input and
// output flags, or returns nil when --query is not set.
func flagPipeline(f *flag.FlagSet) (*pipeline.QueryConfig, error) {
	name, _ := f.GetString("query")
	if name == "" {
		return nil, nil
	}
	spec, ok := queries.Lookup(name)
	if !ok {
		return nil, errors.Wrapf(queries.ErrUnknownQuery, "%q", name)
	}

	qc := &pipeline.QueryConfig{Name: name, Query: name}

	inputs, _ := f.GetStringSlice("input")
	for _, path := range inputs {
		qc.Sources = append(qc.Sources, sources.SourceConfig{
			ConnectionType: sources.TypeWaltsCSV,
			Config:         map[string]string{"path": path},
		})
	}
	if n, _ := f.GetInt64("synthetic"); n > 0 {
		for i := 0; i < spec.Inputs; i++ {
			qc.Sources = append(qc.Sources, sources.SourceConfig{
				ConnectionType: "synthetic",
				Config:         map[string]string{"count": strconv.FormatInt(n, 10)},
			})
		}
	}
	if len(qc.Sources) == 0 {
		return nil, errors.New("no input: use --input or --synthetic")
	}

	params, _ := f.GetStringToString("param")
	if len(params) > 0 {
		qc.Params = make(map[string]float64, len(params))
		for k, v := range params {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "param %s", k)
			}
			qc.Params[k] = x
		}
	}

	format, _ := f.GetString("format")
	qc.Sink = sinks.SinkConfig{
		Name:           name,
		ConnectionType: "stdout",
		Config:         map[string]string{"format": format},
	}
	if out, _ := f.GetString("output"); out != "" {
		qc.Sink.ConnectionType = "file"
		qc.Sink.Config["file_path"] = out
		qc.Sink.Config["truncate"] = "true"
	}
	return qc, nil
}
