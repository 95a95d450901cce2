package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/tarungka/sonata/internal/logger"
	"github.com/tarungka/sonata/pipeline"
	"github.com/tarungka/sonata/queries"
	"github.com/tarungka/sonata/server"
)

var buildString = "unknown"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Error().Err(err).Msg("sonata failed")
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	f, err := newFlagSet(args)
	if err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if v, _ := f.GetBool("version"); v {
		fmt.Fprintln(stdout, buildString)
		return nil
	}
	if l, _ := f.GetBool("list"); l {
		listQueries(stdout)
		return nil
	}

	ko := koanf.New(".")
	if err := loadConfig(ko, f); err != nil {
		return err
	}
	cfg, err := pipeline.LoadConfig(ko)
	if err != nil {
		return err
	}

	logger.SetDevelopment(cfg.Log.Development)
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return err
	}
	if cfg.Log.File != "" {
		logFile, err := logger.OpenLogFile(cfg.Log.File)
		if err != nil {
			return err
		}
		defer logFile.Close()
	}
	log.Logger = logger.GetLogger("sonata")
	log.Info().Str("build", buildString).Msg("Starting sonata")

	qc, err := flagPipeline(f)
	if err != nil {
		return err
	}
	if qc != nil {
		cfg.Pipelines = append(cfg.Pipelines, *qc)
		if cfg.Parallelism < len(cfg.Pipelines) && !f.Changed("parallelism") {
			cfg.Parallelism = len(cfg.Pipelines)
		}
	}

	jobs, err := pipeline.Build(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := pipeline.NewManager(jobs, cfg.Parallelism)

	serverDone := make(chan error, 1)
	if cfg.Server.Enabled {
		go func() {
			serverDone <- server.Run(ctx, cfg.Server.Addr, m)
		}()
	}

	runErr := m.Run(ctx)
	if runErr != nil {
		log.Err(runErr).Msg("Pipelines failed")
	} else {
		log.Info().Msg("Pipelines finished")
	}

	if cfg.Server.Enabled {
		if ctx.Err() == nil {
			log.Info().Msg("Serving status until interrupted")
		}
		select {
		case <-ctx.Done():
			if err := <-serverDone; err != nil {
				log.Err(err).Send()
			}
		case err := <-serverDone:
			log.Err(err).Send()
		}
	}
	return runErr
}

func listQueries(w io.Writer) {
	for _, s := range queries.All() {
		fmt.Fprintf(w, "%-18s %d  %s\n", s.Name, s.Inputs, s.Description)
	}
}
