package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"morsedecoder.com/mdc/api"
	"morsedecoder.com/mdc/logger"
	"morsedecoder.com/mdc/pipeline"
	"morsedecoder.com/mdc/types"
	"morsedecoder.com/mdc/worker"
)

type Config struct {
	ConfigPath    string `envconfig:"MDC_CONFIG_PATH" required:"true"`
	RestAPIActive bool   `envconfig:"MDC_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string `envconfig:"MDC_REST_API_PORT" default:"10000"`
	WorkerActive  bool   `envconfig:"MDC_WORKER_ACTIVE" default:"true"`
}

const (
	pipelineStartMaxRetries = 5
	retryDelay              = 5 * time.Second
)

func main() {
	logger.SetupLogging()
	mdcLogger := logger.NewLogger("Main")
	decode := flag.Bool("decode", false, "decode the Morse streams given as arguments and print the results")
	encode := flag.Bool("encode", false, "print the timing-less encoding of the messages given as arguments")
	warmNGrams := flag.Bool("warm-ngrams", false, "build the n-gram cache for the streams given as arguments")
	flag.Parse()

	if *encode {
		runEncode(os.Stdout, flag.Args())
		return
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		mdcLogger.Fatal().Caller().Err(err).Msg("Failed to read environment")
	}

	switch {
	case *decode:
		if err := runDecode(os.Stdout, config.ConfigPath, flag.Args()); err != nil {
			mdcLogger.Fatal().Caller().Err(err).Msg("Failed to decode streams")
		}
		return
	case *warmNGrams:
		if err := runWarmNGrams(config.ConfigPath, flag.Args()); err != nil {
			mdcLogger.Fatal().Caller().Err(err).Msg("Failed to build n-gram cache")
		}
		mdcLogger.Info().Msg("N-gram cache was built. Exit...")
		return
	}

	ppln := startPipeline(config.ConfigPath, &mdcLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if config.RestAPIActive {
		go serveAPI(ppln, config.RestAPIPort, &mdcLogger)
	}

	if !config.WorkerActive {
		mdcLogger.Info().Msg("Worker is disabled")
		<-ctx.Done()
		return
	}

	mdcLogger.Info().Msg("Start decoder worker")
	for ctx.Err() == nil {
		rmqWorker, err := worker.New(ppln)
		if err != nil {
			mdcLogger.Fatal().Err(err).Msg("Could not initialize RMQ worker")
		}
		if err = rmqWorker.StartWorker(ctx); err != nil && ctx.Err() == nil {
			mdcLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
			time.Sleep(retryDelay)
		}
	}
	mdcLogger.Info().Msg("Decoder stopped")
}

// startPipeline blocks until the pipeline is loaded, exiting the process after
// pipelineStartMaxRetries failed attempts.
func startPipeline(configPath string, mdcLogger *zerolog.Logger) pipeline.Pipeline {
	for retry := 0; retry < pipelineStartMaxRetries; retry++ {
		ppln, err := loadPipeline(configPath)
		if err == nil {
			mdcLogger.Info().Msg("Pipeline loaded")
			return ppln
		}
		mdcLogger.Err(err).Int("attempt", retry+1).Msg("Failed to start default decode pipeline. Retrying in 5 sec")
		time.Sleep(retryDelay)
	}
	mdcLogger.Fatal().Caller().Msgf("Could not start pipeline after %d retries, exiting", pipelineStartMaxRetries)
	return nil
}

func loadPipeline(configPath string) (pipeline.Pipeline, error) {
	cfg, err := types.LoadConfiguration(configPath)
	if err != nil {
		return nil, err
	}
	params, err := pipeline.LoadDefaultDecodeParams(cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.DefaultDecode(params)
}

func serveAPI(ppln pipeline.Pipeline, port string, mdcLogger *zerolog.Logger) {
	mdcLogger.Info().Msg("Starting API service")
	handler := api.NewHandler(&api.Request{Pipeline: ppln})
	host := fmt.Sprintf(":%s", port)
	mdcLogger.Info().Msgf("REST API on %s", host)
	err := http.ListenAndServe(host, handler)
	mdcLogger.Fatal().Caller().Err(err).Msg("REST API stopped with error")
}
