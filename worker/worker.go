// Package worker consumes decode tasks from RabbitMQ. Each task names a Morse
// stream stored in S3; the worker decodes it, uploads the JSON result and
// records the outcome in the task document in Redis.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"morsedecoder.com/mdc/logger"
	"morsedecoder.com/mdc/pipeline"
	"morsedecoder.com/mdc/rmq"
	"morsedecoder.com/mdc/s3client"
	"morsedecoder.com/mdc/tasks"
)

type Config struct {
	TaskMaxRetries int `envconfig:"MDL_COMN_RETRY_TASK_COUNT_MAX" default:"3"`
}

type Worker struct {
	config    Config
	redis     redisTransactions
	s3        s3Transactions
	rmq       rmqTransactions
	mdcLogger *zerolog.Logger
	ppln      pipeline.Pipeline
	inFlight  sync.WaitGroup
}

func New(ppln pipeline.Pipeline) (*Worker, error) {
	mdcLogger := logger.NewLogger("Worker")

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		mdcLogger.Error().Err(err).Msg("Could not read config")
		return nil, err
	}

	worker := Worker{
		config:    config,
		mdcLogger: &mdcLogger,
		ppln:      ppln,
	}
	if err := worker.refreshRMQClient(); err != nil {
		mdcLogger.Error().Err(err).Msg("Could not create RMQ client")
		return nil, err
	}
	if err := worker.refreshS3Client(); err != nil {
		mdcLogger.Error().Err(err).Msg("Could not create S3 client")
		worker.Close()
		return nil, err
	}
	if err := worker.refreshRedisClients(); err != nil {
		mdcLogger.Error().Err(err).Msg("Could not create Redis client")
		worker.Close()
		return nil, err
	}
	return &worker, nil
}

// StartWorker handles deliveries until ctx is done or the RMQ connection
// cannot be restored.
func (worker *Worker) StartWorker(ctx context.Context) error {
	// messages being decoded still need the clients to finish
	defer func() {
		worker.inFlight.Wait()
		worker.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			worker.mdcLogger.Info().Msg("Stopping worker")
			return ctx.Err()
		case delivery, ok := <-worker.rmq.deliveries():
			if ok {
				worker.inFlight.Add(1)
				go func() {
					defer worker.inFlight.Done()
					worker.processMessage(&delivery)
				}()
				continue
			}
			worker.mdcLogger.Error().Msg("Deliveries channel closed, trying to refresh RMQ client")
			if err := worker.refreshRMQClient(); err != nil {
				return fmt.Errorf("rmq deliveries channel has been closed and refresh returned error: %w", err)
			}
		case rmqErr := <-worker.rmq.responseErrors():
			if err := worker.onConnectionError("Response", rmqErr); err != nil {
				return err
			}
		case rmqErr := <-worker.rmq.requestErrors():
			if err := worker.onConnectionError("Request", rmqErr); err != nil {
				return err
			}
		}
	}
}

func (worker *Worker) onConnectionError(connection string, rmqErr error) error {
	if rmqErr == nil {
		return nil
	}
	worker.mdcLogger.Err(rmqErr).Msgf("%s connection received error, trying to refresh RMQ client", connection)
	if err := worker.refreshRMQClient(); err != nil {
		return fmt.Errorf("%s connection received error and refresh failed with: %w", connection, err)
	}
	return nil
}

func (worker *Worker) Close() {
	if worker.redis != nil {
		worker.redis.close()
	}
	if worker.s3 != nil {
		worker.s3.close()
	}
	if worker.rmq != nil {
		worker.rmq.close()
	}
}

func (worker *Worker) refreshRedisClients() error {
	worker.mdcLogger.Info().Msg("Refreshing Redis client")
	if oldClient := worker.redis; oldClient != nil {
		defer oldClient.close()
	}
	tasksClient, err := tasks.NewClient()
	if err != nil {
		worker.mdcLogger.Err(err).Msg("Failed to refresh Redis client")
		return err
	}
	worker.redis = &redisClientWrapper{&tasksClient}
	worker.mdcLogger.Info().Msg("Refreshed Redis client")
	return nil
}

func (worker *Worker) refreshRMQClient() error {
	worker.mdcLogger.Info().Msg("Refreshing RMQ client")
	if oldClient := worker.rmq; oldClient != nil {
		defer oldClient.close()
	}
	rmqClient, err := rmq.NewClient()
	if err != nil {
		worker.mdcLogger.Err(err).Msg("Failed to refresh RMQ client")
		return err
	}
	worker.rmq = &rmqClientWrapper{rmqClient}
	worker.mdcLogger.Info().Msg("Refreshed RMQ client")
	return nil
}

func (worker *Worker) refreshS3Client() error {
	worker.mdcLogger.Info().Msg("Refreshing S3 client")
	if oldClient := worker.s3; oldClient != nil {
		defer oldClient.close()
	}
	s3Client, err := s3client.New()
	if err != nil {
		worker.mdcLogger.Err(err).Msg("Failed to refresh S3 client")
		return err
	}
	worker.s3 = &s3ClientWrapper{s3Client}
	worker.mdcLogger.Info().Msg("Refreshed S3 client")
	return nil
}
