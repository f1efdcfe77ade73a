package worker

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"morsedecoder.com/mdc/pipeline"
	"morsedecoder.com/mdc/tasks"
	"morsedecoder.com/mdc/types"
	"morsedecoder.com/mdc/utils"
)

type Message struct {
	WorkType string `json:"work_type"`
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type Task struct {
	delivery   *amqp.Delivery
	decodeTask *tasks.DecodeTask
	message    *Message
	redisKey   string
	// decodeError is the error reported inside a saved decode response.
	decodeError string
	mdcLogger   *zerolog.Logger
}

func (worker *Worker) processMessage(delivery *amqp.Delivery) {
	rejectLogger := worker.mdcLogger.With().Str("message_id", delivery.MessageId).Logger()
	task, err := worker.createTask(delivery)
	if err != nil {
		rejectLogger.Err(err).
			Str("body", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.rmq.requeueOnce(delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(task); err != nil {
		worker.rmq.requeueOnce(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.notifySequencer(task, *task.message); err != nil {
		task.mdcLogger.Err(err).Msg("Got error while sending message to sequencer queue")
		worker.rmq.requeueOnce(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.ackDelivery(delivery); err != nil {
		task.mdcLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.mdcLogger.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(delivery *amqp.Delivery) (*Task, error) {
	var message Message
	if err := json.Unmarshal(delivery.Body, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	decodeTask, err := worker.redis.getDecodeTask(message.RedisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query decode task for message, got error %w", err)
	}
	taskLogger := worker.mdcLogger.With().
		Str("tid", message.RedisKey).
		Str("job_id", decodeTask.JobID).
		Logger()
	return &Task{
		delivery:   delivery,
		decodeTask: decodeTask,
		redisKey:   message.RedisKey,
		message:    &message,
		mdcLogger:  &taskLogger,
	}, nil
}

// processTask returns an error only when the delivery should be rejected.
// Decode failures are recorded in the task document instead.
func (worker *Worker) processTask(task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(task)
	if err != nil {
		task.mdcLogger.Err(err).Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.redis.onTaskStarted(task); err != nil {
		task.mdcLogger.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update TaskInfo: %w", err)
	}
	if err = worker.runPipeline(task); err != nil {
		task.mdcLogger.Err(err).Msg("Got error while running pipeline")
		return worker.redis.onTaskFailedWithError(task, err)
	}
	task.mdcLogger.Info().Msg("Saved results, marking task as complete")
	if err = worker.redis.onTaskComplete(task); err != nil {
		task.mdcLogger.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	return nil
}

func (worker *Worker) runPipeline(task *Task) (err error) {
	defer utils.RecoverWithError(&err)
	task.mdcLogger.Info().Msgf("Processing message from RMQ, attempt # %d", task.decodeTask.TaskStatuses.Decoder.Attempts)
	stream, err := worker.s3.downloadStream(task)
	if err != nil {
		task.mdcLogger.Err(err).Caller().Msg("Could not fetch stream from s3")
		return fmt.Errorf("failed fetch stream from s3: %w", err)
	}
	request := pipeline.Request{
		Tid:    task.redisKey,
		Stream: string(stream),
	}
	result, ok := <-worker.ppln(request)
	if !ok {
		task.mdcLogger.Error().Msg("Pipeline channel was closed before returning anything")
		return errors.New("pipeline channel was closed before returning anything")
	}
	var response types.DecodeResponse
	if err = json.Unmarshal([]byte(result), &response); err != nil {
		return fmt.Errorf("pipeline returned malformed response: %w", err)
	}
	if response.Error != "" {
		task.mdcLogger.Info().Str("decode_error", response.Error).Msg("Stream could not be fully decoded")
		task.decodeError = response.Error
	}
	task.mdcLogger.Info().Msg("Finished pipeline, saving results to s3")
	if err = worker.s3.uploadResults(task, result); err != nil {
		task.mdcLogger.Err(err).Msg("Got error while trying to save results")
		return err
	}
	return nil
}

func (worker *Worker) shouldPerformTask(task *Task) (bool, error) {
	taskInfo := task.decodeTask.TaskStatuses.Decoder
	taskLogger := task.mdcLogger

	if taskInfo.Status.Complete() {
		taskLogger.Info().Msg("Task is already done. (might indicate issue acking message with RMQ). Sending back to Sequencer.")
		return false, nil
	}
	job, err := worker.redis.getJobTask(task)
	if err != nil {
		taskLogger.Err(err).Msg("Failed to query job task for decode task")
		return false, err
	}
	if job.UserCanceled {
		taskLogger.Info().Msg("Job was canceled, no need to perform this task. Sending back to Sequencer.")
		return false, worker.redis.onTaskCancelled(task)
	}
	if job.StopJobOnFailure && len(job.FailedDecodes) > 0 {
		failedDecode := job.FailedDecodes[0]
		taskLogger.Info().Str("failed_decode", failedDecode).
			Msg("Task is not required because another decode of the job already failed. Sending back to Sequencer.")
		return false, worker.redis.onTaskCancelled(
			task,
			fmt.Sprintf(
				"Task was marked as \"%s\" because decode \"%s\" of the same job has failed.",
				tasks.TaskStatusCanceled,
				failedDecode,
			),
		)
	}
	if taskInfo.Attempts >= worker.config.TaskMaxRetries {
		taskLogger.Info().Msg("Decode task has exceeded retries. Sending back to Sequencer.")
		return false, worker.redis.onTaskExceededRetries(task, worker.config.TaskMaxRetries)
	}
	return true, nil
}
