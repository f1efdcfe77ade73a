package worker

import (
	"fmt"
	"time"

	"morsedecoder.com/mdc/tasks"
)

type redisTransactions interface {
	getDecodeTask(redisKey string) (*tasks.DecodeTask, error)
	getJobTask(task *Task) (*tasks.JobTask, error)
	onTaskStarted(task *Task) error
	onTaskCancelled(task *Task, errorMessages ...string) error
	onTaskExceededRetries(task *Task, maxRetries int) error
	onTaskFailedWithError(task *Task, err error) error
	onTaskComplete(task *Task) error
	close()
}

// timestampLayout is RFC 3339 with microseconds, as stored in task documents.
const timestampLayout = "2006-01-02T15:04:05.000000-07:00"

func timestampNow() *string {
	now := time.Now().UTC().Format(timestampLayout)
	return &now
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) update(task *Task, updateFunc func(info *tasks.TaskInfo)) error {
	return wrapper.tasksClient.Decodes.Update(task.redisKey, func(decodeTask *tasks.DecodeTask) {
		updateFunc(&decodeTask.TaskStatuses.Decoder)
	})
}

func (wrapper *redisClientWrapper) onTaskStarted(task *Task) error {
	return wrapper.update(task, func(info *tasks.TaskInfo) {
		info.Status = tasks.TaskStatusStarted
		info.Attempts++
		info.StartedAt = timestampNow()
		info.CompletedAt = nil
	})
}

func (wrapper *redisClientWrapper) onTaskCancelled(task *Task, errorMessages ...string) error {
	return wrapper.update(task, func(info *tasks.TaskInfo) {
		info.Status = tasks.TaskStatusCanceled
		info.StartedAt = timestampNow()
		info.CompletedAt = timestampNow()
		info.Attempts++
		info.ErrorMessages = append(info.ErrorMessages, errorMessages...)
	})
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(task *Task, maxRetries int) error {
	err := wrapper.tasksClient.Jobs.Update(task.decodeTask.JobID, func(job *tasks.JobTask) {
		job.FailedDecodes = append(job.FailedDecodes, task.redisKey)
	})
	if err != nil {
		return err
	}
	return wrapper.update(task, func(info *tasks.TaskInfo) {
		info.Status = tasks.TaskStatusCompletedFailure
		info.StartedAt = timestampNow()
		info.CompletedAt = timestampNow()
		info.Attempts++
		info.ErrorMessages = append(
			info.ErrorMessages,
			fmt.Sprintf("Task has exceeded retries. (Attempts: %d, max retries: %d )", info.Attempts, maxRetries),
		)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(task *Task, err error) error {
	return wrapper.update(task, func(info *tasks.TaskInfo) {
		info.Status = tasks.TaskStatusFailed
		info.CompletedAt = timestampNow()
		info.ErrorMessages = append(info.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(task *Task) error {
	return wrapper.update(task, func(info *tasks.TaskInfo) {
		if !info.Status.Complete() {
			info.Status = tasks.TaskStatusCompletedSuccess
		}
		info.CompletedAt = timestampNow()
		info.ResultsFileKey = resultsKey(task.redisKey)
		if task.decodeError != "" {
			info.ErrorMessages = append(info.ErrorMessages, task.decodeError)
		}
	})
}

func (wrapper *redisClientWrapper) getDecodeTask(redisKey string) (*tasks.DecodeTask, error) {
	return wrapper.tasksClient.Decodes.Get(redisKey)
}

func (wrapper *redisClientWrapper) getJobTask(task *Task) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.Get(task.decodeTask.JobID)
}
