package tasks

import (
	"morsedecoder.com/mdc/redis"
)

const JobsDB redis.DB = 1

// JobTask groups decode tasks submitted together.
type JobTask struct {
	UserCanceled     bool     `json:"user_canceled"`
	StopJobOnFailure bool     `json:"stop_job_on_failure"`
	FailedDecodes    []string `json:"failed_decodes"`
}

type JobTasks struct {
	client documentStore
}

func (tasks JobTasks) Get(jobID string) (*JobTask, error) {
	var task JobTask
	if _, err := tasks.client.GetDocument(jobID, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks JobTasks) Update(jobID string, updateFunc func(task *JobTask)) error {
	var task JobTask
	return tasks.client.UpdateDocument(jobID, &task, func() {
		updateFunc(&task)
	})
}
