package tasks

import (
	"morsedecoder.com/mdc/redis"
)

const DecodesDB redis.DB = 2

// DecodeTask points at one Morse stream to decode. The document is shared with
// the sequencer; fields not declared here are preserved on update.
type DecodeTask struct {
	JobID         string             `json:"job_id"`
	StreamFileKey string             `json:"stream_file_key"`
	TaskStatuses  DecodeTaskStatuses `json:"task_statuses"`
}

type DecodeTaskStatuses struct {
	Decoder TaskInfo `json:"decoder"`
}

type DecodeTasks struct {
	client documentStore
}

func (tasks DecodeTasks) Get(redisKey string) (*DecodeTask, error) {
	var task DecodeTask
	if _, err := tasks.client.GetDocument(redisKey, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks DecodeTasks) Update(redisKey string, updateFunc func(task *DecodeTask)) error {
	var task DecodeTask
	return tasks.client.UpdateDocument(redisKey, &task, func() {
		updateFunc(&task)
	})
}
