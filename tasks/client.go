// Package tasks reads and updates the task documents the decoder worker shares
// with the sequencer through Redis.
package tasks

import (
	"morsedecoder.com/mdc/redis"
)

// documentStore is the part of redis.Client the task collections use.
type documentStore interface {
	GetDocument(redisKey string, doc interface{}) ([]byte, error)
	UpdateDocument(redisKey string, doc interface{}, update func()) error
	Close() error
}

type Client struct {
	Decodes DecodeTasks
	Jobs    JobTasks
}

// NewClient is a preferred way for working with task documents
func NewClient() (Client, error) {
	jobsRedisClient, err := redis.NewClient(JobsDB)
	if err != nil {
		return Client{}, err
	}
	decodesRedisClient, err := redis.NewClient(DecodesDB)
	if err != nil {
		_ = jobsRedisClient.Close()
		return Client{}, err
	}
	return Client{
		Decodes: DecodeTasks{client: decodesRedisClient},
		Jobs:    JobTasks{client: jobsRedisClient},
	}, nil
}

func (client *Client) Close() {
	_ = client.Decodes.client.Close()
	_ = client.Jobs.client.Close()
}
