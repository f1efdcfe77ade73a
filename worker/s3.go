package worker

import (
	"fmt"
	"strings"

	"morsedecoder.com/mdc/s3client"
)

type s3Transactions interface {
	downloadStream(task *Task) ([]byte, error)
	uploadResults(task *Task, result string) error
	close()
}

type s3ClientWrapper struct {
	s3Client *s3client.Client
}

// resultsKey is where the decode results of redisKey are uploaded.
func resultsKey(redisKey string) string {
	return fmt.Sprintf("processed/decodes/%[1]s/%[1]s.decode_results.json", redisKey)
}

func (wrapper *s3ClientWrapper) downloadStream(task *Task) ([]byte, error) {
	key := strings.TrimSpace(task.decodeTask.StreamFileKey)
	if key == "" {
		return nil, fmt.Errorf("decode task %s has no stream file", task.redisKey)
	}
	return wrapper.s3Client.Download(key)
}

func (wrapper *s3ClientWrapper) uploadResults(task *Task, result string) error {
	_, err := wrapper.s3Client.Upload(resultsKey(task.redisKey), []byte(result))
	return err
}

func (wrapper *s3ClientWrapper) close() {
	wrapper.s3Client.Close()
}
