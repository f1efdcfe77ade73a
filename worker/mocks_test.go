package worker

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"morsedecoder.com/mdc/pipeline"
	"morsedecoder.com/mdc/tasks"
)

const defaultPipelineResult = `{"tid":"decode-1","stream":".-","stream_length":2,"sentence_count":"1","shortest":["A"],"best":null}`

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type pipelineMock struct {
	ppln   pipeline.Pipeline
	config pipelineMockConfig
	calls  pipelineCall
}

type pipelineMockConfig struct {
	fail   bool
	result string
}

type pipelineCall struct {
	pipeline bool
}

type redisMock struct {
	config redisMockConfig
	calls  redisMockCalls
	// completedWithDecodeError holds task.decodeError as seen by onTaskComplete.
	completedWithDecodeError string
	closed                   bool
	// closedAfterComplete records whether onTaskComplete ran before close.
	closedAfterComplete bool
}

type redisMockConfig struct {
	getDecodeTask         withValue
	getJobTask            withValue
	onTaskCancelled       failingMethod
	onTaskStarted         failingMethod
	onTaskExceededRetries failingMethod
	onTaskFailedWithError failingMethod
	onTaskComplete        failingMethod
}

type redisMockCalls struct {
	getDecodeTask         bool
	getJobTask            bool
	onTaskCancelled       bool
	onTaskStarted         bool
	onTaskExceededRetries bool
	onTaskFailedWithError bool
	onTaskComplete        bool
}

type rmqMock struct {
	config rmqMockConfig
	calls  rmqMockCalls
	queue  chan amqp.Delivery
}

type rmqMockConfig struct {
	notifySequencer failingMethod
	ackDelivery     failingMethod
}

type rmqMockCalls struct {
	notifySequencer bool
	ackDelivery     bool
	requeueOnce     bool
}

type s3Mock struct {
	config s3MockConfig
	calls  s3MockCalls
}

type s3MockConfig struct {
	downloadStream withValue
	uploadResults  failingMethod
}

type s3MockCalls struct {
	downloadStream bool
	uploadResults  bool
}

func (mock *s3Mock) close() {}

func (mock *rmqMock) close() {}

func (mock *redisMock) close() {
	mock.closed = true
	mock.closedAfterComplete = mock.calls.onTaskComplete
}

func getPipelineMock(config pipelineMockConfig) *pipelineMock {
	mock := pipelineMock{config: config}
	if mock.config.result == "" {
		mock.config.result = defaultPipelineResult
	}
	if config.fail {
		mock.ppln = func(request pipeline.Request) <-chan string {
			mock.calls.pipeline = true
			ch := make(chan string)
			close(ch)
			return ch
		}
	} else {
		mock.ppln = func(request pipeline.Request) <-chan string {
			mock.calls.pipeline = true
			ch := make(chan string, 1)
			ch <- mock.config.result
			close(ch)
			return ch
		}
	}
	return &mock
}

func (mock *redisMock) getDecodeTask(redisKey string) (*tasks.DecodeTask, error) {
	mock.calls.getDecodeTask = true
	if mock.config.getDecodeTask.fail {
		return nil, errors.New("failed to get decode task")
	}
	if task, ok := mock.config.getDecodeTask.returnedValue.(tasks.DecodeTask); ok {
		return &task, nil
	}
	return &tasks.DecodeTask{JobID: "job-1", StreamFileKey: "streams/decode-1"}, nil
}

func (mock *redisMock) getJobTask(task *Task) (*tasks.JobTask, error) {
	mock.calls.getJobTask = true
	if mock.config.getJobTask.fail {
		return nil, errors.New("failed to get job task")
	}
	if job, ok := mock.config.getJobTask.returnedValue.(tasks.JobTask); ok {
		return &job, nil
	}
	return &tasks.JobTask{}, nil
}

func (mock *redisMock) onTaskStarted(task *Task) error {
	mock.calls.onTaskStarted = true
	if mock.config.onTaskStarted.fail {
		return errors.New("failed to update decode task on start")
	}
	return nil
}

func (mock *redisMock) onTaskCancelled(task *Task, errorMessages ...string) error {
	mock.calls.onTaskCancelled = true
	if mock.config.onTaskCancelled.fail {
		return errors.New("failed to update decode task on cancel")
	}
	return nil
}

func (mock *redisMock) onTaskExceededRetries(task *Task, maxRetries int) error {
	mock.calls.onTaskExceededRetries = true
	if mock.config.onTaskExceededRetries.fail {
		return errors.New("failed to update decode task on exceeded retries")
	}
	return nil
}

func (mock *redisMock) onTaskFailedWithError(task *Task, err error) error {
	mock.calls.onTaskFailedWithError = true
	if mock.config.onTaskFailedWithError.fail {
		return errors.New("failed to update decode task on fail with error")
	}
	return nil
}

func (mock *redisMock) onTaskComplete(task *Task) error {
	mock.calls.onTaskComplete = true
	mock.completedWithDecodeError = task.decodeError
	if mock.config.onTaskComplete.fail {
		return errors.New("failed to update decode task on complete")
	}
	return nil
}

func (mock *rmqMock) requeueOnce(delivery *amqp.Delivery, mdcLogger *zerolog.Logger) {
	mock.calls.requeueOnce = true
}

func (mock *rmqMock) deliveries() <-chan amqp.Delivery {
	return mock.queue
}

func (mock *rmqMock) requestErrors() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) responseErrors() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) notifySequencer(task *Task, message Message) error {
	mock.calls.notifySequencer = true
	if mock.config.notifySequencer.fail {
		return errors.New("failed to ping sequencer")
	}
	return nil
}

func (mock *rmqMock) ackDelivery(delivery *amqp.Delivery) error {
	mock.calls.ackDelivery = true
	if mock.config.ackDelivery.fail {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

func (mock *s3Mock) downloadStream(task *Task) ([]byte, error) {
	mock.calls.downloadStream = true
	if mock.config.downloadStream.fail {
		return nil, errors.New("mock: failed to load from s3")
	}
	if stream, ok := mock.config.downloadStream.returnedValue.([]byte); ok {
		return stream, nil
	}
	return []byte(".-"), nil
}

func (mock *s3Mock) uploadResults(task *Task, result string) error {
	mock.calls.uploadResults = true
	if mock.config.uploadResults.fail {
		return errors.New("failed to upload results")
	}
	return nil
}
