package s3client

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv() EnvironmentConfig {
	return EnvironmentConfig{
		BucketName:  "decodes",
		Env:         "dev",
		Region:      "us-east-1",
		AwsEndpoint: "http://localstack:4566",
		AccessKeyID: "id",
		AccessKey:   "secret",
	}
}

func TestEnvConfig(t *testing.T) {
	client := &Client{env: testEnv()}
	cfg, err := client.envConfig()
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", aws.StringValue(cfg.Region))
	assert.Equal(t, "http://localstack:4566", aws.StringValue(cfg.Endpoint))
	assert.True(t, aws.BoolValue(cfg.S3ForcePathStyle))

	client.env.Env = "prod"
	cfg, err = client.envConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg.Endpoint, "custom endpoint is only honoured in dev")

	client.env.AccessKeyID = ""
	_, err = client.envConfig()
	assert.Error(t, err)
}

func TestAcquireSessionFallsBackToEnvCredentials(t *testing.T) {
	var attempts int32
	client := &Client{env: testEnv(), open: func(cfg *aws.Config) (*session.Session, error) {
		atomic.AddInt32(&attempts, 1)
		if cfg.Credentials == nil {
			return nil, errors.New("no instance role")
		}
		return session.NewSession(cfg)
	}}

	sess, err := client.acquireSession()
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.EqualValues(t, 2, attempts)
}

func TestWithSessionRetriesOnFreshSession(t *testing.T) {
	var opened int32
	client := &Client{env: testEnv(), open: func(cfg *aws.Config) (*session.Session, error) {
		atomic.AddInt32(&opened, 1)
		return session.NewSession(cfg)
	}}
	_, err := client.refresh(nil)
	require.NoError(t, err)
	first := client.current

	var used []*session.Session
	err = client.withSession(func(sess *session.Session) error {
		used = append(used, sess)
		if len(used) == 1 {
			return errors.New("expired token")
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, used, 2)
	assert.Same(t, first, used[0])
	assert.NotSame(t, first, used[1])
	assert.EqualValues(t, 2, opened)
}

func TestWithSessionAfterClose(t *testing.T) {
	client := &Client{env: testEnv()}
	client.Close()
	err := client.withSession(func(*session.Session) error { return nil })
	assert.True(t, errors.Is(err, errNoSession))
}

func TestFailedRefreshKeepsSession(t *testing.T) {
	var down int32
	client := &Client{env: testEnv(), open: func(cfg *aws.Config) (*session.Session, error) {
		if atomic.LoadInt32(&down) == 1 {
			return nil, errors.New("sts unreachable")
		}
		return session.NewSession(cfg)
	}}
	_, err := client.refresh(nil)
	require.NoError(t, err)
	first := client.current

	atomic.StoreInt32(&down, 1)
	err = client.withSession(func(*session.Session) error { return errors.New("throttled") })
	require.Error(t, err)
	assert.Same(t, first, client.current)

	// the next request still has a session to work with
	var used *session.Session
	err = client.withSession(func(sess *session.Session) error {
		used = sess
		return nil
	})
	require.NoError(t, err)
	assert.Same(t, first, used)
}

func TestWithSessionAcquiresMissingSession(t *testing.T) {
	var down int32 = 1
	client := &Client{env: testEnv(), open: func(cfg *aws.Config) (*session.Session, error) {
		if atomic.LoadInt32(&down) == 1 {
			return nil, errors.New("sts unreachable")
		}
		return session.NewSession(cfg)
	}}
	_, err := client.refresh(nil)
	require.Error(t, err)
	assert.Nil(t, client.current)

	atomic.StoreInt32(&down, 0)
	calls := 0
	err = client.withSession(func(sess *session.Session) error {
		calls++
		assert.NotNil(t, sess)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NotNil(t, client.current)
}
