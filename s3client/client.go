// Package s3client stores decode inputs and results in S3. The client keeps a
// single AWS session and re-acquires it when a request fails, since the EC2
// role credentials it prefers expire.
package s3client

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"morsedecoder.com/mdc/logger"
)

const jsonContentType = "application/json"

var (
	clientLogger = logger.NewLogger("S3Client")
	sdkLogger    = logger.NewLogger("S3-SDK")

	errNoSession = errors.New("S3 client is closed")
)

type EnvironmentConfig struct {
	BucketName  string `envconfig:"MDL_COMN_STORAGE_CONTAINER_NAME" required:"true"`
	Env         string `envconfig:"T2P_ENV" required:"true"`
	Region      string `envconfig:"MDL_COMN_AWS_REGION_NAME" required:"true"`
	AwsEndpoint string `envconfig:"MDL_COMN_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"MDL_COMN_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"MDL_COMN_AWS_ACCESS_KEY" default:""`
}

// sessionFactory opens and verifies a session built from cfg.
type sessionFactory func(cfg *aws.Config) (*session.Session, error)

type Client struct {
	env     EnvironmentConfig
	open    sessionFactory
	mu      sync.RWMutex
	current *session.Session
	closed  bool
}

func New() (*Client, error) {
	var env EnvironmentConfig
	if err := envconfig.Process("", &env); err != nil {
		clientLogger.Err(err).Caller().Msg("Failed to get proper variables from environment")
		return nil, err
	}
	client := &Client{env: env, open: openVerified}
	if _, err := client.refresh(nil); err != nil {
		return nil, err
	}
	return client, nil
}

// Upload stores data under key in the configured bucket.
func (client *Client) Upload(key string, data []byte) (*s3manager.UploadOutput, error) {
	var output *s3manager.UploadOutput
	err := client.withSession(func(sess *session.Session) error {
		var err error
		output, err = client.upload(sess, key, data)
		return err
	})
	return output, err
}

func (client *Client) Download(key string) ([]byte, error) {
	var data []byte
	err := client.withSession(func(sess *session.Session) error {
		var err error
		data, err = client.download(sess, key)
		return err
	})
	return data, err
}

func (client *Client) Close() {
	client.mu.Lock()
	client.current = nil
	client.closed = true
	client.mu.Unlock()
	clientLogger.Info().Msg("Closed client")
}

// withSession runs op once and, if it fails, once more on a fresh session.
func (client *Client) withSession(op func(sess *session.Session) error) error {
	client.mu.RLock()
	sess, closed := client.current, client.closed
	client.mu.RUnlock()
	if closed {
		return errNoSession
	}
	if sess == nil {
		var err error
		if sess, err = client.refresh(nil); err != nil {
			return err
		}
	}

	err := op(sess)
	if err == nil {
		return nil
	}
	clientLogger.Error().Err(err).Msg("Caught error while using S3 session, trying to refresh it")
	sess, refreshErr := client.refresh(sess)
	if refreshErr != nil {
		return fmt.Errorf("%v; refreshing session: %w", err, refreshErr)
	}
	return op(sess)
}

// refresh replaces failed with a new session. If another goroutine already
// replaced it, that session is reused. The current session is kept when a
// new one cannot be acquired.
func (client *Client) refresh(failed *session.Session) (*session.Session, error) {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.closed {
		return nil, errNoSession
	}
	if client.current != nil && client.current != failed {
		return client.current, nil
	}
	sess, err := client.acquireSession()
	if err != nil {
		return nil, err
	}
	client.current = sess
	return sess, nil
}

func (client *Client) acquireSession() (*session.Session, error) {
	sess, err := client.open(client.ec2Config())
	if err == nil {
		clientLogger.Info().Msg("S3 session successfully initialized using EC2")
		return sess, nil
	}
	clientLogger.Info().Err(err).Msg("Could not initialize S3 session using EC2, trying env credentials")

	cfg, err := client.envConfig()
	if err != nil {
		return nil, err
	}
	sess, err = client.open(cfg)
	if err != nil {
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return nil, fmt.Errorf("could not initialize S3 session: %w", err)
	}
	clientLogger.Info().Msg("S3 session successfully initialized using env credentials")
	return sess, nil
}

func openVerified(cfg *aws.Config) (*session.Session, error) {
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err != nil {
		return nil, err
	}
	return sess, nil
}

func (client *Client) upload(sess *session.Session, key string, data []byte) (*s3manager.UploadOutput, error) {
	reqLogger := clientLogger.With().Str("key", key).Str("bucket", client.env.BucketName).Logger()
	uploader := s3manager.NewUploader(sess.Copy(client.sdkConfig(key)))
	reqLogger.Debug().Int("bytes", len(data)).Msg("Uploading the file")
	return uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(client.env.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(jsonContentType),
	})
}

func (client *Client) download(sess *session.Session, key string) ([]byte, error) {
	reqLogger := clientLogger.With().Str("key", key).Str("bucket", client.env.BucketName).Logger()
	downloader := s3manager.NewDownloader(sess.Copy(client.sdkConfig(key)))
	buf := aws.NewWriteAtBuffer([]byte{})

	reqLogger.Debug().Msg("Downloading file")
	size, err := downloader.Download(buf, &s3.GetObjectInput{
		Bucket: aws.String(client.env.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		reqLogger.Error().Err(err).Msg("Failed to download file")
		return nil, err
	}
	reqLogger.Debug().Int64("bytes", size).Msg("Downloaded file")
	return buf.Bytes(), nil
}

func (client *Client) sdkConfig(key string) *aws.Config {
	sdkLog := sdkLogger.With().Str("key", key).Str("bucket", client.env.BucketName).Logger()
	return &aws.Config{Logger: sdkLogAdapter{sdkLog}}
}

func (client *Client) ec2Config() *aws.Config {
	return aws.NewConfig().
		WithRegion(client.env.Region).
		WithMaxRetries(4).
		WithLogLevel(aws.LogDebug)
}

func (client *Client) envConfig() (*aws.Config, error) {
	creds := credentials.NewStaticCredentials(client.env.AccessKeyID, client.env.AccessKey, "")
	if _, err := creds.Get(); err != nil {
		clientLogger.Error().Err(err).Msg("Error with credentials from environment")
		return nil, err
	}
	cfg := client.ec2Config().WithCredentials(creds)
	if client.env.Env == "dev" && client.env.AwsEndpoint != "" {
		cfg = cfg.WithEndpoint(client.env.AwsEndpoint).WithS3ForcePathStyle(true)
	}
	return cfg, nil
}

// sdkLogAdapter sends AWS SDK debug output to zerolog.
type sdkLogAdapter struct {
	logger zerolog.Logger
}

func (a sdkLogAdapter) Log(v ...interface{}) {
	a.logger.Debug().Msg(fmt.Sprint(v...))
}
