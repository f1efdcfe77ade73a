// Package rmq connects the decoder worker to RabbitMQ: one connection consumes
// decode tasks, the other publishes notifications to the sequencer.
package rmq

import (
	"fmt"
	"net/url"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"morsedecoder.com/mdc/logger"
)

type Config struct {
	Host                    string `envconfig:"MDL_COMN_RMQ_HOST" required:"true"`
	Port                    string `envconfig:"MDL_COMN_RMQ_PORT" required:"true"`
	Username                string `envconfig:"MDL_COMN_RMQ_USERNAME" required:"true"`
	Password                string `envconfig:"MDL_COMN_RMQ_PASSWORD" required:"true"`
	Exchange                string `envconfig:"MDL_COMN_RMQ_DEFAULT_EXCHANGE" default:"morse-decoder-default-exchange"`
	MaxParallelRequestCount int    `envconfig:"MDC_MQ_MAX_PARALLEL_REQUESTS" default:"5"`
	DecoderTaskQueue        string `envconfig:"MDL_COMN_DECODER_TASK_QUEUE" required:"true"`
	SequencerTaskQueue      string `envconfig:"MDL_COMN_SEQUENCER_TASK_QUEUE" required:"true"`
}

// URL is the AMQP address described by cfg. Credentials are escaped.
func (cfg Config) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
	}
	return u.String()
}

type Client struct {
	Deliveries     <-chan amqp.Delivery
	ReqChanErrors  <-chan *amqp.Error
	RespChanErrors <-chan *amqp.Error
	config         Config
	reqConn        *amqp.Connection
	respConn       *amqp.Connection
	respChannel    *amqp.Channel
	mdcLogger      *zerolog.Logger
}

func NewClient() (*Client, error) {
	mdcLogger := logger.NewLogger("RMQ client")
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		mdcLogger.Error().Err(err).Msg("Could not read env config")
		return nil, err
	}
	return NewClientFromConfig(config, &mdcLogger)
}

func NewClientFromConfig(config Config, mdcLogger *zerolog.Logger) (*Client, error) {
	respConn, respChannel, err := dial(config.URL())
	if err != nil {
		return nil, fmt.Errorf("failed publishing connection: %w", err)
	}
	reqConn, reqChannel, err := dial(config.URL())
	if err != nil {
		_ = respConn.Close()
		return nil, fmt.Errorf("failed consuming connection: %w", err)
	}

	deliveries, err := consume(reqChannel, config)
	if err != nil {
		_ = respConn.Close()
		_ = reqConn.Close()
		return nil, err
	}
	mdcLogger.Info().
		Str("queue", config.DecoderTaskQueue).
		Int("prefetch", config.MaxParallelRequestCount).
		Msg("Consuming decode tasks")

	return &Client{
		Deliveries:     deliveries,
		ReqChanErrors:  reqChannel.NotifyClose(make(chan *amqp.Error, 1)),
		RespChanErrors: respChannel.NotifyClose(make(chan *amqp.Error, 1)),
		config:         config,
		reqConn:        reqConn,
		respConn:       respConn,
		respChannel:    respChannel,
		mdcLogger:      mdcLogger,
	}, nil
}

// consume binds the decoder queue to the exchange and starts consuming it.
// The prefetch count bounds how many tasks are decoded at once.
func consume(ch *amqp.Channel, config Config) (<-chan amqp.Delivery, error) {
	q, err := ch.QueueDeclarePassive(
		config.DecoderTaskQueue, // name
		true,                    // durable
		false,                   // delete when unused
		false,                   // exclusive
		false,                   // no-wait
		nil,                     // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", config.DecoderTaskQueue, err)
	}
	if err := ch.QueueBind(q.Name, q.Name, config.Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind %s: %w", q.Name, err)
	}
	if err := ch.Qos(config.MaxParallelRequestCount, 0, false); err != nil {
		return nil, fmt.Errorf("qos: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume deliveries: %w", err)
	}
	return deliveries, nil
}

func (c *Client) SendMessageToSequencer(msg amqp.Publishing) error {
	c.mdcLogger.Debug().Str("queue", c.config.SequencerTaskQueue).Msg("Notifying sequencer")
	return c.respChannel.Publish(
		c.config.Exchange,
		c.config.SequencerTaskQueue,
		false,
		false,
		msg)
}

func (c *Client) Close() {
	_ = c.reqConn.Close()
	_ = c.respConn.Close()
}

func dial(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
