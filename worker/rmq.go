package worker

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"morsedecoder.com/mdc/rmq"
)

// senderName identifies the decoder in messages sent back to the sequencer.
const senderName = "decoder"

type rmqTransactions interface {
	deliveries() <-chan amqp.Delivery
	requestErrors() <-chan *amqp.Error
	responseErrors() <-chan *amqp.Error
	notifySequencer(task *Task, message Message) error
	ackDelivery(delivery *amqp.Delivery) error
	requeueOnce(delivery *amqp.Delivery, mdcLogger *zerolog.Logger)
	close()
}

type rmqClientWrapper struct {
	rmqClient *rmq.Client
}

func (wrapper *rmqClientWrapper) deliveries() <-chan amqp.Delivery {
	return wrapper.rmqClient.Deliveries
}

func (wrapper *rmqClientWrapper) requestErrors() <-chan *amqp.Error {
	return wrapper.rmqClient.ReqChanErrors
}

func (wrapper *rmqClientWrapper) responseErrors() <-chan *amqp.Error {
	return wrapper.rmqClient.RespChanErrors
}

func (wrapper *rmqClientWrapper) notifySequencer(task *Task, message Message) error {
	publishing, err := sequencerPublishing(task.delivery, message)
	if err != nil {
		return err
	}
	return wrapper.rmqClient.SendMessageToSequencer(publishing)
}

// sequencerPublishing answers delivery with message signed by the decoder.
func sequencerPublishing(delivery *amqp.Delivery, message Message) (amqp.Publishing, error) {
	message.Sender = senderName
	body, err := json.Marshal(message)
	if err != nil {
		return amqp.Publishing{}, err
	}
	contentType := "application/json"
	if delivery != nil && delivery.ContentType != "" {
		contentType = delivery.ContentType
	}
	publishing := amqp.Publishing{
		ContentType: contentType,
		AppId:       senderName,
		MessageId:   uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		Body:        body,
	}
	if delivery != nil {
		publishing.CorrelationId = delivery.MessageId
	}
	return publishing, nil
}

func (wrapper *rmqClientWrapper) ackDelivery(delivery *amqp.Delivery) error {
	return delivery.Ack(false)
}

// requeueOnce gives a failed delivery one more attempt and drops it after that.
func (wrapper *rmqClientWrapper) requeueOnce(delivery *amqp.Delivery, mdcLogger *zerolog.Logger) {
	requeue := !delivery.Redelivered
	if requeue {
		mdcLogger.Info().Msg("Requeuing delivery for a second attempt")
	} else {
		mdcLogger.Info().Msg("Dropping delivery that already failed once")
	}
	if err := delivery.Reject(requeue); err != nil {
		mdcLogger.Err(err).Bool("requeue", requeue).Msg("Failed to reject delivery")
	}
}

func (wrapper *rmqClientWrapper) close() {
	wrapper.rmqClient.Close()
}
