package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message is a job received from RabbitMQ along with what is needed to settle it
type Message struct {
	Job         *Job
	DeliveryTag uint64
	Redelivered bool
	Channel     *amqp.Channel
}

// Ack confirms the notification went out
func (m *Message) Ack() error {
	return m.Channel.Ack(m.DeliveryTag, false)
}

// Nack rejects the job. Without requeue the broker dead-letters it.
func (m *Message) Nack(requeue bool) error {
	return m.Channel.Nack(m.DeliveryTag, false, requeue)
}

func (m *Message) GetJob() *Job {
	return m.Job
}

var _ Delivery = (*Message)(nil)
