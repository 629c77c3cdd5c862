package messaging

import (
	"context"
	"thinkink-backend/pkg/models"
	"time"
)

const (
	TranscriptionQueue = "transcription_queue"
	RetryDelay         = 5 * time.Second
	MaxConnectRetry    = 5
)

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

type Publisher interface {
	PublishTranscriptionTask(ctx context.Context, payload models.TranscriptionTaskPayload) error

	Close()
}

type Reciever interface {
	Tasks() <-chan Task

	Close()
}
