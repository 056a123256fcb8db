package service

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// IPublisherService puts a job on one task queue topic.
type IPublisherService interface {
	Publish(ctx context.Context, payload []byte) error
}

type publisherService struct {
	pubSub    message.Publisher
	topicName string
}

func NewPublisherService(pubSub message.Publisher, topicName string) IPublisherService {
	return &publisherService{
		pubSub:    pubSub,
		topicName: topicName,
	}
}

func (ps *publisherService) Publish(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return ps.pubSub.Publish(ps.topicName, msg)
}
