package pubsub

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Factory builds a matched Publisher/Subscriber pair for the event bus.
// The default, in-process implementation never leaves the process; an AMQP
// implementation exists for deployments that want other nodes to observe
// room-ended notifications.
type Factory interface {
	Build() (message.Publisher, message.Subscriber, error)
}

// GoChannelFactory builds an in-process, single-binary event bus. This is
// the default: a single instance owns every Runtime it creates (per
// spec.md's Non-goals — no cross-process consensus), so persistence
// decoupling never needs to cross a process boundary.
type GoChannelFactory struct {
	logger *slog.Logger
}

// NewGoChannelFactory builds a GoChannelFactory.
func NewGoChannelFactory(logger *slog.Logger) *GoChannelFactory {
	return &GoChannelFactory{logger: logger}
}

func (f *GoChannelFactory) Build() (message.Publisher, message.Subscriber, error) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, watermill.NewSlogLogger(f.logger))
	return pubSub, pubSub, nil
}

// AMQPFactory fans `RoomEnded` notifications out across a multi-instance
// deployment so every node's admin dashboard can observe rooms it does not
// itself own. It never carries authority for a room's lifecycle — that
// stays single-process, per spec.md's Non-goals on cross-process consensus.
type AMQPFactory struct {
	amqpURI string
	logger  *slog.Logger
}

// NewAMQPFactory builds an AMQPFactory dialing amqpURI on Build.
func NewAMQPFactory(amqpURI string, logger *slog.Logger) *AMQPFactory {
	return &AMQPFactory{amqpURI: amqpURI, logger: logger}
}

func (f *AMQPFactory) Build() (message.Publisher, message.Subscriber, error) {
	wlogger := watermill.NewSlogLogger(f.logger)
	config := amqp.NewDurablePubSubConfig(f.amqpURI, nil)

	publisher, err := amqp.NewPublisher(config, wlogger)
	if err != nil {
		return nil, nil, err
	}
	subscriber, err := amqp.NewSubscriber(config, wlogger)
	if err != nil {
		return nil, nil, err
	}
	return publisher, subscriber, nil
}
