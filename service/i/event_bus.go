package i

import (
	"context"

	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
)

// EventBus fans out small payloads, such as chat messages, to every process
// serving a topic.
type EventBus interface {
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe calls handler for every payload published on topic until the
	// returned function is called or ctx ends.
	Subscribe(ctx context.Context, topic string, handler func([]byte)) (func(), error)
}

// Logger is the component logger the services write to.
type Logger = general_i.Logger
