package command

import (
	"github.com/rpcpool/zumic/internal/acl"
	"github.com/rpcpool/zumic/internal/pubsub"
	"github.com/rpcpool/zumic/internal/storage"
	"github.com/rpcpool/zumic/internal/wire"
	"github.com/rpcpool/zumic/internal/zerr"
)

// BrokerCommand is implemented by the pub/sub family instead of Execute:
// PUBLISH/SUBSCRIBE/UNSUBSCRIBE act on a *pubsub.Broker and (for the
// latter two) a connection's own subscriber handle, neither of which the
// storage-engine-scoped Command interface carries. The connection layer
// that owns a Broker and a per-connection Subscriber type-asserts a
// parsed Command to BrokerCommand before dispatching it; that layer is
// out of scope here (see zerr.KindInvalidCommand on the plain Execute
// path, which only fires if something calls these the wrong way).
type BrokerCommand interface {
	ExecuteBroker(b *pubsub.Broker) (wire.Frame, error)
}

func init() {
	register(&Spec{Name: "PUBLISH", Arity: 3, Category: acl.CatPubSub, Parse: parsePublish})
	register(&Spec{Name: "SUBSCRIBE", Arity: -2, Category: acl.CatPubSub, Parse: parseSubscribe})
	register(&Spec{Name: "UNSUBSCRIBE", Arity: -1, Category: acl.CatPubSub, Parse: parseUnsubscribe})
}

type publishCmd struct {
	channel string
	payload string
}

func parsePublish(args []string) (Command, error) {
	return publishCmd{channel: args[1], payload: args[2]}, nil
}

func (c publishCmd) Execute(storage.Engine) (wire.Frame, error) {
	return nil, zerr.New(zerr.KindInvalidCommand, "PUBLISH requires broker dispatch, not a storage engine")
}

func (c publishCmd) ExecuteBroker(b *pubsub.Broker) (wire.Frame, error) {
	n := b.Publish(c.channel, []byte(c.payload))
	return wire.Integer(int64(n)), nil
}

type subscribeCmd struct{ channels []string }

func parseSubscribe(args []string) (Command, error) { return subscribeCmd{channels: args[1:]}, nil }

func (c subscribeCmd) Execute(storage.Engine) (wire.Frame, error) {
	return nil, zerr.New(zerr.KindInvalidCommand, "SUBSCRIBE requires broker dispatch, not a storage engine")
}

// ExecuteBroker acknowledges the channel names; the actual Subscriber
// registration and per-connection delivery loop are owned by the
// connection layer, which holds the long-lived *pubsub.Subscriber this
// command's caller subscribes on.
func (c subscribeCmd) ExecuteBroker(*pubsub.Broker) (wire.Frame, error) {
	items := make([]wire.Frame, len(c.channels))
	for i, ch := range c.channels {
		items[i] = wire.InlineString(ch)
	}
	return wire.Array{Items: items}, nil
}

type unsubscribeCmd struct{ channels []string }

func parseUnsubscribe(args []string) (Command, error) {
	return unsubscribeCmd{channels: args[1:]}, nil
}

func (c unsubscribeCmd) Execute(storage.Engine) (wire.Frame, error) {
	return nil, zerr.New(zerr.KindInvalidCommand, "UNSUBSCRIBE requires broker dispatch, not a storage engine")
}

func (c unsubscribeCmd) ExecuteBroker(*pubsub.Broker) (wire.Frame, error) {
	items := make([]wire.Frame, len(c.channels))
	for i, ch := range c.channels {
		items[i] = wire.InlineString(ch)
	}
	return wire.Array{Items: items}, nil
}
