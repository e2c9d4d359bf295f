package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"nftmarket/pkg/market"
)

const DefaultSubjectPrefix = "market.item"

// Subject maps an event kind onto <prefix>.created, .sold or .deleted.
func Subject(prefix string, kind market.EventKind) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	var suffix string
	switch kind {
	case market.EventItemCreated:
		suffix = "created"
	case market.EventItemSold:
		suffix = "sold"
	case market.EventItemDeleted:
		suffix = "deleted"
	default:
		suffix = strings.ToLower(string(kind))
	}
	return prefix + "." + suffix
}

type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

var _ market.Publisher = (*NATSPublisher)(nil)

func ConnectNATS(url, prefix string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("nftmarket publisher"),
		nats.Timeout(10 * time.Second),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			zap.L().With(zap.Error(err)).Error("NATS error")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			zap.L().Info("NATS connection closed")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			zap.L().With(zap.Error(err)).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			zap.L().With(zap.String("url", nc.ConnectedUrl())).Info("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	zap.L().With(zap.String("url", nc.ConnectedUrl())).Info("Connected to NATS")
	return NewNATSPublisher(nc, prefix), nil
}

func NewNATSPublisher(nc *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: prefix}
}

func (p *NATSPublisher) Publish(_ context.Context, ev market.Event) error {
	subject := Subject(p.prefix, ev.Kind)
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", subject, err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set("Nats-Msg-Id", ev.ID.String())
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	zap.L().With(
		zap.String("subject", subject),
		zap.Uint64("itemId", ev.Item.ID),
	).Debug("Published market event")
	return nil
}

// Close flushes pending messages before closing the connection.
func (p *NATSPublisher) Close() {
	if p.nc == nil || p.nc.IsClosed() {
		return
	}
	if err := p.nc.Drain(); err != nil {
		zap.L().With(zap.Error(err)).Error("Error draining NATS connection")
	}
	p.nc.Close()
}
