package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sync"

	"go.uber.org/zap"

	"nftmarket/pkg/market"
	"nftmarket/pkg/units"
)

const queueSize = 64

var (
	ErrQueueFull = errors.New("notification queue full")
	ErrClosed    = errors.New("notifier closed")
)

// SaleNotifier emails a fixed recipient about every MarketItemSold event.
// Mail goes out from a background worker so the engine never waits on
// SendGrid.
type SaleNotifier struct {
	email EmailService
	to    string

	mu     sync.RWMutex
	closed bool
	queue  chan market.Event
	wg     sync.WaitGroup
}

var _ market.Publisher = (*SaleNotifier)(nil)

func NewSaleNotifier(email EmailService, to string) *SaleNotifier {
	n := &SaleNotifier{
		email: email,
		to:    to,
		queue: make(chan market.Event, queueSize),
	}
	n.wg.Add(1)
	go n.run()
	return n
}

func (n *SaleNotifier) Publish(_ context.Context, ev market.Event) error {
	if ev.Kind != market.EventItemSold {
		return nil
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrClosed
	}
	select {
	case n.queue <- ev:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close sends what is queued and stops the worker.
func (n *SaleNotifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()
	n.wg.Wait()
}

func (n *SaleNotifier) run() {
	defer n.wg.Done()
	for ev := range n.queue {
		subject, text, htmlBody := saleMessage(ev)
		if err := n.email.SendEmail(subject, n.to, text, htmlBody); err != nil {
			zap.L().With(zap.Uint64("itemId", ev.Item.ID), zap.Error(err)).Error("Failed to send sale notification")
			continue
		}
		zap.L().With(zap.Uint64("itemId", ev.Item.ID), zap.String("to", n.to)).Info("Sale notification sent")
	}
}

func saleMessage(ev market.Event) (subject, text, htmlBody string) {
	item := ev.Item
	price := units.FormatEther(item.Price)
	subject = fmt.Sprintf("Market item #%d sold for %s ETH", item.ID, price)
	text = fmt.Sprintf(
		"Item #%d (asset %d of %s) was sold by %s to %s for %s ETH at %s.",
		item.ID, item.AssetID, item.AssetContract.Hex(), item.Seller.Hex(), item.Buyer.Hex(), price,
		ev.At.UTC().Format("2006-01-02 15:04:05 MST"),
	)
	htmlBody = "<p>" + html.EscapeString(text) + "</p>"
	return subject, text, htmlBody
}
