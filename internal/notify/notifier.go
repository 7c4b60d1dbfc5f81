// README: Receipt notifier; publishes fulfilled-order receipts to a RabbitMQ fanout.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/infra"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/modules/order"
)

type receiptMessage struct {
	OrderID     string    `json:"order_id"`
	Status      string    `json:"status"`
	FulfilledAt time.Time `json:"fulfilled_at"`
}

// AMQPNotifier publishes one persistent JSON receipt per fulfilled order.
// Downstream consumers (mail, push) drain the fanout queue on their own
// schedule; a failed publish is logged by the caller and never retried here.
type AMQPNotifier struct {
	mq *infra.MQ
}

func NewAMQPNotifier(mq *infra.MQ) *AMQPNotifier {
	return &AMQPNotifier{mq: mq}
}

func (n *AMQPNotifier) NotifyFulfilled(ctx context.Context, o *order.Order) error {
	body, err := json.Marshal(receiptMessage{
		OrderID:     string(o.ID),
		Status:      string(o.Status),
		FulfilledAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return n.mq.PublishPersistent(ctx, infra.ReceiptsExchange, body)
}

// Noop backs deployments without a broker and tests.
type Noop struct{}

func (Noop) NotifyFulfilled(context.Context, *order.Order) error { return nil }
