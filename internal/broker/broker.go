package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Event is the envelope every service on the bus speaks: a type tag and an
// opaque payload.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Handler processes one event. Returning an error only logs it; fanout
// consumers have no redelivery contract here.
type Handler func(ctx context.Context, ev Event) error

// Broker wraps one RabbitMQ connection with fanout publish/subscribe.
// Exchanges are declared lazily, one channel each.
type Broker struct {
	serviceName string
	conn        *amqp.Connection

	mu       sync.Mutex
	channels map[string]*amqp.Channel
}

func Connect(url, serviceName string) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("broker connect: %w", err)
	}
	log.Println("Connected to RabbitMQ")

	return &Broker{
		serviceName: serviceName,
		conn:        conn,
		channels:    make(map[string]*amqp.Channel),
	}, nil
}

func (b *Broker) declare(exchange string) (*amqp.Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.channels[exchange]; ok {
		return ch, nil
	}

	ch, err := b.conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", false, false, false, false, nil); err != nil {
		ch.Close()
		return nil, err
	}
	b.channels[exchange] = ch
	return ch, nil
}

// Publish sends a persistent JSON event to a fanout exchange.
func (b *Broker) Publish(ctx context.Context, exchange, eventType string, data any) error {
	ch, err := b.declare(exchange)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	body, err := json.Marshal(Event{Type: eventType, Data: payload})
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Body:         body,
	})
	if err != nil {
		return err
	}

	log.Printf("broker: sent message exchange=%s type=%s", exchange, eventType)
	return nil
}

// Subscribe binds a durable, service-named queue to the exchange and
// consumes until ctx is cancelled. Blocks; run it in its own goroutine.
func (b *Broker) Subscribe(ctx context.Context, exchange string, handler Handler) error {
	ch, err := b.declare(exchange)
	if err != nil {
		return err
	}

	queueName := fmt.Sprintf("%s.%s.all", b.serviceName, exchange)
	queue, err := ch.QueueDeclare(queueName, true, true, false, false, nil)
	if err != nil {
		return err
	}
	if err := ch.QueueBind(queue.Name, "", exchange, false, nil); err != nil {
		return err
	}
	log.Printf("broker: subscribed exchange=%s queue=%s", exchange, queue.Name)

	deliveries, err := ch.Consume(queue.Name, "", true, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("broker: delivery channel closed for %s", exchange)
			}
			var ev Event
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				log.Printf("broker: dropping malformed message exchange=%s: %v", exchange, err)
				continue
			}
			if err := handler(ctx, ev); err != nil {
				log.Printf("broker: handler failed exchange=%s type=%s: %v", exchange, ev.Type, err)
			}
		}
	}
}

func (b *Broker) Close() error {
	b.mu.Lock()
	for _, ch := range b.channels {
		ch.Close()
	}
	b.channels = make(map[string]*amqp.Channel)
	b.mu.Unlock()
	return b.conn.Close()
}
