package broker

import (
	"fmt"
	"os"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Config struct {
	URL string
}

func LoadConfigFromEnv() (*Config, error) {
	url := os.Getenv("AMQP_URL")
	if url == "" {
		return nil, fmt.Errorf("AMQP_URL environment variable not set")
	}
	return &Config{URL: url}, nil
}

// ChannelPool hands out AMQP channels over one shared connection. A rented
// channel is exclusive to its caller until returned; returned channels are
// validity-checked and dead ones discarded.
type ChannelPool struct {
	conn *amqp.Connection

	mu   sync.Mutex
	idle []*amqp.Channel
}

func NewChannelPool(cfg Config) (*ChannelPool, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial amqp: %w", err)
	}
	return &ChannelPool{conn: conn}, nil
}

func (p *ChannelPool) Rent() (*amqp.Channel, error) {
	p.mu.Lock()
	for len(p.idle) > 0 {
		ch := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
		if !ch.IsClosed() {
			p.mu.Unlock()
			return ch, nil
		}
	}
	p.mu.Unlock()

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}
	return ch, nil
}

func (p *ChannelPool) Return(ch *amqp.Channel) {
	if ch == nil || ch.IsClosed() {
		return
	}
	p.mu.Lock()
	p.idle = append(p.idle, ch)
	p.mu.Unlock()
}

// Channel opens a dedicated channel outside the pool, for consumers that
// keep it for their whole lifetime.
func (p *ChannelPool) Channel() (*amqp.Channel, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}
	return ch, nil
}

func (p *ChannelPool) Close() error {
	p.mu.Lock()
	for _, ch := range p.idle {
		_ = ch.Close()
	}
	p.idle = nil
	p.mu.Unlock()
	return p.conn.Close()
}
