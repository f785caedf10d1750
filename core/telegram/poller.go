package telegram

import (
	"context"
	"sync"
	"time"

	"kosyak-bot/core/utils"
)

// UpdateHandler processes one update. Handlers are invoked sequentially in
// update order; a slow handler delays the next poll, never reorders.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, upd Update)
}

// Poller drives long polling against getUpdates and feeds the handler.
type Poller struct {
	client  *Client
	handler UpdateHandler
	timeout int
	logger  *utils.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

func NewPoller(client *Client, handler UpdateHandler, timeoutSec int, logger *utils.Logger) *Poller {
	if timeoutSec <= 0 {
		timeoutSec = 30
	}
	return &Poller{client: client, handler: handler, timeout: timeoutSec, logger: logger}
}

func (p *Poller) StartWithContext(ctx context.Context) {
	if p == nil || p.client == nil || p.handler == nil {
		return
	}
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		p.loop(runCtx)
	}()
}

func (p *Poller) StopWithContext(ctx context.Context) error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	wasRunning := p.running
	p.mu.Unlock()
	if !wasRunning || cancel == nil {
		return nil
	}
	cancel()
	waitDone := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) loop(ctx context.Context) {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		updates, err := p.client.GetUpdates(ctx, GetUpdatesRequest{Offset: offset, Timeout: p.timeout})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Errorf("poll updates: %v", err)
			select {
			case <-time.After(3 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			p.handler.HandleUpdate(ctx, upd)
		}
	}
}
