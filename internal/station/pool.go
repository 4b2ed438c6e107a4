package station

import (
	"net/http"
	"sync"
)

// Pool lazily creates one Client per host and reuses it for the process lifetime.
type Pool struct {
	mu      sync.Mutex
	clients map[string]Client
	factory func(host string) Client
}

// NewPool returns a pool of HTTP clients sharing httpClient.
func NewPool(httpClient *http.Client) *Pool {
	return NewPoolWithFactory(func(host string) Client {
		return NewHTTPClient(httpClient, host)
	})
}

// NewPoolWithFactory returns a pool that builds clients with factory.
func NewPoolWithFactory(factory func(host string) Client) *Pool {
	return &Pool{
		clients: make(map[string]Client),
		factory: factory,
	}
}

// Get returns the client for host, creating it on first use.
func (p *Pool) Get(host string) Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.clients[host]
	if !ok {
		c = p.factory(host)
		p.clients[host] = c
	}
	return c
}

// Len reports how many clients have been created.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}
