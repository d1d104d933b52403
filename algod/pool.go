package algod

import (
	"fmt"

	"github.com/stathat/consistent"
	"github.com/thrylos-labs/sandnet/crypto/address"
)

// Pool pins each sender to one of several ledger nodes, so successive
// submissions from one account observe the same pool and round.
type Pool struct {
	ring    *consistent.Consistent
	clients map[string]*Client
}

// NewPool builds a pool over clients; at least one is required.
func NewPool(clients ...*Client) (*Pool, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("algod pool needs at least one node")
	}
	p := &Pool{
		ring:    consistent.New(),
		clients: make(map[string]*Client, len(clients)),
	}
	for _, c := range clients {
		if _, dup := p.clients[c.BaseURL()]; dup {
			continue
		}
		p.clients[c.BaseURL()] = c
		p.ring.Add(c.BaseURL())
	}
	return p, nil
}

// For returns the node assigned to sender.
func (p *Pool) For(sender address.Address) *Client {
	key, err := p.ring.Get(sender.String())
	if err != nil {
		// the ring is never empty after NewPool
		for _, c := range p.clients {
			return c
		}
	}
	return p.clients[key]
}

// Size is the number of distinct nodes.
func (p *Pool) Size() int {
	return len(p.clients)
}
