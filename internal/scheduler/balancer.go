// Package scheduler picks the media endpoint handed to joining clients.
package scheduler

import (
	"github.com/meetgrid/backend/internal/geo"
	"github.com/meetgrid/backend/internal/registry"
)

// LoadBalancer selects a serving node from the registry. The policy is
// first-match within the caller's region; callers fall back to the local
// endpoint when nothing is registered.
type LoadBalancer struct {
	registry *registry.ServerRegistry
}

func NewLoadBalancer(reg *registry.ServerRegistry) *LoadBalancer {
	return &LoadBalancer{registry: reg}
}

// Select returns the node for the caller's region, or false when the
// registry knows of none.
func (b *LoadBalancer) Select(info geo.Info) (registry.NodeInfo, bool) {
	if b.registry == nil {
		return registry.NodeInfo{}, false
	}
	nodes := b.registry.List(info.Region)
	if len(nodes) == 0 {
		return registry.NodeInfo{}, false
	}
	return nodes[0], true
}
