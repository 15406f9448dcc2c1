package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetgrid/backend/internal/geo"
	"github.com/meetgrid/backend/internal/registry"
)

func TestSelectPicksRegionNode(t *testing.T) {
	reg := registry.New("", time.Second)
	reg.Register(registry.NodeInfo{Host: "10.0.0.1", Port: 50051, Region: "eu"})
	reg.Register(registry.NodeInfo{Host: "10.0.0.2", Port: 50051, Region: "us"})

	b := NewLoadBalancer(reg)

	node, ok := b.Select(geo.Info{Region: "us"})
	require.True(t, ok)
	assert.Equal(t, "10.0.0.2", node.Host)
}

func TestSelectEmptyRegionUsesDefault(t *testing.T) {
	reg := registry.New("", time.Second)
	reg.Register(registry.NodeInfo{Host: "10.0.0.1", Port: 50051})

	b := NewLoadBalancer(reg)

	node, ok := b.Select(geo.Info{})
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1", node.Host)
	assert.Equal(t, "default", node.Region)
}

func TestSelectNoNodes(t *testing.T) {
	b := NewLoadBalancer(registry.New("", time.Second))

	_, ok := b.Select(geo.Info{Region: "eu"})
	assert.False(t, ok)
}

func TestSelectNilRegistry(t *testing.T) {
	b := NewLoadBalancer(nil)
	_, ok := b.Select(geo.Info{})
	assert.False(t, ok)
}
