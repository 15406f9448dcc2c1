// Package registry keeps this node's presence in ZooKeeper so peers can
// discover serving endpoints per region. When ZooKeeper is unreachable the
// registry degrades to an in-process node list, so a standalone server still
// advertises its own endpoint.
package registry

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-zookeeper/zk"
)

const (
	rootPath    = "/meeting"
	serversPath = "/meeting/servers"

	defaultRegion = "default"
)

// NodeInfo identifies a serving endpoint.
type NodeInfo struct {
	Host   string
	Port   int
	Region string
	Meta   string
}

func (n NodeInfo) name() string {
	return n.Host + ":" + strconv.Itoa(n.Port)
}

// Conn is the slice of the ZooKeeper client the registry uses; tests
// substitute a fake.
type Conn interface {
	Exists(path string) (bool, *zk.Stat, error)
	Create(path string, data []byte, flags int32, acl []zk.ACL) (string, error)
	Children(path string) ([]string, *zk.Stat, error)
	Delete(path string, version int32) error
	State() zk.State
	Close()
}

// ServerRegistry manages ephemeral registration nodes under
// /meeting/servers/<region>/<host>:<port>.
type ServerRegistry struct {
	hosts          []string
	sessionTimeout time.Duration

	mu      sync.Mutex
	conn    Conn
	enabled bool
	nodes   []NodeInfo

	// dial is swapped out in tests.
	dial func() (Conn, error)
}

// New builds a registry for the comma-separated host list. An empty list
// disables ZooKeeper entirely.
func New(hosts string, sessionTimeout time.Duration) *ServerRegistry {
	if sessionTimeout <= 0 {
		sessionTimeout = 5 * time.Second
	}
	r := &ServerRegistry{
		sessionTimeout: sessionTimeout,
		enabled:        hosts != "",
	}
	if hosts != "" {
		r.hosts = strings.Split(hosts, ",")
	} else {
		slog.Warn("zookeeper hosts empty, registry disabled")
	}
	r.dial = r.dialZk
	return r
}

func (r *ServerRegistry) dialZk() (Conn, error) {
	conn, _, err := zk.Connect(r.hosts, r.sessionTimeout, zk.WithLogInfo(false))
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(5 * time.Second)
	for conn.State() != zk.StateHasSession {
		if time.Now().After(deadline) {
			conn.Close()
			return nil, fmt.Errorf("zookeeper connection timeout (state=%s)", conn.State())
		}
		time.Sleep(100 * time.Millisecond)
	}
	return conn, nil
}

// ensureConnected dials on first use. A failed dial disables the registry
// for the rest of the process. Callers hold r.mu.
func (r *ServerRegistry) ensureConnected() bool {
	if !r.enabled {
		return false
	}
	if r.conn != nil {
		return true
	}
	conn, err := r.dial()
	if err != nil {
		slog.Warn("zookeeper connect failed, registry disabled", "hosts", r.hosts, "err", err)
		r.enabled = false
		return false
	}
	slog.Info("zookeeper connected", "hosts", r.hosts)
	r.conn = conn
	return true
}

// ensurePath creates path if missing. Existing nodes are success.
func (r *ServerRegistry) ensurePath(path string, ephemeral bool, data string) error {
	exists, _, err := r.conn.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	var flags int32
	if ephemeral {
		flags = zk.FlagEphemeral
	}
	_, err = r.conn.Create(path, []byte(data), flags, zk.WorldACL(zk.PermAll))
	if err == zk.ErrNodeExists {
		return nil
	}
	return err
}

// Register advertises the node as an ephemeral child of its region path.
func (r *ServerRegistry) Register(node NodeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if node.Region == "" {
		node.Region = defaultRegion
	}
	if !r.ensureConnected() {
		// Keep the node locally so List still serves it.
		r.nodes = append(r.nodes, node)
		return
	}

	base := serversPath + "/" + node.Region
	for _, p := range []string{rootPath, serversPath, base} {
		if err := r.ensurePath(p, false, ""); err != nil {
			slog.Error("registry ensure path failed", "path", p, "err", err)
			return
		}
	}

	path := base + "/" + node.name()
	if err := r.ensurePath(path, true, node.Meta); err != nil {
		slog.Error("registry register failed", "path", path, "err", err)
		return
	}
	r.nodes = append(r.nodes, node)
	slog.Info("registry registered node", "host", node.Host, "port", node.Port, "region", node.Region)
}

// Unregister deletes the node's path and drops it from the local list.
func (r *ServerRegistry) Unregister(node NodeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if node.Region == "" {
		node.Region = defaultRegion
	}
	if r.conn != nil {
		path := serversPath + "/" + node.Region + "/" + node.name()
		if err := r.conn.Delete(path, -1); err != nil && err != zk.ErrNoNode {
			slog.Warn("registry unregister failed", "path", path, "err", err)
		}
	}
	for i, n := range r.nodes {
		if n.Host == node.Host && n.Port == node.Port && n.Region == node.Region {
			r.nodes = append(r.nodes[:i], r.nodes[i+1:]...)
			break
		}
	}
	slog.Info("registry unregistered node", "host", node.Host, "port", node.Port, "region", node.Region)
}

// List returns the known endpoints for a region. An empty region maps to
// "default"; an empty result falls back to the local node list.
func (r *ServerRegistry) List(region string) []NodeInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	if region == "" {
		region = defaultRegion
	}

	if !r.enabled || r.conn == nil {
		return r.localListLocked(region)
	}

	children, _, err := r.conn.Children(serversPath + "/" + region)
	if err != nil {
		if err != zk.ErrNoNode {
			slog.Warn("registry list failed", "region", region, "err", err)
		}
		return r.localListLocked(region)
	}

	var result []NodeInfo
	for _, name := range children {
		host, portStr, ok := strings.Cut(name, ":")
		if !ok {
			continue
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			continue
		}
		result = append(result, NodeInfo{Host: host, Port: port, Region: region})
	}
	if len(result) == 0 {
		return r.localListLocked(region)
	}
	return result
}

// localListLocked filters the in-process list by region; when nothing
// matches it returns everything known.
func (r *ServerRegistry) localListLocked(region string) []NodeInfo {
	var filtered []NodeInfo
	for _, n := range r.nodes {
		if n.Region == region {
			filtered = append(filtered, n)
		}
	}
	if len(filtered) == 0 {
		return append([]NodeInfo(nil), r.nodes...)
	}
	return filtered
}

// Close tears down the ZooKeeper session, letting the ephemeral nodes
// expire.
func (r *ServerRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
}
