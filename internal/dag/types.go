package dag

import (
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/specialistvlad/assetgrid/internal/runner"
)

// Graph is a collection of nodes and their dependencies, representing a DAG.
// All operations on the graph are concurrency-safe.
type Graph struct {
	mutex sync.RWMutex
	nodes map[string]*node
	// order keeps node ids in insertion order.
	order []string
}

// node is a vertex of a Graph.
type node struct {
	id         string
	deps       map[string]*node
	dependents map[string]*node
}

// nodeState is the lifecycle of one scheduled task.
type nodeState int32

const (
	pending nodeState = iota
	running
	finished
)

// taskNode is one task scheduled by an Executor run.
type taskNode struct {
	task       *registry.Task
	deps       []*taskNode
	dependents []*taskNode
	depCount   atomic.Int32
	state      atomic.Int32
	result     runner.Result
}

// claim moves the node out of pending. Only the caller that wins the claim
// may record a result for it.
func (n *taskNode) claim(next nodeState) bool {
	return n.state.CompareAndSwap(int32(pending), int32(next))
}
