// Package models defines the core types shared by the node execution engine.
package models

import (
	"errors"
	"sync"
)

// Resource is an owned handle acquired during preprocessing and released
// during finalization (connections, clients, cancel handles).
type Resource interface {
	Close() error
}

// ResourceFunc adapts a plain release function to the Resource interface.
type ResourceFunc func() error

func (f ResourceFunc) Close() error { return f() }

// NodeExecutionContext carries the identity, input data, configuration and
// acquired resources of a single node invocation. It is created immediately
// before preprocessing, flows through all four lifecycle phases and is
// discarded after finalization. A context is owned by exactly one invocation
// and is never reused.
type NodeExecutionContext struct {
	NodeID      string `json:"node_id"`
	NodeType    string `json:"node_type"`
	WorkflowID  string `json:"workflow_id"`
	ExecutionID string `json:"execution_id"`

	// InputData is the payload produced by upstream nodes. Strategies must
	// treat it as read-only.
	InputData map[string]any `json:"input_data,omitempty"`

	// Config is the node-type specific configuration, resolved by the caller
	// from the node definition. Read-only during execution.
	Config map[string]any `json:"config,omitempty"`

	mu        sync.Mutex
	resources []Resource
	released  bool
}

// NewNodeExecutionContext builds a context for one node invocation. All four
// identifiers are caller-supplied and never reassigned.
func NewNodeExecutionContext(nodeID, nodeType, workflowID, executionID string, inputData, config map[string]any) *NodeExecutionContext {
	return &NodeExecutionContext{
		NodeID:      nodeID,
		NodeType:    nodeType,
		WorkflowID:  workflowID,
		ExecutionID: executionID,
		InputData:   inputData,
		Config:      config,
	}
}

// AddResource registers a resource for release during finalization. Resources
// are released in reverse acquisition order.
func (c *NodeExecutionContext) AddResource(r Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resources = append(c.resources, r)
}

// ResourceCount reports how many resources are currently registered.
func (c *NodeExecutionContext) ResourceCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.resources)
}

// ReleaseResources closes every registered resource exactly once, in reverse
// acquisition order. Subsequent calls are no-ops, which keeps the finalization
// retry path (cleanup attempted again after a cleanup panic) safe.
func (c *NodeExecutionContext) ReleaseResources() error {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()

		return nil
	}

	c.released = true
	resources := c.resources
	c.resources = nil
	c.mu.Unlock()

	var errs []error

	for i := len(resources) - 1; i >= 0; i-- {
		if err := resources[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
