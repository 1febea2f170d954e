package state

import "sync"

// ConnectionSnapshot is a point-in-time copy of ConnectionStatus.
type ConnectionSnapshot struct {
	MCPConnected     bool     `json:"mcpConnected"`
	MCPError         string   `json:"mcpError,omitempty"`
	MCPTools         []string `json:"mcpTools,omitempty"`
	CopilotConnected bool     `json:"copilotConnected"`
	CopilotError     string   `json:"copilotError,omitempty"`
}

// ConnectionStatus is the last-known connectivity of the remote tool service
// and the model backend. Writers are the startup probes and every remote
// call outcome; readers only take snapshots.
type ConnectionStatus struct {
	mu   sync.RWMutex
	snap ConnectionSnapshot
}

func (c *ConnectionStatus) SetMCP(connected bool, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.MCPConnected = connected
	c.snap.MCPError = errMsg
}

func (c *ConnectionStatus) SetMCPTools(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.MCPTools = append([]string(nil), names...)
}

func (c *ConnectionStatus) SetCopilot(connected bool, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.CopilotConnected = connected
	c.snap.CopilotError = errMsg
}

func (c *ConnectionStatus) Snapshot() ConnectionSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := c.snap
	out.MCPTools = append([]string(nil), c.snap.MCPTools...)
	return out
}
