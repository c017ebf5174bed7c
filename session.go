package main

import (
	"context"
	"log"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// channelClient is the slice of the MCP client surface the gateway uses on
// the secondary channel. Tests substitute fakes through channelManager.dial.
type channelClient interface {
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

type channelState int

const (
	channelDisconnected channelState = iota
	channelConnecting
	channelConnected
)

// channelManager holds at most one live session to the upstream server's MCP
// endpoint. The session is established lazily on first use, reused while
// healthy, invalidated on any call failure so the next call dials fresh, and
// closed on shutdown. The mutex serializes connection establishment: two
// concurrent first-calls share one dial instead of racing.
type channelManager struct {
	mu       sync.Mutex
	state    channelState
	session  channelClient
	endpoint string
	dial     func(ctx context.Context) (channelClient, error)
}

func newChannelManager(cfg *Config) *channelManager {
	endpoint := cfg.ServerBaseURL + mcpEndpointPath
	token := cfg.APIToken
	return &channelManager{
		endpoint: endpoint,
		dial: func(ctx context.Context) (channelClient, error) {
			return dialChannel(ctx, endpoint, token)
		},
	}
}

func dialChannel(ctx context.Context, endpoint, token string) (channelClient, error) {
	var opts []transport.StreamableHTTPCOption
	if token != "" {
		opts = append(opts, transport.WithHTTPHeaders(map[string]string{
			"Authorization": "Bearer " + token,
		}))
	}
	c, err := client.NewStreamableHttpClient(endpoint, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{Name: gatewayName, Version: gatewayVersion}
	if _, err := c.Initialize(ctx, initRequest); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// acquire returns the cached session, dialing one if none is live. Idempotent
// while the session stays healthy.
func (m *channelManager) acquire(ctx context.Context) (channelClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == channelConnected && m.session != nil {
		return m.session, nil
	}
	m.state = channelConnecting
	log.Printf("<channel> connecting to %s", m.endpoint)
	session, err := m.dial(ctx)
	if err != nil {
		m.state = channelDisconnected
		m.session = nil
		return nil, err
	}
	m.state = channelConnected
	m.session = session
	log.Printf("<channel> connected")
	return session, nil
}

// invalidate drops the cached session so the next call dials fresh. Called on
// any transport error before the error propagates; a retry never reuses a
// poisoned handle.
func (m *channelManager) invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		_ = m.session.Close()
		m.session = nil
	}
	m.state = channelDisconnected
	log.Printf("<channel> session invalidated")
}

// call proxies one named remote procedure through the channel.
func (m *channelManager) call(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error) {
	session, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}
	request := mcp.CallToolRequest{}
	request.Params.Name = tool
	request.Params.Arguments = args
	result, err := session.CallTool(ctx, request)
	if err != nil {
		m.invalidate()
		return nil, err
	}
	return result, nil
}

// Close tears down any live session. Called once on process shutdown.
func (m *channelManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		_ = m.session.Close()
		m.session = nil
		log.Printf("<channel> session closed")
	}
	m.state = channelDisconnected
}
