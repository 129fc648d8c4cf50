package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Castsync.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sync triggers an immediate pass for a feed, or all feeds when feed is
// empty.
func (c *Client) Sync(feed string) (*SyncResponse, error) {
	var resp SyncResponse
	if err := c.client.Call("Castsync.Sync", SyncRequest{Feed: feed}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop asks the daemon process to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Castsync.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Episodes lists the ledger for one feed.
func (c *Client) Episodes(feed string) (*EpisodesResponse, error) {
	var resp EpisodesResponse
	if err := c.client.Call("Castsync.Episodes", EpisodesRequest{Feed: feed}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueList returns queue items optionally filtered by feed and statuses.
func (c *Client) QueueList(feed string, statuses []string) (*QueueListResponse, error) {
	var resp QueueListResponse
	if err := c.client.Call("Castsync.QueueList", QueueListRequest{Feed: feed, Statuses: statuses}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClearCompleted removes completed items from the queue.
func (c *Client) QueueClearCompleted() (*QueueClearCompletedResponse, error) {
	var resp QueueClearCompletedResponse
	if err := c.client.Call("Castsync.QueueClearCompleted", QueueClearCompletedRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClearFailed removes failed items from the queue.
func (c *Client) QueueClearFailed() (*QueueClearFailedResponse, error) {
	var resp QueueClearFailedResponse
	if err := c.client.Call("Castsync.QueueClearFailed", QueueClearFailedRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Activity returns recent activity log events.
func (c *Client) Activity(feed string, limit int) (*ActivityResponse, error) {
	var resp ActivityResponse
	if err := c.client.Call("Castsync.Activity", ActivityRequest{Feed: feed, Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
