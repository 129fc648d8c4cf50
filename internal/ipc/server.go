package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"castsync/internal/daemon"
	"castsync/internal/ledger"
	"castsync/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. The
// shutdown function, when non-nil, is invoked by the Stop RPC.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, shutdown func(), logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, shutdown: shutdown, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Castsync", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logging.NewComponentLogger(logger, "ipc"),
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon   *daemon.Daemon
	shutdown func()
	logger   *slog.Logger
	ctx      context.Context
}

// Status reports daemon runtime information.
func (s *service) Status(req StatusRequest, resp *StatusResponse) error {
	status, err := s.daemon.Status(s.ctx)
	if err != nil {
		return err
	}
	resp.Running = status.Running
	resp.PID = status.PID
	resp.LockFilePath = status.LockFilePath
	resp.DBPath = status.DBPath
	resp.QueueStats = map[string]int{
		string(ledger.StatusQueued):      status.Queue.Queued,
		string(ledger.StatusDownloading): status.Queue.Downloading,
		string(ledger.StatusCompleted):   status.Queue.Completed,
		string(ledger.StatusFailed):      status.Queue.Failed,
	}
	for _, feed := range status.Feeds {
		resp.Feeds = append(resp.Feeds, FeedStatus{
			Name:       feed.Name,
			State:      feed.State,
			Episodes:   feed.Episodes,
			LastSyncAt: feed.LastSyncAt,
			LastError:  feed.LastError,
		})
	}
	return nil
}

// Sync triggers an immediate pass.
func (s *service) Sync(req SyncRequest, resp *SyncResponse) error {
	if err := s.daemon.TriggerSync(req.Feed); err != nil {
		return err
	}
	resp.Triggered = true
	if req.Feed == "" {
		resp.Message = "sync triggered for all feeds"
	} else {
		resp.Message = "sync triggered for " + req.Feed
	}
	return nil
}

// Stop asks the daemon process to shut down.
func (s *service) Stop(req StopRequest, resp *StopResponse) error {
	if s.shutdown == nil {
		return errors.New("shutdown not supported over ipc")
	}
	resp.Stopping = true
	// Deferred so the RPC response reaches the client first.
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.shutdown()
	}()
	return nil
}

// Episodes lists the ledger for one feed.
func (s *service) Episodes(req EpisodesRequest, resp *EpisodesResponse) error {
	episodes, err := s.daemon.ListEpisodes(s.ctx, req.Feed)
	if err != nil {
		return err
	}
	for _, episode := range episodes {
		wire := Episode{
			Filename:     episode.Filename,
			VideoID:      episode.VideoID,
			RemoteTitle:  episode.RemoteTitle,
			PublishDate:  episode.PublishDate,
			DisplayOrder: episode.DisplayOrder,
		}
		if episode.MatchScore != nil {
			wire.MatchScore = *episode.MatchScore
		}
		resp.Episodes = append(resp.Episodes, wire)
	}
	return nil
}

// QueueList returns queue items optionally filtered by feed and status.
func (s *service) QueueList(req QueueListRequest, resp *QueueListResponse) error {
	statuses := make([]ledger.Status, 0, len(req.Statuses))
	for _, raw := range req.Statuses {
		status := ledger.Status(raw)
		if !status.Valid() {
			return fmt.Errorf("unknown status %q", raw)
		}
		statuses = append(statuses, status)
	}
	items, err := s.daemon.ListQueue(s.ctx, req.Feed, statuses)
	if err != nil {
		return err
	}
	for _, item := range items {
		resp.Items = append(resp.Items, QueueItem{
			ID:              item.ID,
			Feed:            item.Feed,
			VideoID:         item.VideoID,
			Title:           item.Title,
			Status:          string(item.Status),
			ProgressPercent: item.ProgressPercent,
			ErrorMessage:    item.ErrorMessage,
			Attempts:        item.Attempts,
			QueuedAt:        item.QueuedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	return nil
}

// QueueClearCompleted removes completed items from the queue.
func (s *service) QueueClearCompleted(req QueueClearCompletedRequest, resp *QueueClearCompletedResponse) error {
	removed, err := s.daemon.ClearCompleted(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

// QueueClearFailed removes failed items from the queue.
func (s *service) QueueClearFailed(req QueueClearFailedRequest, resp *QueueClearFailedResponse) error {
	removed, err := s.daemon.ClearFailed(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

// Activity returns recent activity log events.
func (s *service) Activity(req ActivityRequest, resp *ActivityResponse) error {
	events, err := s.daemon.RecentActivity(s.ctx, req.Feed, req.Limit)
	if err != nil {
		return err
	}
	for _, event := range events {
		resp.Events = append(resp.Events, ActivityEvent{
			Feed:      event.Feed,
			EventType: event.EventType,
			Message:   event.Message,
			CreatedAt: event.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	return nil
}
