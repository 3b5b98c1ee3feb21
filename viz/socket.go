package viz

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sync"
)

// Socket broadcasts trace Events, as JSON-Lines, to every client connected
// to a unix domain socket, so a simulation in progress can be tailed live
// instead of only replayed after it finishes. Adapted from the
// m-lab/tcp-info eventsocket package, which does the same thing for
// real-socket open/close events; here it carries viz.Event records instead.
type Socket struct {
	eventC       chan Event
	filename     string
	clients      map[net.Conn]struct{}
	unixListener net.Listener
	mutex        sync.Mutex
	servingWG    sync.WaitGroup
}

// NewSocket creates a Socket that will listen on the given unix domain
// socket path once Listen is called.
func NewSocket(filename string) *Socket {
	return &Socket{
		filename: filename,
		eventC:   make(chan Event, 1000),
		clients:  make(map[net.Conn]struct{}),
	}
}

func (s *Socket) addClient(c net.Conn) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.clients[c] = struct{}{}
}

func (s *Socket) removeClient(c net.Conn) {
	s.servingWG.Add(1)
	defer s.servingWG.Done()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
}

func (s *Socket) sendToAllListeners(data string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for c := range s.clients {
		if _, err := fmt.Fprintln(c, data); err != nil {
			go s.removeClient(c)
			go c.Close()
		}
	}
}

func (s *Socket) notifyClients(ctx context.Context) {
	s.servingWG.Add(1)
	defer s.servingWG.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.eventC:
			if !ok {
				return
			}
			b, err := json.Marshal(event)
			if err != nil {
				log.Printf("viz: could not marshal event %+v: %v", event, err)
				continue
			}
			s.sendToAllListeners(string(b))
		}
	}
}

// Listen binds the unix domain socket. Call Serve afterwards to start
// accepting connections.
func (s *Socket) Listen() error {
	s.servingWG.Add(1)
	var err error
	s.unixListener, err = net.Listen("unix", s.filename)
	return err
}

// Serve accepts client connections until ctx is canceled. Intended to run
// in its own goroutine; the simulation kernel itself remains single
// threaded, and never blocks on Serve or Publish.
func (s *Socket) Serve(ctx context.Context) error {
	defer s.servingWG.Done()
	derivedCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.notifyClients(derivedCtx)

	s.servingWG.Add(1)
	go func() {
		<-derivedCtx.Done()
		s.unixListener.Close()
		close(s.eventC)
		s.servingWG.Done()
	}()

	for derivedCtx.Err() == nil {
		conn, err := s.unixListener.Accept()
		if err != nil {
			return err
		}
		s.addClient(conn)
	}
	return nil
}

// Publish queues event for broadcast to all connected clients. It never
// blocks the caller for long: the channel is buffered, and a full channel
// simply drops the event rather than stalling the simulation kernel.
func (s *Socket) Publish(e Event) {
	select {
	case s.eventC <- e:
	default:
		log.Printf("viz: socket subscriber channel full, dropping event kind=%s", e.Kind)
	}
}
