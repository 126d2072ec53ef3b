package trigger

import (
	"context"
	"fmt"
	"log"
	"net"
)

// maxDatagram is generous for a three-field JSON message.
const maxDatagram = 1024

// Handler consumes decoded trigger events. It is called from the listener's
// read goroutine and must not block.
type Handler func(Event)

// Listener receives trigger datagrams from remote sensor nodes. Delivery is
// at-most-once and unordered; bad datagrams are logged and skipped so one
// noisy sender can never stop the loop.
type Listener struct {
	conn   *net.UDPConn
	handle Handler
}

func Listen(host string, port int, handle Handler) (*Listener, error) {
	addr := &net.UDPAddr{IP: net.ParseIP(host), Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("udp listen on %s:%d: %w", host, port, err)
	}
	return &Listener{conn: conn, handle: handle}, nil
}

// Start begins the read loop. The listener closes its socket and exits when
// ctx is cancelled.
func (l *Listener) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()
	go l.readLoop()
}

func (l *Listener) readLoop() {
	buf := make([]byte, maxDatagram)
	for {
		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			// Socket closed on shutdown.
			return
		}

		ev, err := Decode(buf[:n])
		if err != nil {
			log.Printf("trigger: dropping datagram from %s: %v", addr, err)
			continue
		}
		l.handle(ev)
	}
}

// LocalAddr returns the bound address, useful when listening on port 0.
func (l *Listener) LocalAddr() *net.UDPAddr {
	return l.conn.LocalAddr().(*net.UDPAddr)
}

// Sender ships trigger events to the coordinator, fire-and-forget. A failed
// send is dropped: retrying later would misrepresent the physical timing.
type Sender struct {
	conn *net.UDPConn
}

func NewSender(host string, port int) (*Sender, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("resolve %s:%d: %w", host, port, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("udp dial %s: %w", addr, err)
	}
	return &Sender{conn: conn}, nil
}

func (s *Sender) Send(ev Event) error {
	data, err := ev.Encode()
	if err != nil {
		return err
	}
	if _, err := s.conn.Write(data); err != nil {
		return fmt.Errorf("udp send: %w", err)
	}
	return nil
}

func (s *Sender) Close() error {
	return s.conn.Close()
}
