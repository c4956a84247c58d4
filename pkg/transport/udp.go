package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/bft-labs/bifrost/internal/ports"
)

const (
	// BasePort is added to the team number to derive the broadcast port.
	BasePort = 10000

	// DefaultMTU is the largest payload sent over UDP by default.
	DefaultMTU = 1024

	// DefaultBroadcast is the limited broadcast address.
	DefaultBroadcast = "255.255.255.255"
)

// TeamPort returns the broadcast port of a team.
func TeamPort(team int) int {
	return BasePort + team
}

// UDPConfig configures a [UDP] transport.
type UDPConfig struct {
	// ListenAddr is the local address to bind. Empty binds all interfaces
	// on Port.
	ListenAddr string

	// Port is used when ListenAddr is empty and as the destination port.
	Port int

	// Broadcast is the destination host or host:port. Empty uses
	// DefaultBroadcast on Port.
	Broadcast string

	MTU int

	// IgnoreSelf drops datagrams sent from this socket's own address, as
	// seen when the broadcast loops back.
	IgnoreSelf bool
}

func (c UDPConfig) listenAddr() string {
	if c.ListenAddr != "" {
		return c.ListenAddr
	}
	return fmt.Sprintf(":%d", c.Port)
}

func (c UDPConfig) destination() (netip.AddrPort, error) {
	if c.Broadcast == "" {
		return netip.ParseAddrPort(fmt.Sprintf("%s:%d", DefaultBroadcast, c.Port))
	}
	if ap, err := netip.ParseAddrPort(c.Broadcast); err == nil {
		return ap, nil
	}
	addr, err := netip.ParseAddr(c.Broadcast)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("transport: invalid broadcast address %q: %w", c.Broadcast, err)
	}
	return netip.AddrPortFrom(addr, uint16(c.Port)), nil
}

// UDP broadcasts datagrams over a single UDP socket that both sends and
// receives. Senders are identified by their address and port.
type UDP struct {
	conn *net.UDPConn
	dest netip.AddrPort
	mtu  int

	ignoreSelf bool
	localPort  uint16
	localAddrs map[netip.Addr]struct{}

	readMu sync.Mutex
	buf    []byte
}

var _ ports.Transport[netip.AddrPort] = (*UDP)(nil)

// ListenUDP binds the socket described by cfg. Go enables SO_BROADCAST on
// UDP sockets, so the limited broadcast address can be used directly.
func ListenUDP(cfg UDPConfig) (*UDP, error) {
	if cfg.MTU <= 0 {
		cfg.MTU = DefaultMTU
	}

	dest, err := cfg.destination()
	if err != nil {
		return nil, err
	}

	laddr, err := net.ResolveUDPAddr("udp4", cfg.listenAddr())
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %q: %w", cfg.listenAddr(), err)
	}

	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", laddr, err)
	}

	u := &UDP{
		conn:       conn,
		dest:       dest,
		mtu:        cfg.MTU,
		ignoreSelf: cfg.IgnoreSelf,
		localAddrs: make(map[netip.Addr]struct{}),
		buf:        make([]byte, cfg.MTU+1),
	}

	if local, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		u.localPort = uint16(local.Port)
	}
	if cfg.IgnoreSelf {
		if err := u.loadLocalAddrs(); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	return u, nil
}

func (u *UDP) loadLocalAddrs() error {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return fmt.Errorf("transport: list interface addresses: %w", err)
	}
	for _, a := range addrs {
		prefix, err := netip.ParsePrefix(a.String())
		if err != nil {
			continue
		}
		u.localAddrs[prefix.Addr().Unmap()] = struct{}{}
	}
	return nil
}

// LocalAddr returns the bound address.
func (u *UDP) LocalAddr() netip.AddrPort {
	if local, ok := u.conn.LocalAddr().(*net.UDPAddr); ok {
		ap := local.AddrPort()
		return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
	}
	return netip.AddrPort{}
}

func (u *UDP) MTU() int {
	return u.mtu
}

func (u *UDP) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(payload) > u.mtu {
		return tooLarge(len(payload), u.mtu)
	}

	if _, err := u.conn.WriteToUDPAddrPort(payload, u.dest); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return ErrClosed
		}
		return fmt.Errorf("transport: send to %s: %w", u.dest, err)
	}
	return nil
}

// Receive returns the next datagram not sent by this socket. Datagrams
// longer than the MTU are truncated by the kernel and dropped here.
func (u *UDP) Receive(ctx context.Context) (Datagram[netip.AddrPort], error) {
	u.readMu.Lock()
	defer u.readMu.Unlock()

	if err := ctx.Err(); err != nil {
		return Datagram[netip.AddrPort]{}, err
	}
	if err := u.conn.SetReadDeadline(time.Time{}); err != nil && errors.Is(err, net.ErrClosed) {
		return Datagram[netip.AddrPort]{}, ErrClosed
	}
	stop := context.AfterFunc(ctx, func() {
		_ = u.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		n, from, err := u.conn.ReadFromUDPAddrPort(u.buf)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Datagram[netip.AddrPort]{}, ctxErr
			}
			if errors.Is(err, net.ErrClosed) {
				return Datagram[netip.AddrPort]{}, ErrClosed
			}
			return Datagram[netip.AddrPort]{}, fmt.Errorf("transport: receive: %w", err)
		}

		from = netip.AddrPortFrom(from.Addr().Unmap(), from.Port())
		if n > u.mtu || u.isSelf(from) {
			continue
		}

		payload := make([]byte, n)
		copy(payload, u.buf[:n])
		return Datagram[netip.AddrPort]{Payload: payload, Sender: from, Arrival: time.Now()}, nil
	}
}

func (u *UDP) isSelf(from netip.AddrPort) bool {
	if !u.ignoreSelf || from.Port() != u.localPort {
		return false
	}
	_, ok := u.localAddrs[from.Addr()]
	return ok
}

func (u *UDP) Close() error {
	if err := u.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
