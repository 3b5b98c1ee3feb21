package network

import "errors"

// Per-package error values, in the same style as cache.go/netlink.go in the
// teacher repo: a var block of sentinel errors owned by the package that
// detects them.
var (
	// ErrNoRoute means the routing table has no entry for (current, dest).
	ErrNoRoute = errors.New("network: no route to destination")
	// ErrNoLink means the chosen next hop has no corresponding Link record.
	ErrNoLink = errors.New("network: no link to next hop")
	// ErrTTL means a packet's hop count exceeded the configured maximum
	// (loop guard).
	ErrTTL = errors.New("network: hop limit exceeded")
	// ErrDuplicatePacketID is an InvariantViolation: the network assigned
	// the same packet id twice within one run.
	ErrDuplicatePacketID = errors.New("network: duplicate packet id")
)

// DropReason names why a packet never reached its destination, for
// observability (spec §6 drop event, §7 RoutingError).
type DropReason uint8

const (
	DropNoRoute DropReason = iota
	DropNoLink
	DropTTL
	DropQueueFull
)

func (r DropReason) String() string {
	switch r {
	case DropNoRoute:
		return "no_route"
	case DropNoLink:
		return "no_link"
	case DropTTL:
		return "ttl"
	case DropQueueFull:
		return "queue_full"
	default:
		return "unknown"
	}
}
