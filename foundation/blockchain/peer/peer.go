// Package peer maintains the peer related information such as the set
// of known peers and their status.
package peer

import (
	"sort"
	"strings"
	"sync"
)

// Peer represents information about a Node in the network.
type Peer struct {
	Host string `json:"host"`
}

// New constructs a new peer value. A trailing slash and any scheme are
// dropped so the same node is always keyed the same way.
func New(host string) Peer {
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimSuffix(host, "/")

	return Peer{
		Host: host,
	}
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host == New(host).Host
}

// =============================================================================

// PeerStatus represents information about the status
// of any given peer.
type PeerStatus struct {
	LatestBlockHash string `json:"latest_block_hash"`
	Length          uint64 `json:"length"`
	KnownPeers      []Peer `json:"known_peers"`
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Add adds a new node to the set. It reports whether the peer was new.
func (ps *PeerSet) Add(peer Peer) bool {
	if peer.Host == "" {
		return false
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer]
	if !exists {
		ps.set[peer] = struct{}{}
		return true
	}

	return false
}

// Remove removes a node from the set.
func (ps *PeerSet) Remove(peer Peer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, peer)
}

// Copy returns a list of the known peers excluding the specified host,
// sorted by host.
func (ps *PeerSet) Copy(host string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var peers []Peer
	for peer := range ps.set {
		if !peer.Match(host) {
			peers = append(peers, peer)
		}
	}

	sort.Slice(peers, func(i, j int) bool { return peers[i].Host < peers[j].Host })

	return peers
}
