package state

import (
	"github.com/ledgerd/powchain/foundation/blockchain/accounts"
	"github.com/ledgerd/powchain/foundation/blockchain/database"
	"github.com/ledgerd/powchain/foundation/blockchain/genesis"
	"github.com/ledgerd/powchain/foundation/blockchain/peer"
)

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveAddress returns the account of this node.
func (s *State) RetrieveAddress() database.AccountID {
	return database.AccountID(s.identity.Address())
}

// IsAutoMining reports whether accepted transactions start a mining
// operation without being asked.
func (s *State) IsAutoMining() bool {
	return s.autoMine
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.LatestBlock()
}

// RetrieveChain returns a copy of the entire chain.
func (s *State) RetrieveChain() []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.Copy()
}

// RetrieveChainLength returns the number of blocks including genesis.
func (s *State) RetrieveChainLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.db.Length()
}

// RetrieveMempool returns a copy of the mempool in arrival order.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// RetrieveAccounts returns a copy of the account balances.
func (s *State) RetrieveAccounts() map[database.AccountID]accounts.Info {
	return s.accounts.Copy()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrieveStatus returns the status this node reports to its peers.
func (s *State) RetrieveStatus() peer.PeerStatus {
	s.mu.RLock()
	latest := s.db.LatestBlock()
	length := s.db.Length()
	s.mu.RUnlock()

	return peer.PeerStatus{
		LatestBlockHash: latest.Hash(),
		Length:          uint64(length),
		KnownPeers:      s.RetrieveKnownPeers(),
	}
}

// AddKnownPeer provides the ability to add a new peer. The node's own
// host is never added.
func (s *State) AddKnownPeer(pr peer.Peer) bool {
	if pr.Match(s.host) {
		return false
	}

	return s.knownPeers.Add(pr)
}

// RemoveKnownPeer removes the peer from the known peer list.
func (s *State) RemoveKnownPeer(pr peer.Peer) {
	s.knownPeers.Remove(pr)
}
