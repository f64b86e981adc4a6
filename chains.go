package verifier

import (
	"fmt"
	"sort"
)

// ChainConfig names an EVM chain a payment intent may be bound to.
type ChainConfig struct {
	// ChainID is the EIP-155 chain id carried in the signing domain.
	ChainID uint64

	// NetworkID is the short network name used in logs and metric labels.
	NetworkID string

	// Testnet marks chains without real value.
	Testnet bool
}

// Mainnet chain configurations
var (
	EthereumMainnet  = ChainConfig{ChainID: 1, NetworkID: "ethereum"}
	BaseMainnet      = ChainConfig{ChainID: 8453, NetworkID: "base"}
	PolygonMainnet   = ChainConfig{ChainID: 137, NetworkID: "polygon"}
	AvalancheMainnet = ChainConfig{ChainID: 43114, NetworkID: "avalanche"}
)

// Testnet chain configurations
var (
	EthereumSepolia = ChainConfig{ChainID: 11155111, NetworkID: "sepolia", Testnet: true}
	BaseSepolia     = ChainConfig{ChainID: 84532, NetworkID: "base-sepolia", Testnet: true}
	PolygonAmoy     = ChainConfig{ChainID: 80002, NetworkID: "polygon-amoy", Testnet: true}
	AvalancheFuji   = ChainConfig{ChainID: 43113, NetworkID: "avalanche-fuji", Testnet: true}
)

var knownChains = map[uint64]ChainConfig{}

func init() {
	for _, c := range []ChainConfig{
		EthereumMainnet, BaseMainnet, PolygonMainnet, AvalancheMainnet,
		EthereumSepolia, BaseSepolia, PolygonAmoy, AvalancheFuji,
	} {
		knownChains[c.ChainID] = c
	}
}

// LookupChain returns the configuration of a well-known chain.
func LookupChain(chainID uint64) (ChainConfig, bool) {
	c, ok := knownChains[chainID]
	return c, ok
}

// LookupNetwork finds a well-known chain by its network name.
func LookupNetwork(networkID string) (ChainConfig, bool) {
	for _, c := range knownChains {
		if c.NetworkID == networkID {
			return c, true
		}
	}
	return ChainConfig{}, false
}

// ChainLabel returns the network name of chainID, or "other" for chains that
// are not well known. Keeps metric label cardinality bounded.
func ChainLabel(chainID uint64) string {
	if c, ok := knownChains[chainID]; ok {
		return c.NetworkID
	}
	return "other"
}

// ChainPolicy restricts which chain ids may appear in a signing domain. The
// zero value allows every chain.
type ChainPolicy struct {
	allowed map[uint64]struct{}
}

// NewChainPolicy allows only the given chain ids. With no ids every chain is
// allowed.
func NewChainPolicy(chainIDs ...uint64) ChainPolicy {
	if len(chainIDs) == 0 {
		return ChainPolicy{}
	}
	allowed := make(map[uint64]struct{}, len(chainIDs))
	for _, id := range chainIDs {
		allowed[id] = struct{}{}
	}
	return ChainPolicy{allowed: allowed}
}

// Allows reports whether chainID may be verified.
func (p ChainPolicy) Allows(chainID uint64) bool {
	if len(p.allowed) == 0 {
		return true
	}
	_, ok := p.allowed[chainID]
	return ok
}

// Check returns an error wrapping ErrUnsupportedChain when chainID is not allowed.
func (p ChainPolicy) Check(chainID uint64) error {
	if p.Allows(chainID) {
		return nil
	}
	return fmt.Errorf("%w: chainId %d", ErrUnsupportedChain, chainID)
}

// ChainIDs returns the allowed ids in ascending order, or nil when every
// chain is allowed.
func (p ChainPolicy) ChainIDs() []uint64 {
	if len(p.allowed) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(p.allowed))
	for id := range p.allowed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
