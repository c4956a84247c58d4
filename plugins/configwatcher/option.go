package configwatcher

import "github.com/bft-labs/bifrost/pkg/node"

// WithConfigWatcher returns a node Option that reloads rate thresholds from
// the node's ConfigPath whenever the file changes.
//
// Usage:
//
//	n, err := node.New[netip.AddrPort, teammsg.Message](cfg, udp,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithConfigWatcher(cfg Config) node.Option {
	return node.WithPlugin(New(cfg))
}

// WithDefaultConfigWatcher returns a node Option that enables config
// watching with default settings (debounce 100ms).
func WithDefaultConfigWatcher() node.Option {
	return WithConfigWatcher(DefaultConfig())
}
