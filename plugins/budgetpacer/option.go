package budgetpacer

import "github.com/bft-labs/bifrost/pkg/node"

// WithBudgetPacer returns a node Option that paces outbound messages by the
// budget cfg.Source reports.
//
// Usage:
//
//	n, err := node.New[netip.AddrPort, teammsg.Message](cfg, udp,
//	    budgetpacer.WithBudgetPacer(budgetpacer.Config{
//	        Interval: time.Second,
//	        Source:   gameController.Budget,
//	    }),
//	)
func WithBudgetPacer(cfg Config) node.Option {
	return node.WithPlugin(New(cfg))
}
