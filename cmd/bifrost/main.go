package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/bifrost"
	"github.com/bft-labs/bifrost/internal/cliconfig"
	"github.com/bft-labs/bifrost/pkg/log"
	"github.com/bft-labs/bifrost/pkg/node"
	"github.com/bft-labs/bifrost/pkg/transport"
	"github.com/bft-labs/bifrost/plugins/configwatcher"
)

const helpDescription = `
Broadcast team messages over UDP, batched into as few packets as their
deadlines allow.

Every player of a team shares one broadcast port (10000 + team number).
Messages wait in an outbound buffer until the earliest deadline is close,
then go out together with everything else that fits in the packet.

Settings come from the config file, then BIFROST_* environment variables,
then flags. Rate thresholds are reloaded when the config file changes.
`

var exampleUsage = strings.TrimSpace(`
  bifrost run --team 7 --player 2
  bifrost ping --team 7 --count 5
  bifrost run --config $HOME/.bifrost/config.toml --late-threshold 1s
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli is the state shared by the subcommands.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	changed map[string]bool
	logger  *log.ZerologAdapter
}

func main() {
	c := &cli{cfg: cliconfig.DefaultConfig()}
	root := newRootCommand(c)
	root.AddCommand(c.runCommand(), c.pingCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger := c.logger
		if logger == nil {
			logger = log.NewZerologAdapter()
		}
		logger.Error("bifrost", log.Err(err))
		os.Exit(1)
	}
}

// newRootCommand builds the root command with the flags shared by every
// subcommand bound to c.
func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "bifrost",
		Short:         "Deadline-aware team message broadcasting",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.bifrost/config.toml)")
	flags.IntVar(&c.cfg.TeamNumber, "team", c.cfg.TeamNumber, "team number, selects the broadcast port")
	flags.IntVar(&c.cfg.PlayerNumber, "player", c.cfg.PlayerNumber, "player number")
	flags.IntVar(&c.cfg.Port, "port", c.cfg.Port, "UDP port (default: 10000 + team)")
	flags.StringVar(&c.cfg.ListenAddr, "listen", c.cfg.ListenAddr, "local address to bind (default: all interfaces)")
	flags.StringVar(&c.cfg.Broadcast, "broadcast", c.cfg.Broadcast, "broadcast address (default: "+transport.DefaultBroadcast+")")
	flags.IntVar(&c.cfg.MTU, "mtu", c.cfg.MTU, "largest datagram sent or accepted")
	flags.BoolVar(&c.cfg.IgnoreSelf, "ignore-self", c.cfg.IgnoreSelf, "drop datagrams sent by this host")
	flags.DurationVar(&c.cfg.CycleInterval, "cycle", c.cfg.CycleInterval, "how often the outbound buffer is checked")
	flags.DurationVar(&c.cfg.LateThreshold, "late-threshold", c.cfg.LateThreshold, "send once the earliest deadline is this close")
	flags.DurationVar(&c.cfg.AutomaticDeadline, "automatic-deadline", c.cfg.AutomaticDeadline, "deadline of messages pushed without one")
	flags.DurationVar(&c.cfg.EarlyThreshold, "early-threshold", c.cfg.EarlyThreshold, "only pack messages due within this window")
	flags.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (trace, debug, info, warn, error, off)")

	return root
}

// load resolves the configuration: file, then environment, then flags.
func (c *cli) load(cmd *cobra.Command) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	c.changed = map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { c.changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, c.changed); err != nil {
			return err
		}
		c.cfg.ConfigPath = cfgFile
	}

	if err := cliconfig.ApplyEnvConfig(&c.cfg, c.changed); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	if err := c.cfg.Validate(); err != nil {
		return err
	}

	level, err := log.ParseLevel(c.cfg.LogLevel)
	if err != nil {
		return err
	}
	c.logger = log.NewConsoleAdapter(os.Stderr, level).With(
		log.Int("team", c.cfg.TeamNumber),
		log.Int("player", c.cfg.PlayerNumber),
	)

	c.logger.Logger().Debug().Interface("config", c.cfg).Msg("configuration")
	return nil
}

// start binds the team port and starts a node on it.
func (c *cli) start(cmd *cobra.Command, opts ...node.Option) (*bifrost.Node, error) {
	opts = append([]node.Option{
		node.WithLogger(c.logger),
		node.WithEventHandler(&eventLogger{logger: c.logger.Logger()}),
	}, opts...)

	n, err := bifrost.Listen(c.cfg.UDP(), c.cfg.Node(), opts...)
	if err != nil {
		return nil, err
	}
	if err := n.Start(cmd.Context()); err != nil {
		_ = n.Stop()
		return nil, fmt.Errorf("start node: %w", err)
	}

	c.logger.Info("node started",
		log.String("listen", c.cfg.ListenAddr),
		log.Int("port", c.cfg.Port),
	)
	return n, nil
}

// watcher returns the config watcher option. Flags given on the command
// line keep their value across reloads.
func (c *cli) watcher() node.Option {
	cfg := configwatcher.DefaultConfig()
	cfg.Pinned = c.changed
	return configwatcher.WithConfigWatcher(cfg)
}

// notify reports state to systemd. It is a no-op outside a unit.
func (c *cli) notify(state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		c.logger.Debug("sd_notify failed", log.Err(err))
	}
}

// eventLogger logs node events that are not logged by the node itself.
type eventLogger struct {
	node.BaseEventHandler
	logger zerolog.Logger
}

func (e *eventLogger) OnStateChange(ev node.StateChangeEvent) {
	e.logger.Debug().
		Stringer("from", ev.Previous).
		Stringer("to", ev.Current).
		Str("reason", ev.Reason).
		Msg("state change")
}

func (e *eventLogger) OnSendSuccess(ev node.SendSuccessEvent) {
	e.logger.Trace().Int("bytes", ev.Bytes).Dur("took", ev.Duration).Msg("packet sent")
}

func (e *eventLogger) OnReceive(ev node.ReceiveEvent) {
	e.logger.Trace().Int("bytes", ev.Bytes).Int("messages", ev.Messages).Msg("packet received")
}
