package main

import (
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"github.com/bft-labs/bifrost"
	"github.com/bft-labs/bifrost/internal/teammsg"
	"github.com/bft-labs/bifrost/pkg/broadcast"
	"github.com/bft-labs/bifrost/pkg/log"
	"github.com/bft-labs/bifrost/pkg/node"
	"github.com/bft-labs/bifrost/plugins/budgetpacer"
)

var errNodeCrashed = errors.New("node crashed")

// whistleWindow is how long a teammate's whistle report suppresses our own.
const whistleWindow = 2 * time.Second

type runOptions struct {
	budget  uint16
	players uint8
	pose    string
}

func (c *cli) runCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Join the team channel, answer pings and log team messages",
		Long: `Join the team channel, answer pings and log team messages.

On unix systems SIGUSR1 reports a detected whistle unless a teammate
reported one within the last two seconds, and SIGUSR2 broadcasts the
referee pose given by --pose.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, opts)
		},
	}

	cmd.Flags().Uint16Var(&opts.budget, "budget", 0, "team message budget for a match starting now; paces sending when set")
	cmd.Flags().Uint8Var(&opts.players, "players", 5, "players sharing the message budget")
	cmd.Flags().StringVar(&opts.pose, "pose", "", "referee pose broadcast on SIGUSR2")
	return cmd
}

func (c *cli) run(cmd *cobra.Command, run runOptions) error {
	var pose teammsg.RefereePose
	if run.pose != "" {
		p, err := teammsg.ParsePose(run.pose)
		if err != nil {
			return err
		}
		pose = p
	}

	opts := []node.Option{c.watcher()}
	if run.budget > 0 {
		opts = append(opts, budgetpacer.WithBudgetPacer(budgetpacer.Config{
			Interval: time.Second,
			Source:   budgetpacer.FixedBudget(time.Now(), run.budget, run.players, nil),
		}))
	}

	n, err := c.start(cmd, opts...)
	if err != nil {
		return err
	}

	c.notify(daemon.SdNotifyReady)

	var watchdog <-chan time.Time
	if interval, err := daemon.SdWatchdogEnabled(false); err == nil && interval > 0 {
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		watchdog = t.C
	}

	events := make(chan os.Signal, 1)
	if whistleSignal != nil {
		signal.Notify(events, whistleSignal, poseSignal)
		defer signal.Stop(events)
	}

	ticker := time.NewTicker(c.cfg.CycleInterval)
	defer ticker.Stop()

	var (
		lastWhistle time.Time
		crashed     bool
	)
	ctx := cmd.Context()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop

		case <-watchdog:
			c.notify(daemon.SdNotifyWatchdog)

		case sig := <-events:
			switch sig {
			case whistleSignal:
				c.whistle(n, lastWhistle)
			case poseSignal:
				c.pose(n, pose, run.pose != "")
			}

		case <-ticker.C:
			if n.Status() == node.StateCrashed {
				c.logger.Error("node crashed")
				crashed = true
				break loop
			}
			if t, ok := c.drain(n); ok {
				lastWhistle = t
			}
		}
	}

	if !crashed {
		c.logger.Info("received signal, stopping...")
	}
	c.notify(daemon.SdNotifyStopping)

	stats := n.Stats()
	stopErr := n.Stop()
	c.logger.Info("node stopped",
		log.Uint64("packets_sent", stats.PacketsSent),
		log.Uint64("packets_received", stats.PacketsReceived),
		log.Uint64("messages_received", stats.MessagesReceived),
	)
	if crashed {
		return errNodeCrashed
	}
	return stopErr
}

// drain answers pings and logs every other received message. It reports
// the arrival of the latest whistle report.
func (c *cli) drain(n *bifrost.Node) (time.Time, bool) {
	for {
		from, ok, err := teammsg.AnswerPing(n)
		if !ok {
			break
		}
		if err != nil {
			c.logger.Warn("pong not queued", log.String("to", from.String()), log.Err(err))
			continue
		}
		c.logger.Debug("answering ping", log.String("from", from.String()))
	}

	var (
		whistle time.Time
		heard   bool
	)
	for {
		e, ok := n.Pop()
		if !ok {
			return whistle, heard
		}

		switch e.Message.Kind {
		case teammsg.KindDetectedWhistle:
			whistle, heard = e.Arrival, true
			c.logger.Info("teammate heard the whistle", log.String("from", e.Sender.String()))
		case teammsg.KindRecognizedRefereePose:
			c.logger.Info("teammate recognized referee pose",
				log.String("from", e.Sender.String()),
				log.String("pose", e.Message.Pose.String()))
		default:
			c.logger.Debug("message", log.String("from", e.Sender.String()), log.String("message", e.Message.String()))
		}
	}
}

func (c *cli) whistle(n *bifrost.Node, lastReport time.Time) {
	now := time.Now()
	if !lastReport.IsZero() && now.Sub(lastReport) < whistleWindow {
		c.logger.Info("whistle already reported by a teammate")
		return
	}

	queued, err := teammsg.ReportWhistle(n, now.Add(-whistleWindow))
	switch {
	case err != nil:
		c.logger.Warn("whistle not queued", log.Err(err))
	case queued:
		c.logger.Info("reporting whistle")
	default:
		c.logger.Info("whistle already reported by a teammate")
	}
}

func (c *cli) pose(n *bifrost.Node, pose teammsg.RefereePose, set bool) {
	if !set {
		c.logger.Warn("no referee pose configured, use --pose")
		return
	}
	if err := n.MergeOrPushBy(teammsg.RecognizedRefereePose(pose), broadcast.Within(time.Second)); err != nil {
		c.logger.Warn("pose not queued", log.Err(err))
		return
	}
	c.logger.Info("reporting referee pose", log.String("pose", pose.String()))
}
