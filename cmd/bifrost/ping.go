package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/bifrost/internal/teammsg"
	"github.com/bft-labs/bifrost/pkg/broadcast"
	"github.com/bft-labs/bifrost/pkg/log"
)

// errNoPongs makes ping exit non-zero when nobody answered.
var errNoPongs = errors.New("no pongs received")

func (c *cli) pingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Broadcast pings and report the pongs of teammates",
		Long: `Broadcast pings and report the pongs of teammates.

Teammates running "bifrost run" answer within a second of receiving a ping.
The round trip reported for each pong is measured from the latest ping sent
before it arrived.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.ping(cmd)
		},
	}

	cmd.Flags().DurationVar(&c.cfg.PingInterval, "interval", c.cfg.PingInterval, "time between pings")
	cmd.Flags().IntVar(&c.cfg.PingCount, "count", c.cfg.PingCount, "number of pings to send")
	return cmd
}

func (c *cli) ping(cmd *cobra.Command) error {
	n, err := c.start(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := n.Stop(); err != nil {
			c.logger.Warn("stop failed", log.Err(err))
		}
	}()

	ctx := cmd.Context()

	pingTicker := time.NewTicker(c.cfg.PingInterval)
	defer pingTicker.Stop()
	pollTicker := time.NewTicker(c.cfg.CycleInterval)
	defer pollTicker.Stop()

	var (
		sent     int
		lastPing time.Time
		pongs    int
		peers    = map[string]int{}
		deadline <-chan time.Time
	)

	send := func() {
		if err := n.PushBy(teammsg.Ping(), broadcast.ASAP); err != nil {
			c.logger.Warn("ping not queued", log.Err(err))
			return
		}
		sent++
		lastPing = time.Now()
		c.logger.Info("ping", log.Int("seq", sent))

		if sent >= c.cfg.PingCount {
			pingTicker.Stop()
			// Give the last pong its full delay plus one interval.
			deadline = time.After(teammsg.PongDelay + c.cfg.PingInterval)
		}
	}
	send()

	for {
		select {
		case <-ctx.Done():
			return c.summary(sent, pongs, peers)

		case <-deadline:
			return c.summary(sent, pongs, peers)

		case <-pingTicker.C:
			send()

		case <-pollTicker.C:
			for {
				if _, ok, _ := teammsg.AnswerPing(n); !ok {
					break
				}
			}
			for {
				e, ok := teammsg.TakePong(n)
				if !ok {
					break
				}
				pongs++
				peers[e.Sender.String()]++
				c.logger.Info("pong",
					log.String("from", e.Sender.String()),
					log.Duration("rtt", e.Arrival.Sub(lastPing)),
				)
			}
			// Anything else is not for us.
			for {
				if _, ok := n.Pop(); !ok {
					break
				}
			}
		}
	}
}

func (c *cli) summary(sent, pongs int, peers map[string]int) error {
	c.logger.Info("ping statistics",
		log.Int("sent", sent),
		log.Int("pongs", pongs),
		log.Int("peers", len(peers)),
	)
	if pongs == 0 {
		return errNoPongs
	}
	return nil
}
