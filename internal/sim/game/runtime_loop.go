package game

import (
	"context"
	"time"

	"railcraft.ai/internal/sim/ids"
)

// Run ticks the game at the configured rate until ctx is done or Stop is
// called. Joins, leaves and commands received between ticks are applied at
// the next tick boundary in arrival order.
func (g *Game) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(g.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingCmds []CommandEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []ids.PlayerID

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.stop:
			return nil
		case req := <-g.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-g.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-g.inbox:
			pendingCmds = append(pendingCmds, env)
		case <-ticker.C:
			g.step(pendingJoins, pendingLeaves, pendingCmds)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingCmds = pendingCmds[:0]
		}
	}
}

func (g *Game) Stop() { close(g.stop) }
