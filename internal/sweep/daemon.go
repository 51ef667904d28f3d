package sweep

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/quorumforge/bountyboard/internal/lifecycle"
)

// Daemon runs sweep passes on a cron schedule until its context is canceled.
type Daemon struct {
	engine *lifecycle.Engine
	caller string
	expr   string
	out    io.Writer
}

func NewDaemon(e *lifecycle.Engine, caller, cronExpr string, out io.Writer) *Daemon {
	return &Daemon{engine: e, caller: caller, expr: cronExpr, out: out}
}

// RunLoop fires one pass immediately, then on the cron schedule. It blocks
// until ctx is canceled. Pass failures are logged and the loop continues.
func (d *Daemon) RunLoop(ctx context.Context) {
	d.pass()

	timer := time.NewTimer(nextCronDuration(d.expr))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			d.pass()
			timer.Reset(nextCronDuration(d.expr))
		}
	}
}

func (d *Daemon) pass() {
	res, err := Run(d.engine, d.caller)
	if err != nil {
		log.Printf("sweep: pass failed: %v", err)
		return
	}
	if d.out != nil {
		Report(d.out, res)
	}
}
