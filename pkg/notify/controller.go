// pkg/notify/controller.go
package notify

import (
	"errors"
	"time"
)

// ErrProductionLocked means manual trigger cycles are disabled on this
// deployment.
var ErrProductionLocked = errors.New("manual trigger is disabled on this deployment")

// Controller is the operational facade over the scheduler: mode switches,
// manual single cycles, and status reporting. It adds no pipeline logic of
// its own.
type Controller struct {
	sched            *Scheduler
	productionLocked bool
}

func NewController(sched *Scheduler, productionLocked bool) *Controller {
	return &Controller{sched: sched, productionLocked: productionLocked}
}

func (c *Controller) EnterProductionMode() {
	c.sched.Start()
}

func (c *Controller) EnterTestMode() {
	c.sched.StartTest()
}

func (c *Controller) Stop() {
	c.sched.Stop()
}

// TriggerOnce runs one synchronous due-check-and-dispatch cycle through
// the exact same path the ticker uses.
func (c *Controller) TriggerOnce(mode TickMode) error {
	if c.productionLocked {
		return ErrProductionLocked
	}
	c.sched.RunOnce(mode, time.Now())
	return nil
}

type Status struct {
	Mode     string     `json:"mode"`
	Running  bool       `json:"running"`
	NextTick *time.Time `json:"nextTick,omitempty"`
}

func (c *Controller) Status() Status {
	state := c.sched.State()
	status := Status{
		Mode:    state.String(),
		Running: state != StateStopped,
	}
	if next, ok := c.sched.NextTick(); ok {
		status.NextTick = &next
	}
	return status
}
