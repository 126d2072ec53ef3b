package timing

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/jbevemyr/rocktimer/internal/trigger"
)

// Notifier receives a full status snapshot after every state transition.
// Implementations must not block the coordinator.
type Notifier interface {
	Notify(StatusSnapshot)
}

// Announcer is handed the tee-to-hog split of a just-completed session,
// fire-and-forget.
type Announcer interface {
	AnnounceSplit(ms float64)
}

// StatusSnapshot is the observer-facing view of the whole system.
type StatusSnapshot struct {
	State   State                   `json:"state"`
	Session SessionSnapshot         `json:"session"`
	Sensors map[string]DeviceStatus `json:"sensors"`
}

// CommandResult is the synchronous answer to an arm/disarm command.
type CommandResult struct {
	Success bool  `json:"success"`
	State   State `json:"state"`
}

type cmdKind int

const (
	cmdArm cmdKind = iota
	cmdDisarm
)

type command struct {
	kind  cmdKind
	reply chan CommandResult
}

// envelope is one item on the coordinator's inbox: either a trigger event
// or a control command, never both.
type envelope struct {
	ev  *trigger.Event
	cmd *command
}

// Options tune the coordinator. Zero values fall back to sane defaults.
type Options struct {
	// StartSplit is the role whose first trigger moves an armed session
	// into measuring. Defaults to tee; deployments without a tee sensor
	// configure hog_close.
	StartSplit Role

	// IdleTimeout reverts ARMED/MEASURING back to IDLE after this long
	// without an accepted trigger, so the system is not left armed
	// indefinitely. Zero disables the timeout.
	IdleTimeout time.Duration

	// QueueSize bounds the inbox. Producers drop (and log) when full.
	QueueSize int
}

// Coordinator owns the single active session. Every trigger and command is
// funneled through one inbox drained by one goroutine, so session state is
// never touched concurrently. Producers (UDP receiver, local sensor, HTTP
// and WebSocket handlers) only ever enqueue.
type Coordinator struct {
	startSplit  Role
	idleTimeout time.Duration

	devices   *Registry
	history   *History
	notifier  Notifier
	announcer Announcer

	inbox chan envelope
	now   func() time.Time

	// Owned by the run goroutine.
	state        State
	session      Session
	lastRecordID int
	idleTimer    *time.Timer

	published atomic.Pointer[StatusSnapshot]
}

func NewCoordinator(opts Options, devices *Registry, history *History, notifier Notifier, announcer Announcer) *Coordinator {
	if opts.StartSplit == "" {
		opts.StartSplit = RoleTee
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	c := &Coordinator{
		startSplit:  opts.StartSplit,
		idleTimeout: opts.IdleTimeout,
		devices:     devices,
		history:     history,
		notifier:    notifier,
		announcer:   announcer,
		inbox:       make(chan envelope, opts.QueueSize),
		now:         time.Now,
		state:       Idle,
	}
	// Created stopped; arming resets it.
	c.idleTimer = time.NewTimer(time.Hour)
	c.stopIdleTimer()
	snap := c.buildSnapshot()
	c.published.Store(&snap)
	return c
}

// Start launches the consumer goroutine. It exits when ctx is cancelled.
func (c *Coordinator) Start(ctx context.Context) {
	go c.run(ctx)
}

// Submit enqueues a trigger event. Called by the UDP receiver and the local
// capture unit; never blocks. Unknown devices and a full inbox both drop
// the event with a log line.
func (c *Coordinator) Submit(ev trigger.Event) {
	if _, ok := c.devices.Role(ev.DeviceID); !ok {
		log.Printf("coordinator: dropping trigger from unknown device %q", ev.DeviceID)
		return
	}
	c.devices.Seen(ev.DeviceID)

	e := ev
	select {
	case c.inbox <- envelope{ev: &e}:
	default:
		log.Printf("coordinator: inbox full, dropping trigger from %s", ev.DeviceID)
	}
}

// Arm opens a fresh session and starts listening for triggers. Arming while
// already armed or measuring is a rearm: the open session is discarded
// (without being recorded) and a new one starts.
func (c *Coordinator) Arm(ctx context.Context) CommandResult {
	return c.sendCommand(ctx, cmdArm)
}

// Disarm abandons the current session and returns to idle.
func (c *Coordinator) Disarm(ctx context.Context) CommandResult {
	return c.sendCommand(ctx, cmdDisarm)
}

func (c *Coordinator) sendCommand(ctx context.Context, kind cmdKind) CommandResult {
	cmd := &command{kind: kind, reply: make(chan CommandResult, 1)}
	select {
	case c.inbox <- envelope{cmd: cmd}:
	case <-ctx.Done():
		return CommandResult{Success: false, State: c.Status().State}
	}
	select {
	case res := <-cmd.reply:
		return res
	case <-ctx.Done():
		return CommandResult{Success: false, State: c.Status().State}
	}
}

// Status returns the most recently published snapshot. Safe from any
// goroutine.
func (c *Coordinator) Status() StatusSnapshot {
	return *c.published.Load()
}

// History exposes the record store for the HTTP read endpoints.
func (c *Coordinator) History() *History {
	return c.history
}

func (c *Coordinator) run(ctx context.Context) {
	defer c.idleTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-c.inbox:
			if env.ev != nil {
				c.handleTrigger(*env.ev)
			} else if env.cmd != nil {
				c.handleCommand(env.cmd)
			}
		case <-c.idleTimer.C:
			c.handleIdleTimeout()
		}
	}
}

func (c *Coordinator) handleCommand(cmd *command) {
	var res CommandResult
	switch cmd.kind {
	case cmdArm:
		c.startSession()
		res = CommandResult{Success: true, State: c.state}
	case cmdDisarm:
		c.toIdle()
		res = CommandResult{Success: true, State: c.state}
	}
	cmd.reply <- res
	c.emit()
}

func (c *Coordinator) handleTrigger(ev trigger.Event) {
	role, ok := c.devices.Role(ev.DeviceID)
	if !ok {
		return
	}
	log.Printf("coordinator: trigger %s (%s) @ %d", ev.DeviceID, role, ev.TimestampNS)

	if role == RoleArm {
		c.handleArmSensor()
		return
	}

	switch c.state {
	case Idle:
		log.Printf("coordinator: ignoring %s trigger, not armed", role)
	case Armed:
		c.handleWhileArmed(role, ev.TimestampNS)
	case Measuring:
		c.handleWhileMeasuring(role, ev.TimestampNS)
	case Completed:
		c.handleWhileCompleted(role, ev.TimestampNS)
	}
}

// handleArmSensor arms from the proximity sensor. Unlike the explicit arm
// command it never rearms: a stray IR trigger must not discard a
// measurement in flight.
func (c *Coordinator) handleArmSensor() {
	if c.state == Armed || c.state == Measuring {
		log.Printf("coordinator: arm sensor ignored, already %s", c.state)
		return
	}
	c.startSession()
	c.emit()
}

func (c *Coordinator) handleWhileArmed(role Role, ts int64) {
	if role != c.startSplit {
		// Scenario: hog_close arriving while the start split is still
		// missing stays ignored until the start split is recorded.
		log.Printf("coordinator: ignoring %s trigger, waiting for %s", role, c.startSplit)
		return
	}

	switch role {
	case RoleTee:
		c.session.TeeTimeNS = ts
		c.state = Measuring
	case RoleHogClose:
		// Tee-less deployment: the start split is also the mandatory
		// split, so the session completes on the same trigger.
		c.session.HogCloseTimeNS = ts
		c.complete()
		return
	default:
		log.Printf("coordinator: role %s cannot be a start split", role)
		return
	}
	c.resetIdleTimer()
	c.emit()
}

func (c *Coordinator) handleWhileMeasuring(role Role, ts int64) {
	switch role {
	case RoleTee:
		log.Printf("coordinator: duplicate tee trigger ignored")
	case RoleHogClose:
		if c.session.HogCloseTimeNS != 0 {
			log.Printf("coordinator: duplicate hog_close trigger ignored")
			return
		}
		if c.session.TeeTimeNS != 0 && ts <= c.session.TeeTimeNS {
			log.Printf("coordinator: hog_close timestamp precedes tee, ignored")
			return
		}
		c.session.HogCloseTimeNS = ts
		c.complete()
	case RoleHogFar:
		log.Printf("coordinator: hog_far before hog_close, ignored")
	}
}

// handleWhileCompleted handles the one sanctioned post-completion mutation:
// the far hog sensor fires after completion is declared.
func (c *Coordinator) handleWhileCompleted(role Role, ts int64) {
	if role != RoleHogFar {
		log.Printf("coordinator: stale %s trigger after completion, ignored", role)
		return
	}
	if c.session.HogFarTimeNS != 0 {
		log.Printf("coordinator: duplicate hog_far trigger ignored")
		return
	}
	if ts <= c.session.HogCloseTimeNS {
		log.Printf("coordinator: hog_far timestamp precedes hog_close, ignored")
		return
	}

	c.session.HogFarTimeNS = ts
	if hh, ok := c.session.HogToHogMS(); ok {
		if tt, ok := c.session.TotalMS(); ok {
			c.history.SetFarSplit(c.lastRecordID, hh, tt)
			log.Printf("coordinator: hog-to-hog %.1fms, total %.1fms", hh, tt)
		} else {
			c.history.SetFarSplit(c.lastRecordID, hh, hh)
		}
	}
	c.emit()
}

func (c *Coordinator) complete() {
	c.state = Completed
	c.stopIdleTimer()

	rec := Record{Timestamp: c.session.StartedAt}
	var splitMS float64
	if ms, ok := c.session.TeeToHogCloseMS(); ok {
		splitMS = ms
		rec.TeeToHogCloseMS = &splitMS
	}
	rec = c.history.Append(rec)
	c.lastRecordID = rec.ID

	if rec.TeeToHogCloseMS != nil {
		log.Printf("coordinator: completed, tee to hog %.1fms", splitMS)
		if c.announcer != nil {
			c.announcer.AnnounceSplit(splitMS)
		}
	} else {
		log.Printf("coordinator: completed (no tee split)")
	}
	c.emit()
}

func (c *Coordinator) startSession() {
	c.session.reset(c.now())
	c.state = Armed
	c.resetIdleTimer()
	log.Printf("coordinator: armed")
}

func (c *Coordinator) toIdle() {
	c.session.reset(time.Time{})
	c.state = Idle
	c.stopIdleTimer()
	log.Printf("coordinator: idle")
}

func (c *Coordinator) handleIdleTimeout() {
	if c.state != Armed && c.state != Measuring {
		return
	}
	log.Printf("coordinator: no progress for %s, reverting to idle", c.idleTimeout)
	c.toIdle()
	c.emit()
}

func (c *Coordinator) resetIdleTimer() {
	if c.idleTimeout <= 0 {
		return
	}
	c.stopIdleTimer()
	c.idleTimer.Reset(c.idleTimeout)
}

func (c *Coordinator) stopIdleTimer() {
	if !c.idleTimer.Stop() {
		select {
		case <-c.idleTimer.C:
		default:
		}
	}
}

func (c *Coordinator) buildSnapshot() StatusSnapshot {
	return StatusSnapshot{
		State:   c.state,
		Session: c.session.Snapshot(),
		Sensors: c.devices.Status(),
	}
}

// emit publishes the current snapshot and hands it to the notifier.
func (c *Coordinator) emit() {
	snap := c.buildSnapshot()
	c.published.Store(&snap)
	if c.notifier != nil {
		c.notifier.Notify(snap)
	}
}
