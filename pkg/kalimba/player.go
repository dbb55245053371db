package kalimba

import (
	"context"
	"log/slog"

	"github.com/james-see/autokalimba/pkg/steno"
)

type command struct {
	fn   func()
	done chan struct{}
}

// Player runs the controller, arbiter and steno decoder on a single goroutine.
// All of its methods are safe to call from any goroutine; they block until
// Run has processed the request or ctx is done.
type Player struct {
	ctrl    *Controller
	arbiter *Arbiter
	decoder *steno.Decoder
	cmds    chan command
	stopped chan struct{}
	logger  *slog.Logger
}

// NewPlayer wires an arbiter and steno decoder around ctrl.
func NewPlayer(ctrl *Controller, keys map[string]string, stenoBindings []string, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	arbiter := NewArbiter(ctrl, keys)
	return &Player{
		ctrl:    ctrl,
		arbiter: arbiter,
		decoder: steno.NewDecoder(stenoBindings, arbiter),
		cmds:    make(chan command),
		stopped: make(chan struct{}),
		logger:  logger,
	}
}

// Run processes requests in arrival order until ctx is done, then releases
// every sounding target.
func (p *Player) Run(ctx context.Context) error {
	defer close(p.stopped)
	p.logger.Debug("player started", "targets", p.ctrl.Registry().Len())
	for {
		select {
		case <-ctx.Done():
			p.arbiter.ReleaseAll()
			p.ctrl.StopAll()
			p.logger.Debug("player stopped")
			return ctx.Err()
		case cmd := <-p.cmds:
			cmd.fn()
			close(cmd.done)
		}
	}
}

func (p *Player) do(ctx context.Context, fn func()) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case p.cmds <- cmd:
	case <-p.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PointerDown starts target for pointer id.
func (p *Player) PointerDown(ctx context.Context, id int, target string) (bool, error) {
	var ok bool
	if err := p.do(ctx, func() { ok = p.arbiter.PointerDown(id, target) }); err != nil {
		return false, err
	}
	return ok, nil
}

// PointerUp releases pointer id.
func (p *Player) PointerUp(ctx context.Context, id int) error {
	return p.do(ctx, func() { p.arbiter.PointerUp(id) })
}

// KeyDown handles a key press.
func (p *Player) KeyDown(ctx context.Context, ev KeyEvent) (bool, error) {
	var ok bool
	if err := p.do(ctx, func() { ok = p.arbiter.KeyDown(ev) }); err != nil {
		return false, err
	}
	return ok, nil
}

// KeyUp handles a key release.
func (p *Player) KeyUp(ctx context.Context, ev KeyEvent) error {
	return p.do(ctx, func() { p.arbiter.KeyUp(ev) })
}

// StenoReport feeds one steno keyboard report to the decoder.
func (p *Player) StenoReport(ctx context.Context, bits uint32) error {
	return p.do(ctx, func() {
		p.logger.Debug("steno report", "chord", steno.Chord(bits), "previous", steno.Chord(p.decoder.Last()))
		p.decoder.Process(bits)
	})
}

// StenoReset releases all steno keys, e.g. after the device went away.
func (p *Player) StenoReset(ctx context.Context) error {
	return p.do(ctx, func() { p.decoder.Reset() })
}

// ReleaseAll stops everything that is sounding.
func (p *Player) ReleaseAll(ctx context.Context) error {
	return p.do(ctx, func() {
		p.arbiter.ReleaseAll()
		p.decoder.Reset()
		p.ctrl.StopAll()
	})
}

// IsActive reports whether target is sounding.
func (p *Player) IsActive(ctx context.Context, target string) (bool, error) {
	var active bool
	if err := p.do(ctx, func() { active = p.ctrl.IsActive(target) }); err != nil {
		return false, err
	}
	return active, nil
}

// Target returns a snapshot of one target.
func (p *Player) Target(ctx context.Context, name string) (TargetState, bool, error) {
	var (
		state TargetState
		found bool
	)
	err := p.do(ctx, func() {
		if t, ok := p.ctrl.Registry().Get(name); ok {
			state, found = t.state(), true
		}
	})
	if err != nil {
		return TargetState{}, false, err
	}
	return state, found, nil
}

// Targets returns a snapshot of all targets in catalog order.
func (p *Player) Targets(ctx context.Context) ([]TargetState, error) {
	var states []TargetState
	if err := p.do(ctx, func() { states = p.ctrl.Registry().States() }); err != nil {
		return nil, err
	}
	return states, nil
}

// Settings returns the settings in effect.
func (p *Player) Settings(ctx context.Context) (Settings, error) {
	var s Settings
	if err := p.do(ctx, func() { s = p.ctrl.Settings() }); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// SetSettings replaces the settings.
func (p *Player) SetSettings(ctx context.Context, s Settings) error {
	return p.do(ctx, func() { p.ctrl.SetSettings(s) })
}

// UpdateSettings applies fn to the current settings and returns the result.
func (p *Player) UpdateSettings(ctx context.Context, fn func(*Settings)) (Settings, error) {
	var s Settings
	err := p.do(ctx, func() {
		s = p.ctrl.Settings()
		fn(&s)
		p.ctrl.SetSettings(s)
	})
	if err != nil {
		return Settings{}, err
	}
	return s, nil
}
