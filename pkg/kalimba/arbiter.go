package kalimba

// Switch is what the arbiter drives; *Controller implements it.
type Switch interface {
	Start(name string) bool
	Stop(name string)
}

// Arbiter maps pointers and keys to targets. Each pointer or key owns at most
// one target, and only the input that actually started a target can stop it.
type Arbiter struct {
	targets  Switch
	keys     map[string]string
	pointers map[int]string
	held     map[string]struct{}
}

// NewArbiter creates an arbiter using keys as the key to target binding table.
func NewArbiter(targets Switch, keys map[string]string) *Arbiter {
	bindings := make(map[string]string, len(keys))
	for k, v := range keys {
		bindings[k] = v
	}
	return &Arbiter{
		targets:  targets,
		keys:     bindings,
		pointers: make(map[int]string),
		held:     make(map[string]struct{}),
	}
}

// PointerDown starts name on behalf of pointer id. The pointer is only
// tracked when the start succeeded.
func (a *Arbiter) PointerDown(id int, name string) bool {
	if !a.targets.Start(name) {
		return false
	}
	a.pointers[id] = name
	return true
}

// PointerUp stops whatever pointer id started, if anything.
func (a *Arbiter) PointerUp(id int) {
	name, ok := a.pointers[id]
	if !ok {
		return
	}
	delete(a.pointers, id)
	a.targets.Stop(name)
}

// KeyDown starts the target bound to ev.Key. Repeats and keys already held are
// ignored.
func (a *Arbiter) KeyDown(ev KeyEvent) bool {
	if ev.Repeat {
		return false
	}
	if _, held := a.held[ev.Key]; held {
		return false
	}
	name, ok := a.Binding(ev.Key)
	if !ok || !a.targets.Start(name) {
		return false
	}
	a.held[ev.Key] = struct{}{}
	return true
}

// KeyUp stops the target started by ev.Key. Releasing a key that started
// nothing is a no-op.
func (a *Arbiter) KeyUp(ev KeyEvent) {
	if _, held := a.held[ev.Key]; !held {
		return
	}
	delete(a.held, ev.Key)
	if name, ok := a.Binding(ev.Key); ok {
		a.targets.Stop(name)
	}
}

// Binding returns the target bound to key
func (a *Arbiter) Binding(key string) (string, bool) {
	name, ok := a.keys[key]
	return name, ok
}

// isHeld reports whether key currently owns a target
func (a *Arbiter) isHeld(key string) bool {
	_, ok := a.held[key]
	return ok
}

// owner returns the target pointer id currently owns
func (a *Arbiter) owner(id int) (string, bool) {
	name, ok := a.pointers[id]
	return name, ok
}

// ReleaseAll releases every tracked pointer and key.
func (a *Arbiter) ReleaseAll() {
	for id := range a.pointers {
		a.PointerUp(id)
	}
	for key := range a.held {
		a.KeyUp(KeyEvent{Key: key})
	}
}
