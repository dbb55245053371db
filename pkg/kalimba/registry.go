package kalimba

// Description is the immutable definition of a target.
type Description struct {
	Kind Kind
	// Semitones holds the bass root for bass targets, or the chord offsets
	// above the bass root ordered low to high.
	Semitones []int
}

// Target is a named, independently triggerable element and its runtime state.
type Target struct {
	Name string
	Description

	active bool
	// voices is index-aligned with Semitones; a nil entry is a note the
	// backend failed to start.
	voices []Voice
}

// Active reports whether the target is sounding
func (t *Target) Active() bool {
	return t.active
}

// Voices returns the voices the target currently owns
func (t *Target) Voices() []Voice {
	var out []Voice
	for _, v := range t.voices {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// TargetState is a read-only snapshot of a target for presentation.
type TargetState struct {
	Name      string `json:"name"`
	Kind      Kind   `json:"kind"`
	Semitones []int  `json:"semitones"`
	Active    bool   `json:"active"`
	Voices    int    `json:"voices"`
}

// Registry is the fixed set of targets, keyed by name.
type Registry struct {
	targets []*Target
	byName  map[string]*Target
}

// NewRegistry builds a registry from entries in catalog order. Later entries
// with a duplicate name are ignored.
func NewRegistry(entries []Entry) *Registry {
	r := &Registry{byName: make(map[string]*Target, len(entries))}
	for _, e := range entries {
		if _, exists := r.byName[e.Name]; exists {
			continue
		}
		t := &Target{
			Name: e.Name,
			Description: Description{
				Kind:      e.Kind,
				Semitones: append([]int(nil), e.Semitones...),
			},
		}
		r.targets = append(r.targets, t)
		r.byName[e.Name] = t
	}
	return r
}

// Get looks up a target by name
func (r *Registry) Get(name string) (*Target, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// IsActive reports whether name is sounding. Unknown names are never active.
func (r *Registry) IsActive(name string) bool {
	t, ok := r.byName[name]
	return ok && t.active
}

// Names returns target names in catalog order
func (r *Registry) Names() []string {
	names := make([]string, len(r.targets))
	for i, t := range r.targets {
		names[i] = t.Name
	}
	return names
}

// Len returns the number of targets
func (r *Registry) Len() int {
	return len(r.targets)
}

// States snapshots every target in catalog order.
func (r *Registry) States() []TargetState {
	states := make([]TargetState, len(r.targets))
	for i, t := range r.targets {
		states[i] = t.state()
	}
	return states
}

func (r *Registry) each(kind Kind, fn func(*Target)) {
	for _, t := range r.targets {
		if t.active && t.Kind == kind {
			fn(t)
		}
	}
}

func (t *Target) state() TargetState {
	return TargetState{
		Name:      t.Name,
		Kind:      t.Kind,
		Semitones: append([]int(nil), t.Semitones...),
		Active:    t.active,
		Voices:    len(t.Voices()),
	}
}
