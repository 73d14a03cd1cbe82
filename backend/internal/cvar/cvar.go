// Package cvar implements the engine-style configuration variables the input
// mapping reads every frame and the viewer can change at run time.
package cvar

import (
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknown  = errors.New("unknown cvar")
	ErrReadOnly = errors.New("cvar is read-only")
)

// Flags control how a cvar may be changed and whether it is saved.
type Flags uint32

const (
	// Archive cvars are written by WriteArchive.
	Archive Flags = 1 << iota
	// ReadOnly cvars only change through SetForce.
	ReadOnly
)

// Cvar is a snapshot of one variable.
type Cvar struct {
	Name    string  `json:"name"`
	String  string  `json:"string"`
	Value   float64 `json:"value"`
	Default string  `json:"default"`
	Flags   Flags   `json:"flags"`
}

// Integer returns the value truncated toward zero.
func (c Cvar) Integer() int {
	return int(c.Value)
}

// Registry holds every registered cvar.
type Registry struct {
	mu   sync.RWMutex
	vars map[string]*Cvar
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{vars: make(map[string]*Cvar)}
}

func parseValue(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Register adds a cvar. Registering an existing name keeps its current value
// and updates the default and flags.
func (r *Registry) Register(name, def string, flags Flags) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.vars[name]; ok {
		c.Default = def
		c.Flags = flags
		return
	}
	r.vars[name] = &Cvar{
		Name:    name,
		String:  def,
		Value:   parseValue(def),
		Default: def,
		Flags:   flags,
	}
}

// Get returns a snapshot of the named cvar.
func (r *Registry) Get(name string) (Cvar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.vars[name]
	if !ok {
		return Cvar{}, false
	}
	return *c, true
}

// Float returns the numeric value, or 0 for unknown names.
func (r *Registry) Float(name string) float64 {
	c, _ := r.Get(name)
	return c.Value
}

// Int returns the integer value, or 0 for unknown names.
func (r *Registry) Int(name string) int {
	c, _ := r.Get(name)
	return c.Integer()
}

// Bool reports whether the integer value is non-zero.
func (r *Registry) Bool(name string) bool {
	return r.Int(name) != 0
}

// String returns the string value, or "" for unknown names.
func (r *Registry) String(name string) string {
	c, _ := r.Get(name)
	return c.String
}

func (r *Registry) set(name, value string, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.vars[name]
	if !ok {
		return errors.Wrap(ErrUnknown, name)
	}
	if c.Flags&ReadOnly != 0 && !force {
		return errors.Wrap(ErrReadOnly, name)
	}
	c.String = value
	c.Value = parseValue(value)
	return nil
}

// Set changes a cvar, honouring ReadOnly.
func (r *Registry) Set(name, value string) error {
	return r.set(name, value, false)
}

// SetForce changes a cvar even when it is ReadOnly.
func (r *Registry) SetForce(name, value string) error {
	return r.set(name, value, true)
}

// SetFloat stores v using the shortest decimal representation.
func (r *Registry) SetFloat(name string, v float64) error {
	return r.Set(name, strconv.FormatFloat(v, 'f', -1, 64))
}

// Apply sets every name in values, stopping at the first error.
func (r *Registry) Apply(values map[string]string) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := r.Set(name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns all cvars sorted by name.
func (r *Registry) Snapshot() []Cvar {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Cvar, 0, len(r.vars))
	for _, c := range r.vars {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// WriteArchive writes every Archive cvar as a YAML map of name to value.
func (r *Registry) WriteArchive(w io.Writer) error {
	archived := make(map[string]string)
	for _, c := range r.Snapshot() {
		if c.Flags&Archive != 0 {
			archived[c.Name] = c.String
		}
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(archived); err != nil {
		return errors.Wrap(err, "encode cvar archive")
	}
	return nil
}

// ReadArchive restores values written by WriteArchive. Names that are no
// longer registered are skipped.
func (r *Registry) ReadArchive(rd io.Reader) error {
	archived := make(map[string]string)
	if err := yaml.NewDecoder(rd).Decode(&archived); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.Wrap(err, "decode cvar archive")
	}
	for name, value := range archived {
		if err := r.SetForce(name, value); err != nil && !errors.Is(err, ErrUnknown) {
			return err
		}
	}
	return nil
}
