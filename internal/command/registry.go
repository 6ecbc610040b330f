package command

import (
	"io"
	"log/slog"
	"strings"
)

// Entry pairs a command descriptor with the factory that instantiates it.
type Entry struct {
	Descriptor Descriptor
	New        Factory
}

// Registry resolves command names to handler instances. It layers three
// sources: built-in user commands, system commands, and deployer override
// tables. Later-added override tables shadow earlier ones and both shadow
// the built-in set; lookup keys are the lowercase command names.
//
// The registry is built at process start and read-only afterwards; no
// filesystem scanning happens at resolve time.
type Registry struct {
	builtins  map[string]Entry
	system    map[string]Entry
	overrides []map[string]Entry

	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		builtins: make(map[string]Entry),
		system:   make(map[string]Entry),
		logger:   logger.With("component", "command_registry"),
	}
}

// RegisterBuiltin adds a framework-provided user command.
func (r *Registry) RegisterBuiltin(e Entry) {
	name := strings.ToLower(e.Descriptor.Name)
	r.builtins[name] = e
	r.logger.Debug("Registered built-in command", "name", name)
}

// RegisterSystem adds a framework-provided system command.
func (r *Registry) RegisterSystem(e Entry) {
	name := strings.ToLower(e.Descriptor.Name)
	r.system[name] = e
	r.logger.Debug("Registered system command", "name", name)
}

// AddOverrides appends one override table. Tables added later take
// precedence over earlier ones and over the framework's own commands.
func (r *Registry) AddOverrides(entries map[string]Entry) {
	table := make(map[string]Entry, len(entries))
	for name, e := range entries {
		table[strings.ToLower(name)] = e
	}
	r.overrides = append(r.overrides, table)
	r.logger.Debug("Added command override table", "size", len(table), "tables", len(r.overrides))
}

// List enumerates all known commands keyed by lowercase name: built-ins
// first, then system commands, then override tables in the order they were
// added, with later sources shadowing earlier ones.
func (r *Registry) List() map[string]Descriptor {
	out := make(map[string]Descriptor, len(r.builtins)+len(r.system))
	for name, e := range r.builtins {
		out[name] = e.Descriptor
	}
	for name, e := range r.system {
		out[name] = e.Descriptor
	}
	for _, table := range r.overrides {
		for name, e := range table {
			out[name] = e.Descriptor
		}
	}
	return out
}

// Resolve instantiates the command registered under name, bound to the
// given execution context. Override tables are consulted
// most-recently-added-first before the framework's own commands. Returns
// (nil, false) when no enabled command matches; callers treat this as "no
// such command", not an error.
func (r *Registry) Resolve(name string, cctx *Context) (Command, bool) {
	key := strings.ToLower(name)

	for i := len(r.overrides) - 1; i >= 0; i-- {
		if e, ok := r.overrides[i][key]; ok {
			return r.instantiate(e, key, cctx)
		}
	}
	if e, ok := r.builtins[key]; ok {
		return r.instantiate(e, key, cctx)
	}
	if e, ok := r.system[key]; ok {
		return r.instantiate(e, key, cctx)
	}

	r.logger.Debug("Command not found", "name", key)
	return nil, false
}

func (r *Registry) instantiate(e Entry, key string, cctx *Context) (Command, bool) {
	if !e.Descriptor.Enabled {
		r.logger.Debug("Command found but disabled", "name", key)
		return nil, false
	}
	return e.New(cctx), true
}
