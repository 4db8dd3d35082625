package uci

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// OptionType enumerates the UCI option kinds this engine uses.
type OptionType string

const (
	CheckOption  OptionType = "check"
	SpinOption   OptionType = "spin"
	ButtonOption OptionType = "button"
	StringOption OptionType = "string"
)

// Option is one registered engine option. Values are strings regardless of
// logical type; consumers coerce. OnChange, if set, runs after every
// assignment (and on every press for buttons).
type Option struct {
	Type     OptionType
	Default  string
	Min, Max int
	OnChange func(*Option)

	value string
	idx   int
}

// Value returns the current value.
func (o *Option) Value() string {
	return o.value
}

// Options is the registry of engine options. Names are case- and
// space-sensitive and may contain spaces; the "uci" dump preserves
// registration order.
type Options struct {
	m map[string]*Option
}

// NewOptions returns an empty registry.
func NewOptions() *Options {
	return &Options{m: make(map[string]*Option)}
}

// Register adds an option under the given name. The current value starts at
// the default.
func (o *Options) Register(name string, opt *Option) {
	opt.value = opt.Default
	opt.idx = len(o.m)
	o.m[name] = opt
}

// Contains reports whether the name is registered.
func (o *Options) Contains(name string) bool {
	_, ok := o.m[name]
	return ok
}

// Set assigns a value to a registered option and fires its on-change hook.
// It reports false for an unregistered name and never creates an entry.
func (o *Options) Set(name, value string) bool {
	opt, ok := o.m[name]
	if !ok {
		return false
	}
	if opt.Type == SpinOption {
		if v, err := strconv.Atoi(value); err == nil {
			if v < opt.Min {
				v = opt.Min
			}
			if v > opt.Max {
				v = opt.Max
			}
			value = strconv.Itoa(v)
		} else {
			value = opt.Default
		}
	}
	if opt.Type != ButtonOption {
		opt.value = value
	}
	if opt.OnChange != nil {
		opt.OnChange(opt)
	}
	return true
}

// Get returns the current value of a registered option, or "".
func (o *Options) Get(name string) string {
	if opt, ok := o.m[name]; ok {
		return opt.value
	}
	return ""
}

// GetInt returns the current value coerced to an int.
func (o *Options) GetInt(name string) int {
	v, _ := strconv.Atoi(o.Get(name))
	return v
}

// GetBool returns the current value coerced to a bool.
func (o *Options) GetBool(name string) bool {
	return o.Get(name) == "true"
}

// Dump renders all options in registration order, one "option name ..." line
// each, for the "uci" reply.
func (o *Options) Dump() []string {
	type named struct {
		name string
		opt  *Option
	}
	all := make([]named, 0, len(o.m))
	for name, opt := range o.m {
		all = append(all, named{name, opt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].opt.idx < all[j].opt.idx })

	lines := make([]string, len(all))
	for i, n := range all {
		var sb strings.Builder
		fmt.Fprintf(&sb, "option name %s type %s", n.name, n.opt.Type)
		switch n.opt.Type {
		case CheckOption, StringOption:
			def := n.opt.Default
			if n.opt.Type == StringOption && def == "" {
				def = "<empty>"
			}
			fmt.Fprintf(&sb, " default %s", def)
		case SpinOption:
			fmt.Fprintf(&sb, " default %s min %d max %d", n.opt.Default, n.opt.Min, n.opt.Max)
		}
		lines[i] = sb.String()
	}
	return lines
}
