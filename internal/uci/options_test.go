package uci

import (
	"strings"
	"testing"
)

func TestOptionsRegistrationOrderInDump(t *testing.T) {
	o := NewOptions()
	o.Register("Zeta", &Option{Type: CheckOption, Default: "false"})
	o.Register("Alpha", &Option{Type: SpinOption, Default: "5", Min: 1, Max: 10})
	o.Register("Mid", &Option{Type: StringOption})

	lines := o.Dump()
	if len(lines) != 3 {
		t.Fatalf("got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "option name Zeta ") ||
		!strings.HasPrefix(lines[1], "option name Alpha ") ||
		!strings.HasPrefix(lines[2], "option name Mid ") {
		t.Errorf("dump not in registration order:\n%s", strings.Join(lines, "\n"))
	}
}

func TestOptionsDumpFormats(t *testing.T) {
	o := NewOptions()
	o.Register("Flag", &Option{Type: CheckOption, Default: "true"})
	o.Register("Size", &Option{Type: SpinOption, Default: "64", Min: 1, Max: 4096})
	o.Register("Press", &Option{Type: ButtonOption})
	o.Register("Path", &Option{Type: StringOption})

	want := []string{
		"option name Flag type check default true",
		"option name Size type spin default 64 min 1 max 4096",
		"option name Press type button",
		"option name Path type string default <empty>",
	}
	lines := o.Dump()
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d:\ngot  %q\nwant %q", i, lines[i], w)
		}
	}
}

func TestOptionsSpinClamping(t *testing.T) {
	o := NewOptions()
	o.Register("Size", &Option{Type: SpinOption, Default: "64", Min: 1, Max: 128})

	o.Set("Size", "0")
	if o.GetInt("Size") != 1 {
		t.Errorf("below-min should clamp, got %d", o.GetInt("Size"))
	}
	o.Set("Size", "4096")
	if o.GetInt("Size") != 128 {
		t.Errorf("above-max should clamp, got %d", o.GetInt("Size"))
	}
	o.Set("Size", "junk")
	if o.GetInt("Size") != 64 {
		t.Errorf("non-numeric should fall back to the default, got %d", o.GetInt("Size"))
	}
}

func TestOptionsButtonFiresWithoutStoring(t *testing.T) {
	o := NewOptions()
	fired := 0
	o.Register("Press", &Option{Type: ButtonOption, OnChange: func(*Option) { fired++ }})

	o.Set("Press", "whatever")
	o.Set("Press", "")
	if fired != 2 {
		t.Errorf("button should fire on every press, got %d", fired)
	}
	if o.Get("Press") != "" {
		t.Errorf("buttons store no value, got %q", o.Get("Press"))
	}
}

func TestOptionsUnknownName(t *testing.T) {
	o := NewOptions()
	if o.Set("Nope", "1") {
		t.Error("setting an unregistered option should report false")
	}
	if o.Contains("Nope") {
		t.Error("a failed set must not create the option")
	}
}

func TestOptionsOnChangeSeesNewValue(t *testing.T) {
	o := NewOptions()
	var seen string
	o.Register("Path", &Option{Type: StringOption, OnChange: func(opt *Option) { seen = opt.Value() }})

	o.Set("Path", "/tmp/book")
	if seen != "/tmp/book" {
		t.Errorf("hook saw %q", seen)
	}
}
