package indicator

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recorder struct {
	calls      []string
	releaseErr error
}

func (r *recorder) On()  { r.calls = append(r.calls, "on") }
func (r *recorder) Off() { r.calls = append(r.calls, "off") }
func (r *recorder) Release() error {
	r.calls = append(r.calls, "release")
	return r.releaseErr
}

func TestNew_NothingConfigured(t *testing.T) {
	ind, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := ind.(Noop); !ok {
		t.Errorf("New() = %T, want Noop", ind)
	}
}

func TestNew_UnknownType(t *testing.T) {
	pin := 5
	if _, err := New(Config{Type: "pwm", Pin: &pin}); err == nil {
		t.Fatal("New() expected error for unknown type")
	}
}

func TestMulti_FansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{releaseErr: errors.New("busy")}
	m := Multi{a, b}

	m.On()
	m.Off()
	if err := m.Release(); err == nil {
		t.Error("Release() should report the failing indicator")
	}

	want := "on,off,release"
	for i, r := range []*recorder{a, b} {
		if got := strings.Join(r.calls, ","); got != want {
			t.Errorf("indicator %d calls = %q, want %q", i, got, want)
		}
	}
}

func TestNeopixel_WritesFramesOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neopixel")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatalf("failed to create pipe stand-in: %v", err)
	}

	n, err := NewNeopixel(path)
	if err != nil {
		t.Fatalf("NewNeopixel() error = %v", err)
	}
	n.On()
	n.On()
	n.Off()
	if err := n.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := neoLit + neoDark + neoDark
	if string(data) != want {
		t.Errorf("pipe contents = %q, want %q", data, want)
	}
}
