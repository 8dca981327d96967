package site

import (
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
)

// stubModule is a test double for Module
type stubModule struct {
	name       string
	initErr    error
	shutErr    error
	initCalled bool
}

func (m *stubModule) Name() string { return m.name }
func (m *stubModule) Init(deps ModuleDependencies) error {
	m.initCalled = true
	return m.initErr
}
func (m *stubModule) Shutdown() error { return m.shutErr }

// stubDiscordModule adds a Discord surface to stubModule.
type stubDiscordModule struct {
	stubModule
	commands      []*discordgo.ApplicationCommand
	handlers      map[string]InteractionHandler
	eventHandlers []EventHandler
}

func (m *stubDiscordModule) Commands() []*discordgo.ApplicationCommand      { return m.commands }
func (m *stubDiscordModule) CommandHandlers() map[string]InteractionHandler { return m.handlers }
func (m *stubDiscordModule) EventHandlers() []EventHandler                  { return m.eventHandlers }

// stubHTTPModule adds HTTP routes to stubModule.
type stubHTTPModule struct {
	stubModule
	path string
}

func (m *stubHTTPModule) Routes(r chi.Router) {
	r.Get(m.path, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(m.name))
	})
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()

	reg.Register(&stubModule{name: "test-module"})

	modules := reg.Modules()
	if len(modules) != 1 {
		t.Fatalf("expected 1 module, got %d", len(modules))
	}
	if modules[0].Name() != "test-module" {
		t.Errorf("expected module name %q, got %q", "test-module", modules[0].Name())
	}
}

func TestRegistry_PreservesOrder(t *testing.T) {
	reg := NewRegistry()

	reg.Register(&stubModule{name: "module-1"})
	reg.Register(&stubModule{name: "module-2"})

	modules := reg.Modules()
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}
	if modules[0].Name() != "module-1" || modules[1].Name() != "module-2" {
		t.Errorf("unexpected order: %s, %s", modules[0].Name(), modules[1].Name())
	}
}

func TestRegistry_DuplicateNamePanics(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubModule{name: "dup"})

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	reg.Register(&stubModule{name: "dup"})
}

func TestRegistry_ModulesReturnsSnapshot(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubModule{name: "module-1"})

	modules := reg.Modules()
	reg.Register(&stubModule{name: "module-2"})

	if len(modules) != 1 {
		t.Errorf("expected snapshot to have 1 module, got %d", len(modules))
	}
}

func TestGlobalRegistry(t *testing.T) {
	ResetGlobalRegistry()
	t.Cleanup(ResetGlobalRegistry)

	Register(&stubModule{name: "global-test"})

	modules := Modules()
	if len(modules) != 1 || modules[0].Name() != "global-test" {
		t.Errorf("unexpected global modules: %v", modules)
	}
}
