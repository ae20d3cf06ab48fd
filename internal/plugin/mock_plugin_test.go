package plugin

import (
	"context"
	"sync"
)

type MockPluginOption func(*MockPlugin)

// MockPlugin is a configurable test double implementing every optional
// capability interface. Calls records lifecycle invocations in order.
type MockPlugin struct {
	mu           sync.Mutex
	metadata     Metadata
	calls        []string
	installFn    func(context.Context, *Context) error
	uninstallFn  func(context.Context, *Context) error
	activateFn   func(context.Context, *Context) error
	deactivateFn func(context.Context, *Context) error
	commands     map[string]CommandSpec
	extensions   map[string]Extension
	services     map[string]any
}

func NewMockPlugin(name string, opts ...MockPluginOption) *MockPlugin {
	mp := &MockPlugin{
		metadata: Metadata{
			Name:    name,
			Version: "1.0.0",
		},
	}

	for _, opt := range opts {
		opt(mp)
	}
	return mp
}

func WithDependencies(deps map[string]string) MockPluginOption {
	return func(mp *MockPlugin) {
		mp.metadata.Dependencies = deps
	}
}

func WithPeerDependencies(deps map[string]string) MockPluginOption {
	return func(mp *MockPlugin) {
		mp.metadata.PeerDependencies = deps
	}
}

func WithVersion(version string) MockPluginOption {
	return func(mp *MockPlugin) {
		mp.metadata.Version = version
	}
}

func WithInstallFunc(fn func(context.Context, *Context) error) MockPluginOption {
	return func(mp *MockPlugin) {
		mp.installFn = fn
	}
}

func WithUninstallFunc(fn func(context.Context, *Context) error) MockPluginOption {
	return func(mp *MockPlugin) {
		mp.uninstallFn = fn
	}
}

func WithActivateFunc(fn func(context.Context, *Context) error) MockPluginOption {
	return func(mp *MockPlugin) {
		mp.activateFn = fn
	}
}

func WithDeactivateFunc(fn func(context.Context, *Context) error) MockPluginOption {
	return func(mp *MockPlugin) {
		mp.deactivateFn = fn
	}
}

func WithCommands(commands map[string]CommandSpec) MockPluginOption {
	return func(mp *MockPlugin) {
		mp.commands = commands
	}
}

func WithExtensions(extensions map[string]Extension) MockPluginOption {
	return func(mp *MockPlugin) {
		mp.extensions = extensions
	}
}

func WithServices(services map[string]any) MockPluginOption {
	return func(mp *MockPlugin) {
		mp.services = services
	}
}

func (mp *MockPlugin) Metadata() Metadata {
	return mp.metadata
}

func (mp *MockPlugin) Install(ctx context.Context, pc *Context) error {
	mp.recordCall("install")
	if mp.installFn != nil {
		return mp.installFn(ctx, pc)
	}
	return nil
}

func (mp *MockPlugin) Uninstall(ctx context.Context, pc *Context) error {
	mp.recordCall("uninstall")
	if mp.uninstallFn != nil {
		return mp.uninstallFn(ctx, pc)
	}
	return nil
}

func (mp *MockPlugin) Activate(ctx context.Context, pc *Context) error {
	mp.recordCall("activate")
	if mp.activateFn != nil {
		return mp.activateFn(ctx, pc)
	}
	return nil
}

func (mp *MockPlugin) Deactivate(ctx context.Context, pc *Context) error {
	mp.recordCall("deactivate")
	if mp.deactivateFn != nil {
		return mp.deactivateFn(ctx, pc)
	}
	return nil
}

func (mp *MockPlugin) Commands() map[string]CommandSpec {
	return mp.commands
}

func (mp *MockPlugin) Extensions() map[string]Extension {
	return mp.extensions
}

func (mp *MockPlugin) Services() map[string]any {
	return mp.services
}

func (mp *MockPlugin) Calls() []string {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return append([]string{}, mp.calls...)
}

func (mp *MockPlugin) recordCall(name string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.calls = append(mp.calls, name)
}
