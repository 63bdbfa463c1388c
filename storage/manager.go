package storage

import (
	"context"
)

type Manager struct {
	adapter Adapter
	driver  Driver
}

func NewManager() *Manager {
	return &Manager{}
}

// Start resolves an adapter and driver for conn. A nil conn leaves the
// manager without a driver.
func (m *Manager) Start(conn any) error {
	if conn == nil {
		return nil
	}
	a, err := RegistryAdapter(conn)
	if err != nil {
		return err
	}
	d, err := RegistryDriver(a)
	if err != nil {
		return err
	}
	m.adapter = a
	m.driver = d
	return nil
}

func (m *Manager) Adapter() Adapter { return m.adapter }
func (m *Manager) Driver() Driver   { return m.driver }
func (m *Manager) Dialect() string {
	if m.adapter == nil {
		return ""
	}
	return m.adapter.Dialect()
}

// Build migrates the backing schema to the latest version.
func (m *Manager) Build(ctx context.Context) error {
	if m.driver == nil {
		return nil
	}
	if err := m.driver.Migrate(ctx); err != nil {
		return Unavailable(err)
	}
	return nil
}
