package ese

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultRegulatorRoot holds the devices of the userspace regulator
	// consumer driver.
	DefaultRegulatorRoot = "/sys/devices/platform"
	// DefaultPowerRoot holds the Android wake lock files.
	DefaultPowerRoot = "/sys/power"
)

// SysfsRegulators switches regulators exposed by the Linux userspace
// regulator consumer. Regulator name is controlled through the file
// Root/name/state.
type SysfsRegulators struct {
	Root string
}

func (s SysfsRegulators) root() string {
	if s.Root == "" {
		return DefaultRegulatorRoot
	}
	return s.Root
}

func (s SysfsRegulators) Regulator(name string) (Regulator, error) {
	path := filepath.Join(s.root(), name, "state")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("ese: regulator %s: %w", name, err)
	}
	return sysfsRegulator(path), nil
}

type sysfsRegulator string

func (r sysfsRegulator) Enable() error {
	return writeSysfs(string(r), "enabled")
}

func (r sysfsRegulator) Disable() error {
	return writeSysfs(string(r), "disabled")
}

func (r sysfsRegulator) Put() error {
	return nil
}

// SysfsWakeLock is an Android wake lock.
type SysfsWakeLock struct {
	Name string
	Root string
}

func (w SysfsWakeLock) path(file string) string {
	root := w.Root
	if root == "" {
		root = DefaultPowerRoot
	}
	return filepath.Join(root, file)
}

func (w SysfsWakeLock) Acquire() error {
	return writeSysfs(w.path("wake_lock"), w.Name)
}

func (w SysfsWakeLock) Release() error {
	return writeSysfs(w.path("wake_unlock"), w.Name)
}

func writeSysfs(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(value); err != nil {
		f.Close()
		return fmt.Errorf("ese: write %s: %w", path, err)
	}
	return f.Close()
}
