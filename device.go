package gralloc

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/gralloc/driver"
	"golang.org/x/exp/slog"
)

type deviceState int32

const (
	deviceLive deviceState = iota + 1
	deviceDead
)

var deviceStateMapping = make(map[deviceState]string)

func (s deviceState) String() string {
	return deviceStateMapping[s]
}

func init() {
	deviceStateMapping[0] = "Unborn"
	deviceStateMapping[deviceLive] = "Live"
	deviceStateMapping[deviceDead] = "Dead"
}

// device owns the driver a module was brought up with
type device struct {
	driver driver.Driver
	state  atomic.Int32
}

func (d *device) State() deviceState {
	if d == nil {
		return 0
	}
	return deviceState(d.state.Load())
}

// ensureDevice brings up the module's device the first time it is needed. A failed bring-up
// leaves the module without a device, so the next call tries again.
func (m *Module) ensureDevice() (*device, error) {
	dev := m.device.Load()
	if dev == nil {
		var err error
		dev, err = m.createDevice()
		if err != nil {
			return nil, err
		}
	}

	if dev.State() == deviceDead {
		return nil, errors.Wrap(ErrDeviceInit, "device closed")
	}

	return dev, nil
}

func (m *Module) createDevice() (*device, error) {
	m.deviceMutex.Lock()
	defer m.deviceMutex.Unlock()

	dev := m.device.Load()
	if dev != nil {
		return dev, nil
	}

	m.logger.Debug("Module::createDevice")

	drv, err := m.factory()
	if err != nil {
		m.logger.Error("failed to bring up device", slog.Any("error", err))
		return nil, errors.Mark(errors.Wrap(err, "driver factory failed"), ErrDeviceInit)
	}
	if drv == nil {
		return nil, errors.Wrap(ErrDeviceInit, "driver factory returned no driver")
	}

	dev = &device{driver: drv}
	dev.state.Store(int32(deviceLive))
	m.device.Store(dev)

	m.logger.Debug("device live", slog.String("driver", drv.Name()))
	return dev, nil
}

// closeDevice tears the device down. The module cannot be used afterward.
func (m *Module) closeDevice() error {
	m.deviceMutex.Lock()
	defer m.deviceMutex.Unlock()

	dev := m.device.Load()
	if dev == nil || dev.State() == deviceDead {
		return errors.Wrap(ErrDeviceInit, "device is not open")
	}

	live := m.registry.Count()
	if live > 0 {
		m.logger.Warn("closing device with live buffers", slog.Int("buffers", live))
	}

	dev.state.Store(int32(deviceDead))

	err := dev.driver.Close()
	if err != nil {
		return errors.Wrap(err, "driver failed to close")
	}
	return nil
}
