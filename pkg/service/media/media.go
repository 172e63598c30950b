package media

import (
	"time"
)

// DeviceState is the on/off state of a capture device
type DeviceState string

const (
	DeviceOn  DeviceState = "ON"
	DeviceOff DeviceState = "OFF"
)

// Device identifies a capture device kind
type Device string

const (
	DeviceCamera     Device = "camera"
	DeviceScreen     Device = "screen"
	DeviceMicrophone Device = "microphone"
)

// Controller exposes device state to the session orchestrator. Device
// acquisition and teardown are owned entirely by the platform layer; the
// orchestrator only reads state and subscribes to readiness.
type Controller interface {
	// State returns the current state of the device
	State(device Device) DeviceState

	// StreamHandle returns an opaque handle to the live stream, or ""
	// when the device is off
	StreamHandle(device Device) string

	// Elapsed returns the time since the session's media started
	Elapsed() time.Duration

	// OnReady registers a callback fired once when the device becomes
	// ready. The callback replaces interval polling for liveness.
	OnReady(device Device, fn func())
}

// NullController is a Controller with no devices, used when the session
// runs without media (CLI, tests).
type NullController struct {
	startedAt time.Time
}

var _ Controller = &NullController{}

// NewNullController creates a media controller that reports every device off
func NewNullController() *NullController {
	return &NullController{startedAt: time.Now()}
}

func (c *NullController) State(Device) DeviceState   { return DeviceOff }
func (c *NullController) StreamHandle(Device) string { return "" }
func (c *NullController) Elapsed() time.Duration     { return time.Since(c.startedAt) }
func (c *NullController) OnReady(Device, func())     {}
