package pagespeed

import "fmt"

// Device is the analysis profile passed to the API as the "strategy" query
// parameter.
type Device string

const (
	DeviceMobile  Device = "mobile"
	DeviceDesktop Device = "desktop"
)

// ParseDevice validates a device name from config or flags.
func ParseDevice(s string) (Device, error) {
	switch Device(s) {
	case DeviceMobile, DeviceDesktop:
		return Device(s), nil
	default:
		return "", fmt.Errorf("unknown device %q (want mobile or desktop)", s)
	}
}
