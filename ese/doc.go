// Package ese is a driver for the P3 embedded secure element in Go.
//
// The element sits on a SPI bus behind a power rail (a regulator or a GPIO
// line) and, on some platforms, behind clocks owned by the driver. A Dev
// hands the element to one user at a time: Open powers it up, the returned
// Handle moves frames of up to MaxFrameSize bytes and issues control
// commands, and the last Close powers it down again.
//
// Copyright (c) 2022 Northvolt AB and the ese authors.
//
// # Backends
//
// Buses, rails and clocks are interfaces. The package provides backends for
// periph.io SPI ports and GPIO pins, Linux sysfs regulators and wake locks,
// and the MCP2210 USB-HID to SPI bridge.
package ese
