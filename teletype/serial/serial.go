// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Package serial drives a teleprinter current loop through a Linux
// serial port. The port runs raw five-bit frames at the machine's
// native rate, which no Bnn speed constant covers: 45 baud for a
// 60-speed US machine, 50 for ITA2 service. The arbitrary rate goes
// in through the termios2 interface.
package serial

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/teleprint-works/teleprint/baudot"
)

const (
	// DefaultBaud is the 60-words-per-minute US teletype rate. The
	// true rate is 45.45 baud; the one-percent error from the integer
	// speed is well inside what a start-stop receiver tolerates.
	DefaultBaud = 45

	// writeChunk is how many codes go to the kernel per drain. Each
	// chunk blocks in tcdrain for about a second and a half at 45
	// baud, which bounds how stale a cancelled context can get.
	writeChunk = 8

	// readBatchMax caps one keystroke batch. A keystroke is at most
	// two codes (case shift plus character); the slack absorbs an
	// operator typing at full line rate.
	readBatchMax = 16

	// interCharGapTenths is the VTIME framing gap in tenths of a
	// second. Two character times at 45 baud: codes closer together
	// than this belong to one keystroke, a lone letters code followed
	// by this much silence is the rubout key.
	interCharGapTenths = 3

	// readPollMillis is how often a blocked read wakes to notice a
	// cancelled context.
	readPollMillis = 500
)

// termios2 mirrors struct termios2 from the kernel UAPI header
// (include/uapi/asm-generic/termbits.h): the plain termios layout
// plus the two arbitrary-speed fields. 44 bytes, no padding, on every
// Linux architecture.
type termios2 struct {
	iflag  uint32
	oflag  uint32
	cflag  uint32
	lflag  uint32
	line   uint8
	cc     [19]uint8
	ispeed uint32
	ospeed uint32
}

// Config assembles a serial Device. Path is required.
type Config struct {
	// Path is the port's device node, e.g. /dev/ttyUSB0.
	Path string

	// Baud is the line rate. Defaults to DefaultBaud.
	Baud int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Device is a teleprinter on a Linux serial port. It implements
// teletype.Device. The file descriptor stays in blocking mode so the
// kernel's VMIN/VTIME framing can group keystroke bursts; reads stay
// cancellable by polling ahead of them.
type Device struct {
	path   string
	logger *slog.Logger
	fd     int

	writeMu sync.Mutex
}

// Open claims the port exclusively and configures it for five-bit
// frames at the requested rate: two stop bits, no parity, modem
// control ignored. Pending bytes from before the open are dropped.
func Open(config Config) (*Device, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("serial: config requires a Path")
	}
	baud := config.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	if baud < 0 {
		return nil, fmt.Errorf("serial: baud %d is not a line rate", baud)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fd, err := unix.Open(config.Path, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("serial: opening %s: %w", config.Path, err)
	}

	if err := applyLineSettings(fd, baud); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serial: configuring %s: %w", config.Path, err)
	}

	// TIOCEXCL makes further opens of the node fail with EBUSY. One
	// daemon owns the machine.
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), unix.TIOCEXCL, 0); errno != 0 {
		unix.Close(fd)
		return nil, fmt.Errorf("serial: claiming %s exclusively: %w", config.Path, errno)
	}

	// Drop whatever accumulated in the kernel buffers while nothing
	// was listening.
	if err := unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIOFLUSH); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serial: flushing %s: %w", config.Path, err)
	}

	logger.Info("serial port open", "path", config.Path, "baud", baud)
	return &Device{path: config.Path, logger: logger, fd: fd}, nil
}

// applyLineSettings programs the port from scratch: raw in both
// directions, five data bits, two stop bits, receiver on, carrier
// ignored, and the BOTHER escape so ispeed/ospeed carry the literal
// rate. Input flags stay zero so a line break reads as the all-zero
// code instead of being eaten.
func applyLineSettings(fd, baud int) error {
	settings := termios2{
		cflag:  unix.BOTHER | unix.CS5 | unix.CSTOPB | unix.CREAD | unix.CLOCAL,
		ispeed: uint32(baud),
		ospeed: uint32(baud),
	}
	settings.cc[unix.VMIN] = readBatchMax
	settings.cc[unix.VTIME] = interCharGapTenths

	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		uintptr(fd),
		unix.TCSETS2,
		uintptr(unsafe.Pointer(&settings)),
	)
	if errno != 0 {
		return fmt.Errorf("TCSETS2: %w", errno)
	}
	return nil
}

// WriteCodes sends the batch down the line, draining the kernel
// buffer in small chunks so the call tracks the paper rather than
// running minutes ahead of it. Returns once the final chunk has left
// the UART.
func (d *Device) WriteCodes(ctx context.Context, codes []baudot.Code) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	for len(codes) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk := codes
		if len(chunk) > writeChunk {
			chunk = chunk[:writeChunk]
		}
		codes = codes[len(chunk):]

		buf := make([]byte, len(chunk))
		for i, code := range chunk {
			buf[i] = byte(code)
		}
		for len(buf) > 0 {
			n, err := unix.Write(d.fd, buf)
			if err == unix.EINTR {
				continue
			}
			if err != nil {
				return fmt.Errorf("serial: writing to %s: %w", d.path, err)
			}
			buf = buf[n:]
		}

		// tcdrain: block until the UART has clocked the chunk out.
		if err := unix.IoctlSetInt(d.fd, unix.TCSBRK, 1); err != nil {
			return fmt.Errorf("serial: draining %s: %w", d.path, err)
		}
	}
	return nil
}

// ReadCodes blocks until the operator sends something, then returns
// the burst. VMIN/VTIME framing groups codes arriving within two
// character times, so a case shift stays attached to the character it
// precedes while a lone letters code, the rubout key, frames by
// itself.
func (d *Device) ReadCodes(ctx context.Context) ([]baudot.Code, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, readPollMillis)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("serial: polling %s: %w", d.path, err)
		}
		if n == 0 {
			continue
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return nil, fmt.Errorf("serial: %s went away", d.path)
		}
		break
	}

	var buf [readBatchMax]byte
	for {
		n, err := unix.Read(d.fd, buf[:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("serial: reading %s: %w", d.path, err)
		}
		if n == 0 {
			return nil, fmt.Errorf("serial: %s closed", d.path)
		}

		codes := make([]baudot.Code, n)
		for i := range n {
			// Drivers differ on what rides the top bits of a
			// five-bit frame.
			codes[i] = baudot.Code(buf[i] & 0x1F)
		}
		return codes, nil
	}
}

// Close releases the port. In-flight output is abandoned to the
// kernel buffer.
func (d *Device) Close() error {
	if err := unix.Close(d.fd); err != nil {
		return fmt.Errorf("serial: closing %s: %w", d.path, err)
	}
	return nil
}
