//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

//go:build linux || darwin || freebsd || openbsd || netbsd

package serial

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirhcel/go-serial/unixutils"
	"golang.org/x/sys/unix"
)

type unixPort struct {
	handle int
	name   string

	readTimeout time.Duration
	closeLock   sync.RWMutex
	closeSignal *unixutils.Pipe
	opened      uint32
}

func (port *unixPort) acquire() error {
	port.closeLock.RLock()
	if atomic.LoadUint32(&port.opened) != 1 {
		port.closeLock.RUnlock()
		return &PortError{code: PortClosed}
	}
	return nil
}

func (port *unixPort) release() {
	port.closeLock.RUnlock()
}

func (port *unixPort) Name() string {
	return port.name
}

func (port *unixPort) Close() error {
	if !atomic.CompareAndSwapUint32(&port.opened, 1, 0) {
		return nil
	}

	// Send close signal to all pending reads (if any)
	port.closeSignal.Signal()

	// Wait for all pending operations to complete
	port.closeLock.Lock()
	defer port.closeLock.Unlock()

	port.releaseExclusiveAccess()
	err := unix.Close(port.handle)
	if perr := port.closeSignal.Close(); err == nil && perr != nil {
		err = perr
	}
	if err != nil {
		return newOSError(err)
	}
	return nil
}

func (port *unixPort) Read(p []byte) (int, error) {
	if err := port.acquire(); err != nil {
		return 0, err
	}
	defer port.release()

	if len(p) == 0 {
		return 0, nil
	}

	var deadline time.Time
	if port.readTimeout != NoTimeout {
		deadline = time.Now().Add(port.readTimeout)
	}

	for {
		timeout := time.Duration(-1)
		if port.readTimeout != NoTimeout {
			timeout = time.Until(deadline)
			if timeout < 0 {
				// a negative timeout means "no-timeout" in Select(...)
				timeout = 0
			}
		}
		res, err := unixutils.Wait(timeout, port.handle, port.closeSignal.ReadFD())
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, &PortError{code: ReadFailed, causedBy: err}
		}
		if res.Readable(port.closeSignal.ReadFD()) {
			return 0, &PortError{code: PortClosed}
		}
		if !res.Readable(port.handle) {
			return 0, &PortError{code: Timeout}
		}
		n, err := unix.Read(port.handle, p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, &PortError{code: ReadFailed, causedBy: err}
		}
		// Linux: when the port is disconnected during a read operation
		// the port is left in a "readable with zero-length-data" state.
		// https://stackoverflow.com/a/34945814/1655275
		if n == 0 {
			return 0, &PortError{code: ReadFailed, causedBy: io.EOF}
		}
		return n, nil
	}
}

func (port *unixPort) Write(p []byte) (int, error) {
	if err := port.acquire(); err != nil {
		return 0, err
	}
	defer port.release()

	for {
		n, err := unix.Write(port.handle, p)
		if err == unix.EINTR {
			continue
		}
		if n < 0 { // Do not return -1 unix errors
			n = 0
		}
		if err != nil {
			return n, &PortError{code: WriteFailed, causedBy: err}
		}
		return n, nil
	}
}

func (port *unixPort) Drain() error {
	if err := port.acquire(); err != nil {
		return err
	}
	defer port.release()
	return port.osError(port.drain())
}

func (port *unixPort) ResetInputBuffer() error {
	if err := port.acquire(); err != nil {
		return err
	}
	defer port.release()
	return port.osError(port.flush(unix.TCIFLUSH))
}

func (port *unixPort) ResetOutputBuffer() error {
	if err := port.acquire(); err != nil {
		return err
	}
	defer port.release()
	return port.osError(port.flush(unix.TCOFLUSH))
}

func (port *unixPort) ClearBuffer(which ClearBuffer) error {
	return clearBuffer(port, which)
}

func (port *unixPort) BytesToRead() (int, error) {
	if err := port.acquire(); err != nil {
		return 0, err
	}
	defer port.release()
	n, err := unix.IoctlGetInt(port.handle, ioctlInq)
	return n, port.osError(err)
}

func (port *unixPort) BytesToWrite() (int, error) {
	if err := port.acquire(); err != nil {
		return 0, err
	}
	defer port.release()
	n, err := unix.IoctlGetInt(port.handle, unix.TIOCOUTQ)
	return n, port.osError(err)
}

func (port *unixPort) SetMode(mode *Mode) error {
	if err := port.acquire(); err != nil {
		return err
	}
	defer port.release()
	return port.setMode(mode)
}

func (port *unixPort) setMode(mode *Mode) error {
	if err := mode.validate(); err != nil {
		return err
	}
	if err := port.applyMode(mode, false); err != nil {
		return err
	}
	port.readTimeout = mode.Timeout
	return nil
}

// applyMode writes mode to the device. The termios call succeeds when any
// part of the request is applied, so the result is read back: if the
// driver dropped a setting the previous settings are restored and the mode
// is refused with UnsupportedMode.
func (port *unixPort) applyMode(mode *Mode, raw bool) error {
	previous, err := port.getTermSettings()
	if err != nil {
		return err
	}
	previousSpeed, previousSpeedErr := port.getTermSettingsBaudrate(previous)

	settings := *previous
	if raw {
		setRawMode(&settings)
	}
	special, err := setTermSettings(mode, &settings)
	if err != nil {
		return err
	}
	if err := port.setTermSettings(&settings, mode.baudRate(), special); err != nil {
		return settingsError(err, special)
	}

	applied, err := port.appliedMode(special)
	if err != nil {
		return err
	}
	if mismatch := modeMismatch(mode, applied, !special || readsBackSpecialBaudrate); mismatch != "" {
		if previousSpeedErr == nil {
			port.restoreTermSettings(previous, previousSpeed)
		} else {
			unix.IoctlSetTermios(port.handle, ioctlTcsetattr, previous)
		}
		return &PortError{code: UnsupportedMode, causedBy: fmt.Errorf("%s not applied by the driver", mismatch)}
	}
	return nil
}

// appliedMode reads back the settings in use. The baud rate is left to
// zero when a special rate can not be read back on this platform.
func (port *unixPort) appliedMode(special bool) (*Mode, error) {
	settings, err := port.getTermSettings()
	if err != nil {
		return nil, err
	}
	applied := &Mode{}
	getTermSettings(settings, applied)
	if !special || readsBackSpecialBaudrate {
		if applied.BaudRate, err = port.getTermSettingsBaudrate(settings); err != nil {
			return nil, err
		}
	}
	return applied, nil
}

func (port *unixPort) restoreTermSettings(previous *unix.Termios, speed int) {
	settings := *previous
	special, err := setTermSettingsBaudrate(speed, &settings)
	if err != nil {
		unix.IoctlSetTermios(port.handle, ioctlTcsetattr, previous)
		return
	}
	port.setTermSettings(&settings, speed, special)
}

func (port *unixPort) GetMode() (*Mode, error) {
	if err := port.acquire(); err != nil {
		return nil, err
	}
	defer port.release()

	settings, err := port.getTermSettings()
	if err != nil {
		return nil, err
	}
	mode := &Mode{Timeout: port.readTimeout}
	if mode.BaudRate, err = port.getTermSettingsBaudrate(settings); err != nil {
		return nil, err
	}
	getTermSettings(settings, mode)
	return mode, nil
}

func (port *unixPort) SetReadTimeout(timeout time.Duration) error {
	if err := port.acquire(); err != nil {
		return err
	}
	defer port.release()
	if timeout < 0 {
		return &PortError{code: InvalidTimeoutValue}
	}
	port.readTimeout = timeout
	return nil
}

func (port *unixPort) SetDTR(dtr bool) error {
	return port.setModemBit(unix.TIOCM_DTR, dtr)
}

func (port *unixPort) SetRTS(rts bool) error {
	return port.setModemBit(unix.TIOCM_RTS, rts)
}

func (port *unixPort) setModemBit(bit int, value bool) error {
	if err := port.acquire(); err != nil {
		return err
	}
	defer port.release()
	req := uint(unix.TIOCMBIC)
	if value {
		req = unix.TIOCMBIS
	}
	return port.osError(unix.IoctlSetPointerInt(port.handle, req, bit))
}

func (port *unixPort) GetModemStatusBits() (*ModemStatusBits, error) {
	status, err := port.getModemBits()
	if err != nil {
		return nil, err
	}
	return &ModemStatusBits{
		CTS: status&unix.TIOCM_CTS != 0,
		DCD: status&unix.TIOCM_CD != 0,
		DSR: status&unix.TIOCM_DSR != 0,
		RI:  status&unix.TIOCM_RI != 0,
	}, nil
}

func (port *unixPort) ReadCTS() (bool, error) {
	return port.readModemBit(unix.TIOCM_CTS)
}

func (port *unixPort) ReadDSR() (bool, error) {
	return port.readModemBit(unix.TIOCM_DSR)
}

func (port *unixPort) ReadRI() (bool, error) {
	return port.readModemBit(unix.TIOCM_RI)
}

func (port *unixPort) ReadDCD() (bool, error) {
	return port.readModemBit(unix.TIOCM_CD)
}

func (port *unixPort) readModemBit(bit int) (bool, error) {
	status, err := port.getModemBits()
	if err != nil {
		return false, err
	}
	return status&bit != 0, nil
}

func (port *unixPort) getModemBits() (int, error) {
	if err := port.acquire(); err != nil {
		return 0, err
	}
	defer port.release()
	status, err := unix.IoctlGetInt(port.handle, unix.TIOCMGET)
	return status, port.osError(err)
}

func (port *unixPort) SetBreak() error {
	if err := port.acquire(); err != nil {
		return err
	}
	defer port.release()
	return port.osError(unix.IoctlSetInt(port.handle, unix.TIOCSBRK, 0))
}

func (port *unixPort) ClearBreak() error {
	if err := port.acquire(); err != nil {
		return err
	}
	defer port.release()
	return port.osError(unix.IoctlSetInt(port.handle, unix.TIOCCBRK, 0))
}

func (port *unixPort) Break(d time.Duration) error {
	if err := port.SetBreak(); err != nil {
		return err
	}
	time.Sleep(d)
	return port.ClearBreak()
}

// settingsError maps the failure of the call applying the termios settings
func settingsError(err error, special bool) error {
	if pe, ok := err.(*PortError); ok {
		return pe
	}
	if special && err == unix.EINVAL {
		return &PortError{code: InvalidSpeed, causedBy: err}
	}
	if err == unix.EINVAL {
		return &PortError{code: UnsupportedMode, causedBy: err}
	}
	return newOSError(err)
}

func (port *unixPort) osError(err error) error {
	if err == nil {
		return nil
	}
	return newOSError(err)
}

func nativeOpen(portName string, mode *Mode) (*unixPort, error) {
	h, err := unix.Open(portName, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, newOSError(err)
	}
	port := &unixPort{
		handle: h,
		name:   portName,
		opened: 1,
	}
	if err := port.setup(mode); err != nil {
		port.releaseExclusiveAccess()
		unix.Close(h)
		if port.closeSignal != nil {
			port.closeSignal.Close()
		}
		return nil, err
	}
	return port, nil
}

func (port *unixPort) setup(mode *Mode) error {
	if err := port.acquireExclusiveAccess(); err != nil {
		return &PortError{code: InvalidSerialPort, causedBy: err}
	}
	if err := unix.SetNonblock(port.handle, false); err != nil {
		return newOSError(err)
	}

	if err := port.applyMode(mode, true); err != nil {
		return err
	}
	port.readTimeout = mode.Timeout

	if bits := mode.InitialStatusBits; bits != nil {
		status, err := unix.IoctlGetInt(port.handle, unix.TIOCMGET)
		if err != nil {
			return newOSError(err)
		}
		status &^= unix.TIOCM_DTR | unix.TIOCM_RTS
		if bits.DTR {
			status |= unix.TIOCM_DTR
		}
		if bits.RTS {
			status |= unix.TIOCM_RTS
		}
		if err := unix.IoctlSetPointerInt(port.handle, unix.TIOCMSET, status); err != nil {
			return newOSError(err)
		}
	}

	closeSignal, err := unixutils.NewPipe()
	if err != nil {
		return newOSError(err)
	}
	port.closeSignal = closeSignal
	return nil
}

// termios manipulation functions

// setTermSettings copies mode into settings. It returns true if the baud
// rate can not be expressed in the termios structure and must be applied
// with the platform specific call.
func setTermSettings(mode *Mode, settings *unix.Termios) (bool, error) {
	if err := setTermSettingsParity(mode.Parity, settings); err != nil {
		return false, err
	}
	if err := setTermSettingsDataBits(mode.dataBits(), settings); err != nil {
		return false, err
	}
	if err := setTermSettingsStopBits(mode.StopBits, settings); err != nil {
		return false, err
	}
	setTermSettingsFlowControl(mode.FlowControl, settings)
	return setTermSettingsBaudrate(mode.baudRate(), settings)
}

func setTermSettingsParity(parity Parity, settings *unix.Termios) error {
	switch parity {
	case NoParity:
		settings.Cflag &^= unix.PARENB | unix.PARODD | tcCMSPAR
		settings.Iflag &^= unix.INPCK
	case OddParity:
		settings.Cflag |= unix.PARENB | unix.PARODD
		settings.Cflag &^= tcCMSPAR
		settings.Iflag |= unix.INPCK
	case EvenParity:
		settings.Cflag &^= unix.PARODD | tcCMSPAR
		settings.Cflag |= unix.PARENB
		settings.Iflag |= unix.INPCK
	case MarkParity:
		if !hasMarkSpaceParity {
			return &PortError{code: InvalidParity}
		}
		settings.Cflag |= unix.PARENB | unix.PARODD | tcCMSPAR
		settings.Iflag |= unix.INPCK
	case SpaceParity:
		if !hasMarkSpaceParity {
			return &PortError{code: InvalidParity}
		}
		settings.Cflag &^= unix.PARODD
		settings.Cflag |= unix.PARENB | tcCMSPAR
		settings.Iflag |= unix.INPCK
	default:
		return &PortError{code: InvalidParity}
	}
	return nil
}

func setTermSettingsDataBits(bits int, settings *unix.Termios) error {
	settings.Cflag &^= unix.CSIZE
	switch bits {
	case 5:
		settings.Cflag |= unix.CS5
	case 6:
		settings.Cflag |= unix.CS6
	case 7:
		settings.Cflag |= unix.CS7
	case 8:
		settings.Cflag |= unix.CS8
	default:
		return &PortError{code: InvalidDataBits}
	}
	return nil
}

func setTermSettingsStopBits(bits StopBits, settings *unix.Termios) error {
	switch bits {
	case OneStopBit:
		settings.Cflag &^= unix.CSTOPB
	case TwoStopBits:
		settings.Cflag |= unix.CSTOPB
	default:
		// 1.5 stop bits can not be expressed with termios
		return &PortError{code: InvalidStopBits}
	}
	return nil
}

func setTermSettingsFlowControl(flow FlowControl, settings *unix.Termios) {
	switch flow {
	case SoftwareFlowControl:
		settings.Cflag &^= tcCRTSCTS
		settings.Iflag |= unix.IXON | unix.IXOFF
	case HardwareFlowControl:
		settings.Cflag |= tcCRTSCTS
		settings.Iflag &^= unix.IXON | unix.IXOFF | unix.IXANY
	default:
		settings.Cflag &^= tcCRTSCTS
		settings.Iflag &^= unix.IXON | unix.IXOFF | unix.IXANY
	}
}

// getTermSettings copies the settings into mode, except the baud rate
func getTermSettings(settings *unix.Termios, mode *Mode) {
	switch settings.Cflag & unix.CSIZE {
	case unix.CS5:
		mode.DataBits = 5
	case unix.CS6:
		mode.DataBits = 6
	case unix.CS7:
		mode.DataBits = 7
	default:
		mode.DataBits = 8
	}

	switch {
	case settings.Cflag&unix.PARENB == 0:
		mode.Parity = NoParity
	case hasMarkSpaceParity && settings.Cflag&tcCMSPAR != 0:
		if settings.Cflag&unix.PARODD != 0 {
			mode.Parity = MarkParity
		} else {
			mode.Parity = SpaceParity
		}
	case settings.Cflag&unix.PARODD != 0:
		mode.Parity = OddParity
	default:
		mode.Parity = EvenParity
	}

	if settings.Cflag&unix.CSTOPB != 0 {
		mode.StopBits = TwoStopBits
	} else {
		mode.StopBits = OneStopBit
	}

	switch {
	case settings.Cflag&tcCRTSCTS == tcCRTSCTS:
		mode.FlowControl = HardwareFlowControl
	case settings.Iflag&(unix.IXON|unix.IXOFF) != 0:
		mode.FlowControl = SoftwareFlowControl
	default:
		mode.FlowControl = NoFlowControl
	}
}

func setRawMode(settings *unix.Termios) {
	// Set local mode
	settings.Cflag |= unix.CREAD | unix.CLOCAL

	// Set raw mode
	settings.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHOE | unix.ECHOK |
		unix.ECHONL | unix.ECHOCTL | unix.ECHOPRT | unix.ECHOKE | unix.ISIG | unix.IEXTEN
	settings.Iflag &^= unix.IXON | unix.IXOFF | unix.IXANY | unix.INPCK |
		unix.IGNPAR | unix.PARMRK | unix.ISTRIP | unix.IGNBRK | unix.BRKINT | unix.INLCR |
		unix.IGNCR | unix.ICRNL | tcIUCLC
	settings.Oflag &^= unix.OPOST

	// Block reads until at least one char is available (no timeout)
	settings.Cc[unix.VMIN] = 1
	settings.Cc[unix.VTIME] = 0
}

// native syscall wrapper functions

func (port *unixPort) getTermSettings() (*unix.Termios, error) {
	settings, err := unix.IoctlGetTermios(port.handle, ioctlTcgetattr)
	if err != nil {
		return nil, &PortError{code: InvalidSerialPort, causedBy: err}
	}
	return settings, nil
}

func (port *unixPort) acquireExclusiveAccess() error {
	return unix.IoctlSetInt(port.handle, unix.TIOCEXCL, 0)
}

func (port *unixPort) releaseExclusiveAccess() error {
	return unix.IoctlSetInt(port.handle, unix.TIOCNXCL, 0)
}
