//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package serial

/*

// MSDN article on Serial Communications:
// http://msdn.microsoft.com/en-us/library/ff802693.aspx
// https://msdn.microsoft.com/en-us/library/ms810467.aspx

// Arduino Playground article on serial communication with Windows API:
// http://playground.arduino.cc/Interfacing/CPPWindows

*/

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/windows"
)

type windowsPort struct {
	handle windows.Handle
	name   string

	readTimeout time.Duration
	closeLock   sync.RWMutex
	opened      uint32
}

func (port *windowsPort) acquire() error {
	port.closeLock.RLock()
	if atomic.LoadUint32(&port.opened) != 1 {
		port.closeLock.RUnlock()
		return &PortError{code: PortClosed}
	}
	return nil
}

func (port *windowsPort) release() {
	port.closeLock.RUnlock()
}

func (port *windowsPort) Name() string {
	return port.name
}

func (port *windowsPort) Close() error {
	if !atomic.CompareAndSwapUint32(&port.opened, 1, 0) {
		return nil
	}

	// Abort pending reads and writes, they return PortClosed
	windows.CancelIoEx(port.handle, nil)

	port.closeLock.Lock()
	defer port.closeLock.Unlock()
	if err := windows.CloseHandle(port.handle); err != nil {
		return newOSError(err)
	}
	return nil
}

func (port *windowsPort) Read(p []byte) (int, error) {
	if err := port.acquire(); err != nil {
		return 0, err
	}
	defer port.release()

	if len(p) == 0 {
		return 0, nil
	}

	ev, err := createOverlappedEvent()
	if err != nil {
		return 0, &PortError{code: ReadFailed, causedBy: err}
	}
	defer windows.CloseHandle(ev.HEvent)

	for {
		var done uint32
		err := port.wait(windows.ReadFile(port.handle, p, &done, ev), ev, &done)
		if atomic.LoadUint32(&port.opened) != 1 {
			return 0, &PortError{code: PortClosed}
		}
		if err != nil {
			return 0, &PortError{code: ReadFailed, causedBy: err}
		}
		if done > 0 {
			return int(done), nil
		}
		if port.readTimeout != NoTimeout {
			return 0, &PortError{code: Timeout}
		}
		// The driver can not wait forever, the longest constant
		// timeout expired: just start over.
	}
}

func (port *windowsPort) Write(p []byte) (int, error) {
	if err := port.acquire(); err != nil {
		return 0, err
	}
	defer port.release()

	ev, err := createOverlappedEvent()
	if err != nil {
		return 0, &PortError{code: WriteFailed, causedBy: err}
	}
	defer windows.CloseHandle(ev.HEvent)

	var written uint32
	err = port.wait(windows.WriteFile(port.handle, p, &written, ev), ev, &written)
	if atomic.LoadUint32(&port.opened) != 1 {
		return int(written), &PortError{code: PortClosed}
	}
	if err != nil {
		return int(written), &PortError{code: WriteFailed, causedBy: err}
	}
	return int(written), nil
}

// wait completes the overlapped operation started with result err. Close
// cancels the pending operations, but one issued by a Read or Write that
// was already past acquire can start after that: such an operation is
// cancelled here.
func (port *windowsPort) wait(err error, ev *windows.Overlapped, done *uint32) error {
	if err != nil && err != windows.ERROR_IO_PENDING {
		return err
	}
	if err == windows.ERROR_IO_PENDING && atomic.LoadUint32(&port.opened) != 1 {
		windows.CancelIoEx(port.handle, ev)
	}
	return windows.GetOverlappedResult(port.handle, ev, done, true)
}

func (port *windowsPort) Drain() error {
	if err := port.acquire(); err != nil {
		return err
	}
	defer port.release()
	return port.osError(windows.FlushFileBuffers(port.handle))
}

func (port *windowsPort) ResetInputBuffer() error {
	if err := port.acquire(); err != nil {
		return err
	}
	defer port.release()
	return port.osError(purgeComm(port.handle, purgeRxClear|purgeRxAbort))
}

func (port *windowsPort) ResetOutputBuffer() error {
	if err := port.acquire(); err != nil {
		return err
	}
	defer port.release()
	return port.osError(purgeComm(port.handle, purgeTxClear|purgeTxAbort))
}

func (port *windowsPort) ClearBuffer(which ClearBuffer) error {
	return clearBuffer(port, which)
}

func (port *windowsPort) BytesToRead() (int, error) {
	stat, err := port.commStatus()
	if err != nil {
		return 0, err
	}
	return int(stat.inque), nil
}

func (port *windowsPort) BytesToWrite() (int, error) {
	stat, err := port.commStatus()
	if err != nil {
		return 0, err
	}
	return int(stat.outque), nil
}

func (port *windowsPort) commStatus() (*comstat, error) {
	if err := port.acquire(); err != nil {
		return nil, err
	}
	defer port.release()
	var errs uint32
	stat := &comstat{}
	if err := clearCommError(port.handle, &errs, stat); err != nil {
		return nil, newOSError(err)
	}
	return stat, nil
}

const (
	dcbBinary                uint32 = 0x00000001
	dcbParity                       = 0x00000002
	dcbOutXCTSFlow                  = 0x00000004
	dcbOutXDSRFlow                  = 0x00000008
	dcbDTRControlDisableMask        = ^uint32(0x00000030)
	dcbDTRControlEnable             = 0x00000010
	dcbDTRControlHandshake          = 0x00000020
	dcbDSRSensitivity               = 0x00000040
	dcbTXContinueOnXOFF             = 0x00000080
	dcbOutX                         = 0x00000100
	dcbInX                          = 0x00000200
	dcbErrorChar                    = 0x00000400
	dcbNull                         = 0x00000800
	dcbRTSControlDisableMask        = ^uint32(0x00003000)
	dcbRTSControlEnable             = 0x00001000
	dcbRTSControlHandshake          = 0x00002000
	dcbRTSControlToggle             = 0x00003000
	dcbAbortOnError                 = 0x00004000
)

var parityMap = map[Parity]byte{
	NoParity:    0,
	OddParity:   1,
	EvenParity:  2,
	MarkParity:  3,
	SpaceParity: 4,
}

var stopBitsMap = map[StopBits]byte{
	OneStopBit:           0,
	OnePointFiveStopBits: 1,
	TwoStopBits:          2,
}

func (port *windowsPort) SetMode(mode *Mode) error {
	if err := port.acquire(); err != nil {
		return err
	}
	defer port.release()
	return port.setMode(mode, false)
}

// setMode builds the whole DCB before applying it with a single
// SetCommState, the port is left untouched if the device refuses it. The
// DCB is read back afterwards: a driver that silently ignores a field gets
// the previous DCB again and the mode is refused.
func (port *windowsPort) setMode(mode *Mode, opening bool) error {
	if err := mode.validate(); err != nil {
		return err
	}
	params := &dcb{}
	if err := getCommState(port.handle, params); err != nil {
		return &PortError{code: InvalidSerialPort, causedBy: err}
	}
	previous := *params
	setDCB(mode, params, opening)
	if err := setCommState(port.handle, params); err != nil {
		if err == windows.ERROR_INVALID_PARAMETER {
			return &PortError{code: UnsupportedMode, causedBy: err}
		}
		return newOSError(err)
	}
	applied := &dcb{}
	if err := getCommState(port.handle, applied); err != nil {
		return newOSError(err)
	}
	appliedMode := &Mode{}
	getDCB(applied, appliedMode)
	if mismatch := modeMismatch(mode, appliedMode, true); mismatch != "" {
		setCommState(port.handle, &previous)
		return &PortError{code: UnsupportedMode, causedBy: fmt.Errorf("%s not applied by the driver", mismatch)}
	}
	if err := setCommTimeouts(port.handle, commTimeoutsFor(mode.Timeout)); err != nil {
		return &PortError{code: InvalidTimeoutValue, causedBy: err}
	}
	port.readTimeout = mode.Timeout
	return nil
}

// setDCB copies mode into params. When opening, the modem output lines
// are driven as requested by InitialStatusBits (both asserted if nil),
// otherwise their current state is preserved.
func setDCB(mode *Mode, params *dcb, opening bool) {
	params.BaudRate = uint32(mode.baudRate())
	params.ByteSize = byte(mode.dataBits())
	params.StopBits = stopBitsMap[mode.StopBits]
	params.Parity = parityMap[mode.Parity]

	params.Flags |= dcbBinary
	if mode.Parity != NoParity {
		params.Flags |= dcbParity
	} else {
		params.Flags &^= dcbParity
	}
	params.Flags &^= dcbOutXDSRFlow | dcbDSRSensitivity | dcbErrorChar | dcbNull | dcbAbortOnError
	params.Flags |= dcbTXContinueOnXOFF

	if opening {
		bits := mode.InitialStatusBits
		if bits == nil {
			bits = &ModemOutputBits{RTS: true, DTR: true}
		}
		params.Flags &= dcbDTRControlDisableMask
		if bits.DTR {
			params.Flags |= dcbDTRControlEnable
		}
		params.Flags &= dcbRTSControlDisableMask
		if bits.RTS {
			params.Flags |= dcbRTSControlEnable
		}
	}

	switch mode.FlowControl {
	case HardwareFlowControl:
		params.Flags |= dcbOutXCTSFlow
		params.Flags &= dcbRTSControlDisableMask
		params.Flags |= dcbRTSControlHandshake
		params.Flags &^= dcbOutX | dcbInX
	case SoftwareFlowControl:
		params.Flags &^= dcbOutXCTSFlow
		if params.Flags&^dcbRTSControlDisableMask == dcbRTSControlHandshake {
			params.Flags &= dcbRTSControlDisableMask
			params.Flags |= dcbRTSControlEnable
		}
		params.Flags |= dcbOutX | dcbInX
	default:
		params.Flags &^= dcbOutXCTSFlow | dcbOutX | dcbInX
		if params.Flags&^dcbRTSControlDisableMask == dcbRTSControlHandshake {
			params.Flags &= dcbRTSControlDisableMask
			params.Flags |= dcbRTSControlEnable
		}
	}
	params.XonLim = 2048
	params.XoffLim = 512
	params.XonChar = 17  // DC1
	params.XoffChar = 19 // DC3
}

// getDCB is the inverse of setDCB, the read timeout is not part of the DCB
func getDCB(params *dcb, mode *Mode) {
	mode.BaudRate = int(params.BaudRate)
	mode.DataBits = int(params.ByteSize)
	for parity, v := range parityMap {
		if v == params.Parity {
			mode.Parity = parity
		}
	}
	for stopBits, v := range stopBitsMap {
		if v == params.StopBits {
			mode.StopBits = stopBits
		}
	}
	switch {
	case params.Flags&dcbOutXCTSFlow != 0:
		mode.FlowControl = HardwareFlowControl
	case params.Flags&(dcbOutX|dcbInX) != 0:
		mode.FlowControl = SoftwareFlowControl
	default:
		mode.FlowControl = NoFlowControl
	}
}

const maxDWORD = 0xFFFFFFFF

// commTimeoutsFor returns the COMMTIMEOUTS implementing the read timeout:
// with ReadIntervalTimeout and ReadTotalTimeoutMultiplier set to MAXDWORD
// ReadFile returns as soon as a byte is available, or after
// ReadTotalTimeoutConstant if nothing arrives. A zero constant returns
// immediately. MAXDWORD is not a valid constant so blocking reads loop on
// the largest allowed value.
func commTimeoutsFor(timeout time.Duration) *commTimeouts {
	timeouts := &commTimeouts{
		ReadIntervalTimeout:        maxDWORD,
		ReadTotalTimeoutMultiplier: maxDWORD,
	}
	switch {
	case timeout == NoTimeout:
		timeouts.ReadTotalTimeoutConstant = maxDWORD - 1
	case timeout == 0:
		timeouts.ReadTotalTimeoutMultiplier = 0
	default:
		ms := timeout.Milliseconds()
		if ms < 1 {
			ms = 1
		} else if ms > maxDWORD-1 {
			ms = maxDWORD - 1
		}
		timeouts.ReadTotalTimeoutConstant = uint32(ms)
	}
	return timeouts
}

func (port *windowsPort) GetMode() (*Mode, error) {
	if err := port.acquire(); err != nil {
		return nil, err
	}
	defer port.release()
	params := &dcb{}
	if err := getCommState(port.handle, params); err != nil {
		return nil, newOSError(err)
	}
	mode := &Mode{Timeout: port.readTimeout}
	getDCB(params, mode)
	return mode, nil
}

func (port *windowsPort) SetReadTimeout(timeout time.Duration) error {
	if err := port.acquire(); err != nil {
		return err
	}
	defer port.release()
	if timeout < 0 {
		return &PortError{code: InvalidTimeoutValue}
	}
	if err := setCommTimeouts(port.handle, commTimeoutsFor(timeout)); err != nil {
		return &PortError{code: InvalidTimeoutValue, causedBy: err}
	}
	port.readTimeout = timeout
	return nil
}

const (
	commFunctionSetXOFF  = 1
	commFunctionSetXON   = 2
	commFunctionSetRTS   = 3
	commFunctionClrRTS   = 4
	commFunctionSetDTR   = 5
	commFunctionClrDTR   = 6
	commFunctionSetBreak = 8
	commFunctionClrBreak = 9
)

func (port *windowsPort) SetDTR(dtr bool) error {
	if dtr {
		return port.escape(commFunctionSetDTR)
	}
	return port.escape(commFunctionClrDTR)
}

func (port *windowsPort) SetRTS(rts bool) error {
	if rts {
		return port.escape(commFunctionSetRTS)
	}
	return port.escape(commFunctionClrRTS)
}

func (port *windowsPort) SetBreak() error {
	return port.escape(commFunctionSetBreak)
}

func (port *windowsPort) ClearBreak() error {
	return port.escape(commFunctionClrBreak)
}

func (port *windowsPort) Break(d time.Duration) error {
	if err := port.SetBreak(); err != nil {
		return err
	}
	time.Sleep(d)
	return port.ClearBreak()
}

func (port *windowsPort) escape(function uint32) error {
	if err := port.acquire(); err != nil {
		return err
	}
	defer port.release()
	return port.osError(escapeCommFunction(port.handle, function))
}

const (
	msCTSOn  = 0x0010
	msDSROn  = 0x0020
	msRingOn = 0x0040
	msRLSDOn = 0x0080
)

func (port *windowsPort) GetModemStatusBits() (*ModemStatusBits, error) {
	bits, err := port.modemStatus()
	if err != nil {
		return nil, err
	}
	return &ModemStatusBits{
		CTS: bits&msCTSOn != 0,
		DCD: bits&msRLSDOn != 0,
		DSR: bits&msDSROn != 0,
		RI:  bits&msRingOn != 0,
	}, nil
}

func (port *windowsPort) ReadCTS() (bool, error) {
	bits, err := port.modemStatus()
	return bits&msCTSOn != 0, err
}

func (port *windowsPort) ReadDSR() (bool, error) {
	bits, err := port.modemStatus()
	return bits&msDSROn != 0, err
}

func (port *windowsPort) ReadRI() (bool, error) {
	bits, err := port.modemStatus()
	return bits&msRingOn != 0, err
}

func (port *windowsPort) ReadDCD() (bool, error) {
	bits, err := port.modemStatus()
	return bits&msRLSDOn != 0, err
}

func (port *windowsPort) modemStatus() (uint32, error) {
	if err := port.acquire(); err != nil {
		return 0, err
	}
	defer port.release()
	var bits uint32
	if err := getCommModemStatus(port.handle, &bits); err != nil {
		return 0, newOSError(err)
	}
	return bits, nil
}

func (port *windowsPort) osError(err error) error {
	if err == nil {
		return nil
	}
	return newOSError(err)
}

func createOverlappedEvent() (*windows.Overlapped, error) {
	h, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return nil, err
	}
	return &windows.Overlapped{HEvent: h}, nil
}

// devicePath turns "COM10" into "\\.\COM10", required for ports above COM9
func devicePath(portName string) string {
	if strings.HasPrefix(portName, `\\.\`) {
		return portName
	}
	return `\\.\` + portName
}

func nativeOpen(portName string, mode *Mode) (*windowsPort, error) {
	path, err := windows.UTF16PtrFromString(devicePath(portName))
	if err != nil {
		return nil, &PortError{code: InvalidArgument, causedBy: err}
	}
	handle, err := windows.CreateFile(
		path,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0, nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL|windows.FILE_FLAG_OVERLAPPED,
		0)
	if err != nil {
		return nil, newOSError(err)
	}
	port := &windowsPort{
		handle: handle,
		name:   portName,
		opened: 1,
	}
	if err := port.setMode(mode, true); err != nil {
		windows.CloseHandle(handle)
		return nil, err
	}
	return port, nil
}
