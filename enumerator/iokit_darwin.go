//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package enumerator

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

const (
	ioKitPath          = "/System/Library/Frameworks/IOKit.framework/IOKit"
	coreFoundationPath = "/System/Library/Frameworks/CoreFoundation.framework/CoreFoundation"
)

// IOKit and CoreFoundation entry points, bound at first use without cgo
type ioKit struct {
	IOIteratorIsValid               func(ioIterator) bool
	IOIteratorNext                  func(ioIterator) ioObject
	IOIteratorReset                 func(ioIterator)
	IOObjectGetClass                func(ioObject, *ioName) kernReturn
	IOObjectRelease                 func(ioObject) kernReturn
	IORegistryEntryCreateCFProperty func(ioRegistryEntry, cfStringRef, cfAllocatorRef, uint32) cfTypeRef
	IORegistryEntryGetName          func(ioRegistryEntry, *ioName) kernReturn
	IORegistryEntryGetParentEntry   func(ioRegistryEntry, string, *ioRegistryEntry) kernReturn
	IOServiceGetMatchingServices    func(uintptr, cfDictionaryRef, *ioIterator) kernReturn
	IOServiceMatching               func(string) cfDictionaryRef

	kCFAllocatorDefault cfAllocatorRef

	CFGetTypeID               func(cfTypeRef) uintptr
	CFNumberGetTypeID         func() uintptr
	CFNumberGetValue          func(cfTypeRef, cfNumberType, unsafe.Pointer) bool
	CFRelease                 func(cfTypeRef)
	CFStringCreateWithCString func(cfAllocatorRef, string, cfStringEncoding) cfStringRef
	CFStringGetCString        func(cfTypeRef, *byte, int, cfStringEncoding) bool
	CFStringGetTypeID         func() uintptr
}

var (
	iokit        ioKit
	iokitOnce    sync.Once
	iokitLoadErr error
)

// kIOMainPortDefault
const ioMainPortDefault = 0

func loadIOKit() error {
	iokitOnce.Do(func() {
		iokitLoadErr = iokit.load()
	})
	return iokitLoadErr
}

func (l *ioKit) load() error {
	ioKitLib, err := purego.Dlopen(ioKitPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("loading IOKit: %w", err)
	}
	purego.RegisterLibFunc(&l.IOIteratorIsValid, ioKitLib, "IOIteratorIsValid")
	purego.RegisterLibFunc(&l.IOIteratorNext, ioKitLib, "IOIteratorNext")
	purego.RegisterLibFunc(&l.IOIteratorReset, ioKitLib, "IOIteratorReset")
	purego.RegisterLibFunc(&l.IOObjectGetClass, ioKitLib, "IOObjectGetClass")
	purego.RegisterLibFunc(&l.IOObjectRelease, ioKitLib, "IOObjectRelease")
	purego.RegisterLibFunc(&l.IORegistryEntryCreateCFProperty, ioKitLib, "IORegistryEntryCreateCFProperty")
	purego.RegisterLibFunc(&l.IORegistryEntryGetName, ioKitLib, "IORegistryEntryGetName")
	purego.RegisterLibFunc(&l.IORegistryEntryGetParentEntry, ioKitLib, "IORegistryEntryGetParentEntry")
	purego.RegisterLibFunc(&l.IOServiceGetMatchingServices, ioKitLib, "IOServiceGetMatchingServices")
	purego.RegisterLibFunc(&l.IOServiceMatching, ioKitLib, "IOServiceMatching")

	cfLib, err := purego.Dlopen(coreFoundationPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("loading CoreFoundation: %w", err)
	}
	ptr, err := purego.Dlsym(cfLib, "kCFAllocatorDefault")
	if err != nil {
		return err
	}
	l.kCFAllocatorDefault = *(*cfAllocatorRef)(unsafe.Pointer(ptr))
	purego.RegisterLibFunc(&l.CFGetTypeID, cfLib, "CFGetTypeID")
	purego.RegisterLibFunc(&l.CFNumberGetTypeID, cfLib, "CFNumberGetTypeID")
	purego.RegisterLibFunc(&l.CFNumberGetValue, cfLib, "CFNumberGetValue")
	purego.RegisterLibFunc(&l.CFRelease, cfLib, "CFRelease")
	purego.RegisterLibFunc(&l.CFStringCreateWithCString, cfLib, "CFStringCreateWithCString")
	purego.RegisterLibFunc(&l.CFStringGetCString, cfLib, "CFStringGetCString")
	purego.RegisterLibFunc(&l.CFStringGetTypeID, cfLib, "CFStringGetTypeID")
	return nil
}

type (
	kernReturn      int32
	ioName          [128]byte
	ioObject        uintptr
	ioIterator      ioObject
	ioRegistryEntry ioObject

	cfStringEncoding uint32
	cfNumberType     int
	cfTypeRef        uintptr
	cfAllocatorRef   cfTypeRef
	cfDictionaryRef  cfTypeRef
	cfStringRef      cfTypeRef
)

const (
	kernSuccess kernReturn = 0

	kCFNumberSInt64Type      cfNumberType     = 4
	kCFStringEncodingUTF8    cfStringEncoding = 0x08000100
	ioServicePlane                            = "IOService"
	cfPropertyStringCapacity                  = 1024
)

func (r kernReturn) failed() bool {
	return r != kernSuccess
}

func (n *ioName) String() string {
	if i := bytes.IndexByte(n[:], 0); i >= 0 {
		return string(n[:i])
	}
	return string(n[:])
}

func (o ioObject) release() {
	iokit.IOObjectRelease(o)
}

// matchingServices returns the registry entries of the services of the
// given class. The caller releases them.
func matchingServices(class string) ([]ioRegistryEntry, error) {
	var it ioIterator
	// IOServiceGetMatchingServices consumes the matching dictionary
	if res := iokit.IOServiceGetMatchingServices(ioMainPortDefault, iokit.IOServiceMatching(class), &it); res.failed() {
		return nil, fmt.Errorf("IOServiceGetMatchingServices failed (code %d)", res)
	}
	defer ioObject(it).release()

	var services []ioRegistryEntry
	for tries := 0; tries < 5; tries++ {
		for {
			o := iokit.IOIteratorNext(it)
			if o == 0 {
				break
			}
			services = append(services, ioRegistryEntry(o))
		}
		// the iterator is invalidated if the registry changes while iterating
		if iokit.IOIteratorIsValid(it) {
			return services, nil
		}
		for _, s := range services {
			s.Release()
		}
		services = services[:0]
		iokit.IOIteratorReset(it)
	}
	return nil, errors.New("IOServiceGetMatchingServices failed, data changed while iterating")
}

// Class implements registryNode
func (e ioRegistryEntry) Class() string {
	var class ioName
	if iokit.IOObjectGetClass(ioObject(e), &class).failed() {
		return ""
	}
	return class.String()
}

// Name implements registryNode
func (e ioRegistryEntry) Name() string {
	var name ioName
	if iokit.IORegistryEntryGetName(e, &name).failed() {
		return ""
	}
	return name.String()
}

// Parent implements registryNode
func (e ioRegistryEntry) Parent() (registryNode, error) {
	var parent ioRegistryEntry
	if iokit.IORegistryEntryGetParentEntry(e, ioServicePlane, &parent).failed() {
		return nil, errors.New("no parent device available")
	}
	return parent, nil
}

// Release implements registryNode
func (e ioRegistryEntry) Release() {
	ioObject(e).release()
}

func (e ioRegistryEntry) property(key string) (cfTypeRef, error) {
	k := iokit.CFStringCreateWithCString(iokit.kCFAllocatorDefault, key, kCFStringEncodingUTF8)
	defer iokit.CFRelease(cfTypeRef(k))
	property := iokit.IORegistryEntryCreateCFProperty(e, k, iokit.kCFAllocatorDefault, 0)
	if property == 0 {
		return 0, fmt.Errorf("property %q not found", key)
	}
	return property, nil
}

// StringProperty implements registryNode
func (e ioRegistryEntry) StringProperty(key string) (string, error) {
	property, err := e.property(key)
	if err != nil {
		return "", err
	}
	defer iokit.CFRelease(property)

	if iokit.CFGetTypeID(property) != iokit.CFStringGetTypeID() {
		return "", fmt.Errorf("property %q is not a string", key)
	}
	buf := make([]byte, cfPropertyStringCapacity)
	if !iokit.CFStringGetCString(property, &buf[0], len(buf), kCFStringEncodingUTF8) {
		return "", fmt.Errorf("property %q can't be converted", key)
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), nil
}

// IntProperty implements registryNode
func (e ioRegistryEntry) IntProperty(key string) (int64, error) {
	property, err := e.property(key)
	if err != nil {
		return 0, err
	}
	defer iokit.CFRelease(property)

	if iokit.CFGetTypeID(property) != iokit.CFNumberGetTypeID() {
		return 0, fmt.Errorf("property %q is not a number", key)
	}
	var res int64
	if !iokit.CFNumberGetValue(property, kCFNumberSInt64Type, unsafe.Pointer(&res)) {
		return 0, fmt.Errorf("property %q can't be converted", key)
	}
	return res, nil
}
