//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

//go:build windows || wasm

package enumerator

import (
	"context"
	"slices"
	"time"
)

// there is no device folder to watch, the list is polled instead
const watchPollInterval = time.Second

// Watch calls fn with the detailed port list right away and again every
// time a port appears or disappears. It blocks until ctx is done, fn is
// called from the calling goroutine.
func Watch(ctx context.Context, fn func(ports []*PortDetails, err error)) error {
	return pollPorts(ctx, watchPollInterval, GetDetailedPortsList, fn)
}

func pollPorts(ctx context.Context, interval time.Duration, list func() ([]*PortDetails, error), fn func([]*PortDetails, error)) error {
	ports, err := list()
	fn(ports, err)
	last, lastErr := portNames(ports), err

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			ports, err := list()
			names := portNames(ports)
			if slices.Equal(names, last) && (err == nil) == (lastErr == nil) {
				continue
			}
			last, lastErr = names, err
			fn(ports, err)
		}
	}
}

func portNames(ports []*PortDetails) []string {
	names := make([]string, len(ports))
	for i, port := range ports {
		names[i] = port.Name
	}
	return names
}
