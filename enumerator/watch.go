//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

//go:build !windows && !wasm

package enumerator

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
)

// device nodes appear in bursts, one enumeration covers the whole burst
const watchSettleTime = 200 * time.Millisecond

// Watch calls fn with the detailed port list right away and again every
// time a device node is created or removed under /dev. It blocks until ctx
// is done or the watch fails, fn is called from the calling goroutine.
func Watch(ctx context.Context, fn func(ports []*PortDetails, err error)) error {
	return watchFolder(ctx, "/dev", GetDetailedPortsList, fn)
}

func watchFolder(ctx context.Context, folder string, list func() ([]*PortDetails, error), fn func([]*PortDetails, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return &PortEnumerationError{causedBy: err}
	}
	defer watcher.Close()
	if err := watcher.Add(folder); err != nil {
		return &PortEnumerationError{causedBy: err}
	}

	fn(list())

	settle := time.NewTimer(watchSettleTime)
	settle.Stop()
	defer settle.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			settle.Reset(watchSettleTime)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return &PortEnumerationError{causedBy: err}
		case <-settle.C:
			fn(list())
		}
	}
}
