//
// Copyright 2014-2024 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package enumerator

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	loggerLock sync.RWMutex
	logger     logrus.FieldLogger = logrus.StandardLogger()
)

// SetLogger sets the logger used to report the port attributes that could
// not be read. Nothing is logged above the debug level. A nil logger
// disables logging.
func SetLogger(l logrus.FieldLogger) {
	if l == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		l = discard
	}
	loggerLock.Lock()
	logger = l
	loggerLock.Unlock()
}

func getLogger() logrus.FieldLogger {
	loggerLock.RLock()
	defer loggerLock.RUnlock()
	return logger
}

// logDegraded reports an attribute of port that is left empty
func logDegraded(port, attribute string, err error) {
	getLogger().WithFields(logrus.Fields{
		"port":      port,
		"attribute": attribute,
	}).WithError(err).Debug("serial port metadata unavailable")
}
