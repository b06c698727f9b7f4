package sui

import (
	"github.com/sonar-protocol/kiosk-syncer/src/utils/logger"

	"github.com/sirupsen/logrus"
)

// Resty logs everything as debug, retries are reported by the client itself
type Logger struct {
	log *logrus.Entry
}

func NewLogger() (self *Logger) {
	self = new(Logger)
	self.log = logger.NewSublogger("sui-resty")
	return
}

func (self *Logger) Errorf(format string, v ...interface{}) {
	self.log.Debugf(format, v...)
}

func (self *Logger) Warnf(format string, v ...interface{}) {
	self.log.Debugf(format, v...)
}

func (self *Logger) Debugf(format string, v ...interface{}) {
	self.log.Tracef(format, v...)
}
