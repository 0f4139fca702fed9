package badgerdb

import (
	"fmt"
	"strings"

	"github.com/celer-network/go-zkrollup/log"
)

// extendedLog routes badger's own messages to the db module logger.
type extendedLog struct {
	*log.Logger
}

func (l *extendedLog) Errorf(format string, v ...interface{}) {
	l.Error().Msg(trimMsg(format, v...))
}

func (l *extendedLog) Warningf(format string, v ...interface{}) {
	l.Warn().Msg(trimMsg(format, v...))
}

func (l *extendedLog) Infof(format string, v ...interface{}) {
	l.Info().Msg(trimMsg(format, v...))
}

func (l *extendedLog) Debugf(format string, v ...interface{}) {
	l.Debug().Msg(trimMsg(format, v...))
}

func trimMsg(format string, v ...interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, v...), "\n")
}
