package shared

import (
	log "github.com/sirupsen/logrus"
)

// PanicOnError aborts startup with msg, carrying err as a log field.
func PanicOnError(err error, msg string) {
	if err != nil {
		log.WithError(err).Panic(msg)
	}
}

type UTCFormatter struct {
	log.Formatter
}

func (u UTCFormatter) Format(e *log.Entry) ([]byte, error) {
	e.Time = e.Time.UTC()
	return u.Formatter.Format(e)
}

// InitLog installs the UTC text formatter on the standard logger. An
// unparsable level falls back to info.
func InitLog(level string) {
	log.SetFormatter(UTCFormatter{&log.TextFormatter{DisableColors: true}})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("unknown log level %q, using info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
