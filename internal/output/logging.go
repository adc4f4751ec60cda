package output

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging sets up the global logger. Diagnostics go to w so they do
// not interleave with the progress printed on stdout.
func ConfigureLogging(w io.Writer, verbose, noColor bool) {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
		ForceColors:   !noColor && isTerminal(w),
		DisableColors: noColor,
	})
	log.SetOutput(w)

	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}
