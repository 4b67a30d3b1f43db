package scraper

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// logf adapts a zerolog level to the printf style loggers chromedp expects.
func logf(log zerolog.Logger, level zerolog.Level) func(format string, a ...interface{}) {
	return func(format string, a ...interface{}) {
		log.WithLevel(level).Str("component", "chromedp").Msg(strings.TrimSpace(fmt.Sprintf(format, a...)))
	}
}
