package cli

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/hxl-lang/hxl/log"
)

type logConfig struct {
	Level      string `default:"info"    enum:"trace,debug,info,warn,error" help:"Set log level."`
	Format     string `default:"pretty"  enum:"json,text,pretty"            help:"Set log format."`
	TimeLayout string `default:"RFC3339"                                    help:"Set timestamp layout."`
	Caller     bool   `default:"false"                                      help:"Include caller information." negatable:""`
}

func (logConfig) group() kong.Group {
	var group kong.Group

	group.Key = "log"
	group.Title = "Logging options"

	return group
}

// logger builds the process logger from the parsed flags. Diagnostics go
// to stderr so converted output on stdout stays clean.
func (f logConfig) logger() log.Logger {
	return log.Make(os.Stderr,
		log.WithLevel(log.ParseLevel(f.Level)),
		log.WithFormat(log.ParseFormat(f.Format)),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
	)
}
