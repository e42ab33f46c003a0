package main

import (
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/idilsaglam/todolive/internal/cli"
	"github.com/idilsaglam/todolive/internal/ui"
)

func main() {
	// Root flags (apply to every subcommand); glog registers its own.
	groupPending := flag.Bool("group", false, "group watch output by pending/done")
	endpoint := flag.String("endpoint", "", "data service URL")
	theme := flag.String("theme", "classic", "classic | neon | mono")
	flag.Usage = cli.PrintHelp
	flag.Parse()

	ui.SetTheme(*theme)

	code := cli.Run(flag.Args(), cli.Options{
		Group:    *groupPending,
		Endpoint: *endpoint,
	})
	glog.Flush()
	os.Exit(code)
}
