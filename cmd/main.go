package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	_ "time/tzdata"

	"github.com/alecthomas/kong"
	"github.com/crazy-max/bundlefs/internal/app"
	"github.com/crazy-max/bundlefs/internal/logging"
	"github.com/crazy-max/bundlefs/pkg/config"
	"github.com/rs/zerolog/log"
)

var (
	bundlefs *app.Bundlefs
	cli      config.Cli
	version  = "dev"
	meta     = config.Meta{
		ID:     "bundlefs",
		Name:   "Bundlefs",
		Desc:   "Expose the content of an archive as a virtual resource tree",
		URL:    "https://github.com/crazy-max/bundlefs",
		Author: "CrazyMax",
	}
)

func main() {
	var err error
	runtime.GOMAXPROCS(runtime.NumCPU())

	meta.Version = version
	meta.UserAgent = fmt.Sprintf("%s/%s go/%s %s", meta.ID, meta.Version, runtime.Version()[2:], strings.Title(runtime.GOOS)) //nolint:staticcheck // ignoring "SA1019: strings.Title is deprecated", as for our use we don't need full unicode support

	kctx := kong.Parse(&cli,
		kong.Name(meta.ID),
		kong.Description(fmt.Sprintf("%s. More info: %s", meta.Desc, meta.URL)),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	// Logging
	logging.Configure(cli)

	// Handle os signals
	channel := make(chan os.Signal, 1)
	signal.Notify(channel, os.Interrupt, SIGTERM)
	go func() {
		sig := <-channel
		bundlefs.Close()
		log.Warn().Msgf("caught signal %v", sig)
		os.Exit(0)
	}()

	// Init
	if bundlefs, err = app.New(meta, cli); err != nil {
		log.Fatal().Err(err).Msg("cannot initialize bundlefs")
	}
	defer bundlefs.Close()

	// Start
	if err = bundlefs.Start(kctx.Command()); err != nil {
		bundlefs.Close()
		log.Fatal().Stack().Err(err).Send()
	}
}
