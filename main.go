/*
This is an example of application that will use the
engine package to sync a small scene
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/meshsync/engine"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/testbed"
)

func main() {
	settingsPath := flag.String("settings", "", "path of the TOML settings file")
	serve := flag.Bool("receiver", false, "run a local receiver that logs what it is sent")
	flag.Parse()

	ts, err := testbed.NewTestScene(*settingsPath)
	if err != nil {
		panic(err)
	}

	e, err := engine.New(ts.Application, nil)
	if err != nil {
		panic(err)
	}

	if *serve {
		rv, err := testbed.NewLogReceiver(e.Settings().Client.URL)
		if err != nil {
			panic(err)
		}
		rv.Start()
		defer func() {
			if err := rv.Shutdown(); err != nil {
				core.LogWarn("receiver shutdown: %v", err)
			}
		}()
	}

	if err := e.Initialize(); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// stop the loop; shutdown happens on the main thread once Run returns
	go func() {
		<-sigCh
		e.Stop()
	}()

	if err := e.Run(); err != nil {
		core.LogError("run: %v", err)
	}
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %v", err)
	}
}
