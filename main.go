package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/berrberr/gshotkeys/backend"
	"github.com/berrberr/gshotkeys/backend/ipc"
	"github.com/berrberr/gshotkeys/backend/session"
	"github.com/berrberr/gshotkeys/res"
)

func main() {
	flag.Parse()
	if *backend.FlagVersion {
		fmt.Println(res.AppName, res.AppVersionTag)
		return
	}
	if *backend.FlagHelp {
		flag.Usage()
		return
	}
	if backend.HaveCommandLineOptions() {
		// a daemon is (hopefully) already running; send it the command
		if err := sendCommandLineOptions(); err != nil {
			log.Fatalf("could not reach a running %s daemon: %v", res.AppName, err)
		}
		return
	}

	myApp, err := backend.StartupApp(res.AppName, res.DisplayName, res.AppVersionTag)
	if err != nil {
		log.Fatalf("fatal startup error: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("Shutting down...")
	myApp.Shutdown()
}

func sendCommandLineOptions() error {
	client, err := ipc.Connect()
	if err != nil {
		return err
	}
	switch {
	case *backend.FlagPlayPause:
		return client.SendCommand(session.CmdPlayPause, nil, "")
	case *backend.FlagNext:
		return client.SendCommand(session.CmdPlayNext, nil, "")
	case *backend.FlagPrevious:
		return client.SendCommand(session.CmdPlayPrev, nil, "")
	case *backend.FlagStop:
		return client.SendCommand(session.CmdStop, nil, "")
	case *backend.FlagMute:
		return client.SendCommand(session.CmdMute, nil, "")
	case *backend.FlagLike:
		return client.SendCommand(session.CmdLike, nil, "")
	case *backend.FlagDislike:
		return client.SendCommand(session.CmdDislike, nil, "")
	case backend.SeekToCLIArg >= 0:
		return client.SendCommand(session.CmdSeek, []any{backend.SeekToCLIArg}, "")
	case backend.VolumeCLIArg >= 0:
		return client.SendCommand(session.CmdVolume, []any{backend.VolumeCLIArg}, "")
	}
	return nil
}
