package backend

import (
	"flag"
	"strconv"
)

var (
	SeekToCLIArg float64 = -1
	VolumeCLIArg float64 = -1

	FlagPlayPause = flag.Bool("play-pause", false, "toggle play/pause state")
	FlagNext      = flag.Bool("next", false, "skip to next track")
	FlagPrevious  = flag.Bool("previous", false, "skip to previous track")
	FlagStop      = flag.Bool("stop", false, "stop playback")
	FlagMute      = flag.Bool("mute", false, "toggle mute on every player")
	FlagLike      = flag.Bool("like", false, "like/favorite the current track")
	FlagDislike   = flag.Bool("dislike", false, "dislike the current track")
	FlagVersion   = flag.Bool("version", false, "print app version and exit")
	FlagHelp      = flag.Bool("help", false, "print command line options and exit")
)

func init() {
	flag.Func("seek-to", "seeks to the given position in seconds in the current track", func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		SeekToCLIArg = v
		return err
	})
	flag.Func("volume", "sets the playback volume (0.0 - 1.0)", func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		VolumeCLIArg = v
		return err
	})
}

func HaveCommandLineOptions() bool {
	visitedAny := false
	flag.Visit(func(*flag.Flag) {
		visitedAny = true
	})
	return visitedAny
}
