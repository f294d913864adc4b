package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"spot-watcher/watcher"
	"strings"
	"time"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var configPath string
	var feedURL string
	var dbPath string
	var debug bool
	var once bool
	var pollInterval time.Duration
	var timeout time.Duration
	var soundPlayerCmd string
	var speakTest string

	flag.StringVar(&configPath, "config", "", "YAML config file path.")
	flag.StringVar(&feedURL, "feed-url", watcher.DefaultFeedURL, "Spot feed endpoint (JSON array).")
	flag.StringVar(&dbPath, "db", "", "Session archive SQLite path. Empty disables archiving.")
	flag.BoolVar(&debug, "debug", false, "Enable debug logs.")
	flag.BoolVar(&once, "once", false, "Run one poll cycle and exit.")
	flag.DurationVar(&pollInterval, "poll-interval", 60*time.Second, "Polling interval between cycles.")
	flag.DurationVar(&timeout, "timeout", 0, "Overall timeout for one cycle (e.g. 30s, 2m).")
	flag.StringVar(&soundPlayerCmd, "sound-player", "", "External audio player command (default aplay).")
	flag.StringVar(&speakTest, "speak-test", "", "Synthesize and play this text once, then exit.")
	flag.Parse()

	visited := map[string]bool{}
	flag.CommandLine.Visit(func(f *flag.Flag) {
		visited[f.Name] = true
	})

	// Base config from file; a missing file yields defaults.
	fileCfg := &watcher.FileConfig{}
	fileCfg.ApplyDefaults()
	if configPath != "" {
		cfg, err := watcher.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		fileCfg = cfg
	}

	finalFeedURL := fileCfg.FeedURL
	if visited["feed-url"] {
		finalFeedURL = feedURL
	}
	finalDB := fileCfg.DB
	if visited["db"] {
		finalDB = dbPath
	}
	finalDebug := fileCfg.Debug
	if visited["debug"] {
		finalDebug = debug
	}

	// Manual synthesis test: unlike batch speech, the failure is surfaced.
	if strings.TrimSpace(speakTest) != "" {
		speakerID := 0
		if fileCfg.Speech.SpeakerID != nil {
			speakerID = *fileCfg.Speech.SpeakerID
		}
		client := watcher.NewVoicevoxClient(
			fileCfg.Speech.Hostname,
			fileCfg.Speech.Port,
			speakerID,
			fileCfg.Speech.Params(),
			watcher.ExecAudioPlayer{Command: soundPlayerCmd},
			10*time.Second,
		)
		if err := client.SynthesizeAndPlay(speakTest); err != nil {
			fmt.Fprintf(os.Stderr, "speech test failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	runner, err := watcher.NewRunner(watcher.RunnerConfig{
		FeedURL:        finalFeedURL,
		DBPath:         finalDB,
		Debug:          finalDebug,
		Timeout:        timeout,
		SoundPlayerCmd: soundPlayerCmd,
		Filter:         fileCfg.Filter,
		Speech:         fileCfg.Speech,
	})
	if err != nil {
		log.Fatalf("init runner: %v", err)
	}
	defer runner.Close()

	if once {
		if err := runner.RunOnce(); err != nil {
			log.Fatalf("run once: %v", err)
		}
		return
	}

	// Cycles run back to back: the sleep starts only after the previous
	// cycle (speech queue included) has fully finished, so cycles never
	// overlap.
	for {
		if err := runner.RunOnce(); err != nil {
			log.Printf("run once error: %v", err)
		}
		time.Sleep(pollInterval)
	}
}
