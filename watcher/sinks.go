package watcher

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Output channel contracts. The dispatcher only ever sees these; the
// concrete desktop rendering lives with the caller. A nil sink means the
// channel is unavailable and its actions are skipped.

type AlertSink interface {
	EmitAlert(s Spot) error
}

type PopupSink interface {
	EmitPopup(s Spot) error
}

type SoundPlayer interface {
	PlaySound(path string) error
}

// Speaker synthesizes and plays one utterance, blocking until playback
// completes. Utterances must never overlap.
type Speaker interface {
	SynthesizeAndPlay(text string) error
}

// LogAlertSink and LogPopupSink render notifications as log lines. They
// stand in for the desktop shell when the watcher runs headless.
type LogAlertSink struct{}

func (LogAlertSink) EmitAlert(s Spot) error {
	log.Printf("ALERT %s on %s %skHz %s %s", s.Activator, s.Reference, s.Frequency, s.Mode, s.Comments)
	return nil
}

type LogPopupSink struct{}

func (LogPopupSink) EmitPopup(s Spot) error {
	log.Printf("POPUP %s on %s (%s) %skHz %s", s.Activator, s.Reference, s.Name, s.Frequency, s.Mode)
	return nil
}

// ExecSoundPlayer shells out to a local audio player and waits for it to
// exit. The default command works on ALSA systems; override for others
// (e.g. afplay on macOS).
type ExecSoundPlayer struct {
	Command string
}

func (p ExecSoundPlayer) PlaySound(path string) error {
	cmd := p.Command
	if strings.TrimSpace(cmd) == "" {
		cmd = "aplay"
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("sound asset missing: %w", err)
	}
	out, err := exec.Command(cmd, path).CombinedOutput()
	if err != nil {
		return fmt.Errorf("play %s: %v (%s)", filepath.Base(path), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// ExecAudioPlayer plays synthesized WAV bytes through the same external
// player, via a temp file. Blocks until playback finishes.
type ExecAudioPlayer struct {
	Command string
}

func (p ExecAudioPlayer) PlayWAV(data []byte) error {
	f, err := os.CreateTemp("", "spot-watcher-*.wav")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return ExecSoundPlayer{Command: p.Command}.PlaySound(tmp)
}
