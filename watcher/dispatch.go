package watcher

import (
	"log"
	"os"
	"time"
)

// Dispatcher fans filtered spots out to the notification channels. A nil
// sink marks that channel unavailable: its actions are skipped and logged,
// never fatal.
type Dispatcher struct {
	alerts AlertSink
	popups PopupSink
	sound  SoundPlayer
	speech Speaker
}

func NewDispatcher(alerts AlertSink, popups PopupSink, sound SoundPlayer, speech Speaker) *Dispatcher {
	return &Dispatcher{alerts: alerts, popups: popups, sound: sound, speech: speech}
}

// DispatchConfig is the per-cycle snapshot of the channel settings. All
// caps treat 0 as unlimited.
type DispatchConfig struct {
	MaxAlertCount   int
	MaxPopupCount   int
	MaxSpotsPerRead int
	SoundPath       string
	TextTemplate    string
	TextOptions     SpeechTextOptions
}

type SpeechFailure struct {
	SpotID int64
	Err    string
}

// DispatchOutcome reports, per channel, which spots actually went out.
// The sound channel plays at most once per batch, so it carries a bool.
type DispatchOutcome struct {
	Alerted        []Spot
	PopupShown     []Spot
	Spoken         []Spot
	SpeechFailures []SpeechFailure
	SoundPlayed    bool
}

// BatchResult is the full result of one poll cycle's pipeline run.
type BatchResult struct {
	// NewSpots are the first-seen spots of the batch, in batch order,
	// regardless of filter outcome.
	NewSpots []Spot
	// Matched is the filtered subsequence of NewSpots.
	Matched []Spot
	Outcome DispatchOutcome
}

// ProcessBatch runs the detection-filter-dispatch pipeline for one poll
// cycle. Every spot is offered to the novelty index in batch order before
// any dispatch; an already-seen identity is never re-evaluated, even if it
// would match the filter now.
func (d *Dispatcher) ProcessBatch(batch []Spot, idx *NoveltyIndex, filter FilterConfig, cfg DispatchConfig, deadline time.Time) BatchResult {
	var res BatchResult
	for _, s := range batch {
		if !idx.Offer(s.SpotID) {
			continue
		}
		res.NewSpots = append(res.NewSpots, s)
		if AcceptSpot(s, filter) {
			res.Matched = append(res.Matched, s)
		}
	}
	res.Outcome = d.Dispatch(res.Matched, cfg, deadline)
	return res
}

// Dispatch fans one batch's filtered spots out to the channels. The alert
// and popup caps independently head-slice the same ordered list; speech is
// strictly sequential, one finished utterance before the next starts.
func (d *Dispatcher) Dispatch(filtered []Spot, cfg DispatchConfig, deadline time.Time) DispatchOutcome {
	var out DispatchOutcome
	if len(filtered) == 0 {
		return out
	}

	// Sound plays once for the whole batch, not once per spot.
	if cfg.SoundPath != "" {
		switch {
		case d.sound == nil:
			log.Printf("sound channel unavailable, skipping")
		default:
			if _, err := os.Stat(cfg.SoundPath); err != nil {
				log.Printf("sound asset missing path=%q err=%v", cfg.SoundPath, err)
			} else if err := d.sound.PlaySound(cfg.SoundPath); err != nil {
				log.Printf("play sound failed path=%q err=%v", cfg.SoundPath, err)
			} else {
				out.SoundPlayed = true
			}
		}
	}

	if d.alerts != nil {
		for _, s := range headSlice(filtered, cfg.MaxAlertCount) {
			if err := d.alerts.EmitAlert(s); err != nil {
				log.Printf("alert failed spot=%d err=%v", s.SpotID, err)
				continue
			}
			out.Alerted = append(out.Alerted, s)
		}
	}

	if d.popups != nil {
		for _, s := range headSlice(filtered, cfg.MaxPopupCount) {
			if err := d.popups.EmitPopup(s); err != nil {
				log.Printf("popup failed spot=%d err=%v", s.SpotID, err)
				continue
			}
			out.PopupShown = append(out.PopupShown, s)
		}
	}

	if d.speech != nil {
		for _, s := range headSlice(filtered, cfg.MaxSpotsPerRead) {
			if isDeadlineExceeded(deadline) {
				log.Printf("speech queue abandoned, cycle deadline exceeded")
				break
			}
			text := RenderSpeechText(s, cfg.TextTemplate, cfg.TextOptions)
			if err := d.speech.SynthesizeAndPlay(text); err != nil {
				// Automatic batch speech: log and move on to the next spot.
				log.Printf("speech failed spot=%d err=%v", s.SpotID, err)
				out.SpeechFailures = append(out.SpeechFailures, SpeechFailure{SpotID: s.SpotID, Err: err.Error()})
				continue
			}
			out.Spoken = append(out.Spoken, s)
		}
	}

	return out
}

func headSlice(spots []Spot, limit int) []Spot {
	if limit <= 0 || limit >= len(spots) {
		return spots
	}
	return spots[:limit]
}
