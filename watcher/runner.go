package watcher

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
)

type RunnerConfig struct {
	FeedURL string
	// DBPath is the session archive. Empty disables archiving.
	DBPath string
	Debug  bool
	// Timeout bounds one cycle end to end, speech queue included.
	Timeout time.Duration
	// SoundPlayerCmd overrides the external audio player binary.
	SoundPlayerCmd string

	Filter FilterConfig
	Speech SpeechConfig
}

// Runner owns the per-session pipeline state: the novelty index, the
// loaded configuration, and the channel sinks. One Runner, one session.
// RunOnce is not safe for concurrent use; cycles must be serialized by the
// caller (the poll loop runs them back to back, so a tick never overlaps a
// running cycle).
type Runner struct {
	cfg        RunnerConfig
	fetcher    SpotFetcher
	dispatcher *Dispatcher
	novelty    *NoveltyIndex
	db         *gorm.DB
}

func (r *Runner) debugf(format string, args ...any) {
	if r == nil || !r.cfg.Debug {
		return
	}
	log.Printf(format, args...)
}

type runStats struct {
	SpotsFetched int
	SpotsNew     int
	SpotsMatched int
	AlertsSent   int
	PopupsShown  int
	SpokenOK     int
	SpokenErr    int
	SoundPlayed  bool
}

func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if strings.TrimSpace(cfg.FeedURL) == "" {
		return nil, fmt.Errorf("FeedURL is required")
	}

	var speech Speaker
	if cfg.Speech.IsEnabled() {
		speakerID := 0
		if cfg.Speech.SpeakerID != nil {
			speakerID = *cfg.Speech.SpeakerID
		}
		speech = NewVoicevoxClient(
			cfg.Speech.Hostname,
			cfg.Speech.Port,
			speakerID,
			cfg.Speech.Params(),
			ExecAudioPlayer{Command: cfg.SoundPlayerCmd},
			10*time.Second,
		)
	}

	r := &Runner{
		cfg:     cfg,
		fetcher: NewHTTPSpotFetcher(cfg.FeedURL, 15*time.Second),
		dispatcher: NewDispatcher(
			LogAlertSink{},
			LogPopupSink{},
			ExecSoundPlayer{Command: cfg.SoundPlayerCmd},
			speech,
		),
		novelty: NewNoveltyIndex(DefaultNoveltyCapacity),
	}

	if strings.TrimSpace(cfg.DBPath) != "" {
		db, err := OpenDB(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open archive db: %w", err)
		}
		r.db = db
	}
	return r, nil
}

func (r *Runner) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	err = sqlDB.Close()
	r.db = nil
	return err
}

// RunOnce executes one poll cycle: fetch, novelty partition, filter,
// dispatch, archive. A fetch failure fails the cycle (the next tick
// retries); everything downstream is per-item and non-fatal.
func (r *Runner) RunOnce() error {
	start := time.Now()
	deadline := time.Time{}
	if r.cfg.Timeout > 0 {
		deadline = start.Add(r.cfg.Timeout)
	}

	spots, err := r.fetcher.FetchSpots()
	if err != nil {
		return fmt.Errorf("fetch spots: %w", err)
	}

	res := r.dispatcher.ProcessBatch(spots, r.novelty, r.cfg.Filter, r.dispatchConfig(), deadline)

	stats := runStats{
		SpotsFetched: len(spots),
		SpotsNew:     len(res.NewSpots),
		SpotsMatched: len(res.Matched),
		AlertsSent:   len(res.Outcome.Alerted),
		PopupsShown:  len(res.Outcome.PopupShown),
		SpokenOK:     len(res.Outcome.Spoken),
		SpokenErr:    len(res.Outcome.SpeechFailures),
		SoundPlayed:  res.Outcome.SoundPlayed,
	}

	if err := r.archiveBatch(res); err != nil {
		// Archive is bookkeeping only; novelty state already advanced.
		log.Printf("archive batch failed: %v", err)
	}

	r.debugf("run_once done: fetched=%d new=%d matched=%d alerts=%d popups=%d spoken=%d speechErr=%d sound=%v indexSize=%d elapsed=%s",
		stats.SpotsFetched, stats.SpotsNew, stats.SpotsMatched, stats.AlertsSent, stats.PopupsShown,
		stats.SpokenOK, stats.SpokenErr, stats.SoundPlayed, r.novelty.Len(), time.Since(start))
	return nil
}

func (r *Runner) dispatchConfig() DispatchConfig {
	return DispatchConfig{
		MaxAlertCount:   r.cfg.Filter.AlertCap(),
		MaxPopupCount:   r.cfg.Filter.PopupCap(),
		MaxSpotsPerRead: r.cfg.Speech.SpeechCap(),
		SoundPath:       r.cfg.Filter.NotificationSoundPath,
		TextTemplate:    r.cfg.Speech.TextTemplate,
		TextOptions:     r.cfg.Speech.TextOptions(),
	}
}

func (r *Runner) archiveBatch(res BatchResult) error {
	if r.db == nil || len(res.NewSpots) == 0 {
		return nil
	}
	now := time.Now().UTC()

	matched := make(map[int64]struct{}, len(res.Matched))
	for _, s := range res.Matched {
		matched[s.SpotID] = struct{}{}
	}
	alerted := make(map[int64]struct{}, len(res.Outcome.Alerted))
	for _, s := range res.Outcome.Alerted {
		alerted[s.SpotID] = struct{}{}
	}
	popup := make(map[int64]struct{}, len(res.Outcome.PopupShown))
	for _, s := range res.Outcome.PopupShown {
		popup[s.SpotID] = struct{}{}
	}
	spoken := make(map[int64]struct{}, len(res.Outcome.Spoken))
	for _, s := range res.Outcome.Spoken {
		spoken[s.SpotID] = struct{}{}
	}
	speechErr := make(map[int64]string, len(res.Outcome.SpeechFailures))
	for _, f := range res.Outcome.SpeechFailures {
		speechErr[f.SpotID] = f.Err
	}

	seen := make([]SeenSpot, 0, len(res.NewSpots))
	for _, s := range res.NewSpots {
		_, ok := matched[s.SpotID]
		seen = append(seen, SeenSpot{
			SpotID:    s.SpotID,
			Activator: s.Activator,
			Spotter:   s.Spotter,
			Reference: s.Reference,
			Frequency: s.Frequency,
			Mode:      s.Mode,
			Comments:  s.Comments,
			Matched:   ok,
			SeenAt:    now,
		})
	}
	records := make([]DispatchRecord, 0, len(res.Matched))
	for _, s := range res.Matched {
		_, wasAlerted := alerted[s.SpotID]
		_, wasPopup := popup[s.SpotID]
		_, wasSpoken := spoken[s.SpotID]
		records = append(records, DispatchRecord{
			SpotID:       s.SpotID,
			Activator:    s.Activator,
			Reference:    s.Reference,
			Alerted:      wasAlerted,
			PopupShown:   wasPopup,
			Spoken:       wasSpoken,
			SpeechError:  speechErr[s.SpotID],
			DispatchedAt: now,
		})
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&seen).Error; err != nil {
			return err
		}
		if len(records) > 0 {
			if err := tx.Create(&records).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func isDeadlineExceeded(deadline time.Time) bool {
	return !deadline.IsZero() && time.Now().After(deadline)
}
