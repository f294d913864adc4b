package watcher

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

type mockFetcher struct {
	mu      sync.Mutex
	batches [][]Spot
	err     error
	calls   int
}

func (m *mockFetcher) FetchSpots() ([]Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.batches) == 0 {
		return nil, nil
	}
	b := m.batches[0]
	if len(m.batches) > 1 {
		m.batches = m.batches[1:]
	}
	return b, nil
}

func newTestRunner(t *testing.T, cfg RunnerConfig) (*Runner, *mockAlertSink, *mockPopupSink, *mockFetcher) {
	t.Helper()
	if cfg.FeedURL == "" {
		cfg.FeedURL = "http://127.0.0.1:1/spots"
	}
	runner, err := NewRunner(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = runner.Close() })

	fetcher := &mockFetcher{}
	alerts := &mockAlertSink{}
	popups := &mockPopupSink{}
	runner.fetcher = fetcher
	runner.dispatcher = NewDispatcher(alerts, popups, nil, nil)
	return runner, alerts, popups, fetcher
}

func TestRunner_RequiresFeedURL(t *testing.T) {
	if _, err := NewRunner(RunnerConfig{}); err == nil {
		t.Fatalf("expected error for missing feed URL")
	}
}

func TestRunner_RunOnce_DispatchesAndArchives(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "session.db")

	one := 1
	runner, alerts, popups, fetcher := newTestRunner(t, RunnerConfig{
		DBPath: dbPath,
		Filter: FilterConfig{
			Mode:                 FieldFilter{Conditions: []FilterCondition{{Value: "CW", MatchType: MatchExact, Exclude: true}}},
			MaxNotificationCount: &one,
		},
	})
	fetcher.batches = [][]Spot{{
		{SpotID: 1, Activator: "JK1AZT", Reference: "JA-0001", Mode: "FT8"},
		{SpotID: 2, Activator: "JA1XYZ", Reference: "JA-0002", Mode: "CW"},
		{SpotID: 3, Activator: "JR1ABC", Reference: "JA-0003", Mode: "SSB"},
	}}

	if err := runner.RunOnce(); err != nil {
		t.Fatal(err)
	}

	// Alert cap 1, popup cap unlimited; spot 2 filtered out.
	if len(alerts.spots) != 1 || alerts.spots[0].SpotID != 1 {
		t.Fatalf("expected 1 alert for spot 1, got %+v", alerts.spots)
	}
	if len(popups.spots) != 2 {
		t.Fatalf("expected 2 popups, got %d", len(popups.spots))
	}

	// Second cycle with the same batch: nothing new, nothing dispatched.
	fetcher.batches = [][]Spot{{
		{SpotID: 1, Activator: "JK1AZT", Reference: "JA-0001", Mode: "FT8"},
		{SpotID: 2, Activator: "JA1XYZ", Reference: "JA-0002", Mode: "CW"},
		{SpotID: 3, Activator: "JR1ABC", Reference: "JA-0003", Mode: "SSB"},
	}}
	if err := runner.RunOnce(); err != nil {
		t.Fatal(err)
	}
	if len(alerts.spots) != 1 || len(popups.spots) != 2 {
		t.Fatalf("re-submitted identities must not re-dispatch")
	}

	// Archive: 3 seen spots (2 matched), 2 dispatch records.
	db, err := OpenQueryDB(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}
	var seen []SeenSpot
	if err := db.Order("spot_id asc").Find(&seen).Error; err != nil {
		t.Fatal(err)
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 archived seen spots, got %d", len(seen))
	}
	if !seen[0].Matched || seen[1].Matched || !seen[2].Matched {
		t.Fatalf("unexpected matched flags: %+v", seen)
	}
	var records []DispatchRecord
	if err := db.Order("spot_id asc").Find(&records).Error; err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 dispatch records, got %d", len(records))
	}
	if !records[0].Alerted || records[1].Alerted {
		t.Fatalf("only the capped head should be alerted: %+v", records)
	}
	if !records[0].PopupShown || !records[1].PopupShown {
		t.Fatalf("both matched spots should have popups: %+v", records)
	}
}

func TestRunner_RunOnce_FetchErrorFailsCycle(t *testing.T) {
	runner, alerts, _, fetcher := newTestRunner(t, RunnerConfig{})
	fetcher.err = errors.New("feed down")
	if err := runner.RunOnce(); err == nil {
		t.Fatalf("expected fetch error to fail the cycle")
	}
	if len(alerts.spots) != 0 {
		t.Fatalf("no dispatch expected on fetch failure")
	}

	// Next cycle recovers.
	fetcher.err = nil
	fetcher.batches = [][]Spot{{{SpotID: 10, Mode: "FT8"}}}
	if err := runner.RunOnce(); err != nil {
		t.Fatal(err)
	}
	if len(alerts.spots) != 1 {
		t.Fatalf("expected dispatch after recovery, got %d", len(alerts.spots))
	}
}

func TestRunner_ArchiveOptional(t *testing.T) {
	runner, alerts, _, fetcher := newTestRunner(t, RunnerConfig{})
	fetcher.batches = [][]Spot{{{SpotID: 5, Mode: "FT8"}}}
	if err := runner.RunOnce(); err != nil {
		t.Fatal(err)
	}
	if len(alerts.spots) != 1 {
		t.Fatalf("pipeline must run without an archive DB")
	}
}

func TestRunner_SpeechErrorRecordedInArchive(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "session.db")
	runner, _, _, fetcher := newTestRunner(t, RunnerConfig{DBPath: dbPath})
	speaker := &mockSpeaker{t: t, failIdx: map[int]error{0: errors.New("timeout")}}
	runner.dispatcher = NewDispatcher(nil, nil, nil, speaker)
	runner.cfg.Speech.TextTemplate = "[activator]"

	fetcher.batches = [][]Spot{{
		{SpotID: 1, Activator: "JK1AZT"},
		{SpotID: 2, Activator: "JA1XYZ"},
	}}
	if err := runner.RunOnce(); err != nil {
		t.Fatal(err)
	}

	db, err := OpenQueryDB(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}
	var records []DispatchRecord
	if err := db.Order("spot_id asc").Find(&records).Error; err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Spoken || records[0].SpeechError == "" {
		t.Fatalf("first spot should carry the speech error: %+v", records[0])
	}
	if !records[1].Spoken || records[1].SpeechError != "" {
		t.Fatalf("second spot should have been spoken: %+v", records[1])
	}
}
