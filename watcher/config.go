package watcher

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	MatchContains = "contains"
	MatchExact    = "exact"

	OperatorAnd = "and"
	OperatorOr  = "or"
)

// FilterCondition is one include/exclude rule on one record field.
// Enabled is a pointer so that an absent key means enabled.
type FilterCondition struct {
	Value     string `yaml:"value"`
	MatchType string `yaml:"match_type"`
	Exclude   bool   `yaml:"exclude"`
	Enabled   *bool  `yaml:"enabled"`
}

func (c FilterCondition) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// FieldFilter is the rule set for exactly one record field.
type FieldFilter struct {
	Conditions []FilterCondition `yaml:"conditions"`
	Operator   string            `yaml:"operator"`
}

// FilterConfig mirrors the persisted filter document. Absent keys take the
// documented defaults (open filters, unlimited caps, no sound).
type FilterConfig struct {
	Reference FieldFilter `yaml:"reference"`
	Comments  FieldFilter `yaml:"comments"`
	Mode      FieldFilter `yaml:"mode"`
	Frequency FieldFilter `yaml:"frequency"`

	IgnoreOtherReporters bool `yaml:"ignore_other_reporters"`

	NotificationSoundPath string `yaml:"notification_sound_path"`
	// 0 means unlimited.
	MaxNotificationCount *int `yaml:"max_notification_count"`
	MaxPopupCount        *int `yaml:"max_popup_count"`
}

func (f FilterConfig) AlertCap() int {
	if f.MaxNotificationCount == nil {
		return 0
	}
	return *f.MaxNotificationCount
}

func (f FilterConfig) PopupCap() int {
	if f.MaxPopupCount == nil {
		return 0
	}
	return *f.MaxPopupCount
}

// SpeechConfig mirrors the persisted speech document (synthesis engine
// address, voice parameters, and text generation options).
type SpeechConfig struct {
	Enabled   *bool  `yaml:"enabled"`
	Hostname  string `yaml:"hostname"`
	Port      int    `yaml:"port"`
	SpeakerID *int   `yaml:"speaker_id"`

	MHzEnabled           bool `yaml:"mhz_enabled"`
	PortableEnabled      bool `yaml:"portable_enabled"`
	NumberEnglishEnabled bool `yaml:"number_english_enabled"`

	TextTemplate string `yaml:"text_template"`

	Volume     *float64 `yaml:"volume"`
	Speed      *float64 `yaml:"speed"`
	Pitch      *float64 `yaml:"pitch"`
	Intonation *float64 `yaml:"intonation"`
	Breathing  *float64 `yaml:"breathing"`

	// 0 means read every filtered spot.
	MaxSpotsPerRead *int `yaml:"max_spots_per_read"`
}

func (s SpeechConfig) IsEnabled() bool {
	return s.Enabled != nil && *s.Enabled
}

func (s SpeechConfig) SpeechCap() int {
	if s.MaxSpotsPerRead == nil {
		return 0
	}
	return *s.MaxSpotsPerRead
}

func (s SpeechConfig) Params() SynthesisParams {
	p := SynthesisParams{Volume: 1.0, Speed: 1.0, Pitch: 0.0, Intonation: 1.0, Breathing: 1.0}
	if s.Volume != nil {
		p.Volume = *s.Volume
	}
	if s.Speed != nil {
		p.Speed = *s.Speed
	}
	if s.Pitch != nil {
		p.Pitch = *s.Pitch
	}
	if s.Intonation != nil {
		p.Intonation = *s.Intonation
	}
	if s.Breathing != nil {
		p.Breathing = *s.Breathing
	}
	return p
}

func (s SpeechConfig) TextOptions() SpeechTextOptions {
	return SpeechTextOptions{
		MHzEnabled:           s.MHzEnabled,
		PortableEnabled:      s.PortableEnabled,
		NumberEnglishEnabled: s.NumberEnglishEnabled,
	}
}

// FileConfig is the on-disk document combining both configuration sections
// plus the watcher's own settings.
type FileConfig struct {
	FeedURL string `yaml:"feed_url"`
	DB      string `yaml:"db"`
	Debug   bool   `yaml:"debug"`

	Filter FilterConfig `yaml:"filter"`
	Speech SpeechConfig `yaml:"speech"`
}

const (
	DefaultFeedURL      = "https://api.pota.app/spot/activator"
	DefaultSpeechHost   = "127.0.0.1"
	DefaultSpeechPort   = 50021
	DefaultTextTemplate = "[activator] [reference] [frequency] [mode]"
)

// ApplyDefaults fills absent keys in place. Documents written by older
// versions stay loadable; new keys are always optional.
func (c *FileConfig) ApplyDefaults() {
	if strings.TrimSpace(c.FeedURL) == "" {
		c.FeedURL = DefaultFeedURL
	}
	if strings.TrimSpace(c.Speech.Hostname) == "" {
		c.Speech.Hostname = DefaultSpeechHost
	}
	if c.Speech.Port == 0 {
		c.Speech.Port = DefaultSpeechPort
	}
	if strings.TrimSpace(c.Speech.TextTemplate) == "" {
		c.Speech.TextTemplate = DefaultTextTemplate
	}
}

// LoadConfig reads the YAML document at path. A missing file is not an
// error: the defaults document is returned instead.
func LoadConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := &FileConfig{}
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

func SaveConfig(path string, cfg *FileConfig) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
