package watcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// SynthesisParams are the voice scales applied to every utterance.
type SynthesisParams struct {
	Volume     float64
	Speed      float64
	Pitch      float64
	Intonation float64
	Breathing  float64
}

// AudioPlayer plays raw WAV bytes and blocks until playback completes.
type AudioPlayer interface {
	PlayWAV(data []byte) error
}

// VoicevoxClient drives a VOICEVOX-compatible synthesis engine: one
// audio_query request to build the utterance query, one synthesis request
// for the WAV, then playback through the configured player. Each HTTP
// call carries the client timeout; a timed-out call is an ordinary
// per-utterance error.
type VoicevoxClient struct {
	baseURL   string
	speakerID int
	params    SynthesisParams
	client    *http.Client
	player    AudioPlayer
}

func NewVoicevoxClient(hostname string, port int, speakerID int, params SynthesisParams, player AudioPlayer, timeout time.Duration) *VoicevoxClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &VoicevoxClient{
		baseURL:   fmt.Sprintf("http://%s:%d", hostname, port),
		speakerID: speakerID,
		params:    params,
		client:    &http.Client{Timeout: timeout},
		player:    player,
	}
}

// SynthesizeAndPlay performs the full query/synthesize/play sequence for
// one utterance and returns only after playback has finished.
func (c *VoicevoxClient) SynthesizeAndPlay(text string) error {
	query, err := c.audioQuery(text)
	if err != nil {
		return fmt.Errorf("audio query: %w", err)
	}
	wav, err := c.synthesis(query)
	if err != nil {
		return fmt.Errorf("synthesis: %w", err)
	}
	if c.player == nil {
		return fmt.Errorf("no audio player configured")
	}
	if err := c.player.PlayWAV(wav); err != nil {
		return fmt.Errorf("playback: %w", err)
	}
	return nil
}

func (c *VoicevoxClient) audioQuery(text string) (map[string]any, error) {
	u := fmt.Sprintf("%s/audio_query?speaker=%d&text=%s", c.baseURL, c.speakerID, url.QueryEscape(text))
	resp, err := c.client.Post(u, "application/json", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var query map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&query); err != nil {
		return nil, err
	}
	query["volumeScale"] = c.params.Volume
	query["speedScale"] = c.params.Speed
	query["pitchScale"] = c.params.Pitch
	query["intonationScale"] = c.params.Intonation
	query["pauseLengthScale"] = c.params.Breathing
	return query, nil
}

func (c *VoicevoxClient) synthesis(query map[string]any) ([]byte, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/synthesis?speaker=%d", c.baseURL, c.speakerID)
	resp, err := c.client.Post(u, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
