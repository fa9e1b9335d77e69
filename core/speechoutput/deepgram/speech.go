// Package deepgram synthesizes interviewer prompts through the Deepgram
// speak websocket and plays them on a local audio sink.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/oralprep/interview-core/core/audio"
	"github.com/oralprep/interview-core/core/speechoutput"
)

// AudioSink is the local playback device the synthesized audio goes to.
type AudioSink interface {
	StartPlayback(ctx context.Context) error
	StopPlayback() error
	SendAudio(audio []byte) error
	ClearBuffer()
	AwaitMark() error
	EncodingInfo() audio.EncodingInfo
}

type SpeechClientOptions struct {
	APIKey string
	Voice  Voice
}

type SpeechClientOption func(*SpeechClientOptions)

func WithAPIKey(apiKey string) SpeechClientOption {
	return func(o *SpeechClientOptions) {
		o.APIKey = apiKey
	}
}

func WithVoice(voice Voice) SpeechClientOption {
	return func(o *SpeechClientOptions) {
		o.Voice = voice
	}
}

type SpeechClient struct {
	sink   AudioSink
	apiKey string
	voice  Voice

	mu      sync.Mutex
	request *speakRequest
}

func NewSpeechClient(sink AudioSink, opts ...SpeechClientOption) (*SpeechClient, error) {
	options := SpeechClientOptions{Voice: defaultVoice}
	for _, opt := range opts {
		opt(&options)
	}
	if options.APIKey == "" {
		apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
		if !ok {
			return nil, fmt.Errorf("deepgram api key not found")
		}
		options.APIKey = apiKey
	}
	if sink == nil {
		return nil, fmt.Errorf("audio sink is required")
	}
	if !slices.Contains(AvailableVoices(), options.Voice) {
		return nil, fmt.Errorf("invalid voice")
	}

	return &SpeechClient{sink: sink, apiKey: options.APIKey, voice: options.Voice}, nil
}

func (c *SpeechClient) SetVoice(voice Voice) error {
	if !slices.Contains(AvailableVoices(), voice) {
		return fmt.Errorf("invalid voice")
	}
	c.voice = voice
	return nil
}

// Speak synthesizes one utterance. It returns once synthesis has started;
// the registered callbacks report how the utterance ended.
func (c *SpeechClient) Speak(ctx context.Context, text string, opts ...speechoutput.SpeakOption) error {
	options := speechoutput.SpeakOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	conn, err := c.connectWebsocket()
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	request := &speakRequest{conn: conn, sink: c.sink, options: options}

	c.mu.Lock()
	if c.request != nil {
		c.request.cancel()
	}
	c.request = request
	c.mu.Unlock()

	if err := c.sink.StartPlayback(ctx); err != nil {
		request.cancel()
		return fmt.Errorf("failed to start playback: %w", err)
	}

	if err := request.send(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: "Speak", Text: text}); err != nil {
		request.cancel()
		return fmt.Errorf("failed to send text to deepgram: %w", err)
	}
	if err := request.send(websocketMessage{Type: "Flush"}); err != nil {
		request.cancel()
		return fmt.Errorf("failed to flush deepgram buffer: %w", err)
	}

	go request.readAndProcessMessages()

	return nil
}

// Cancel drops the in-flight utterance, both the synthesis stream and any
// audio already queued on the sink.
func (c *SpeechClient) Cancel() error {
	c.mu.Lock()
	request := c.request
	c.request = nil
	c.mu.Unlock()

	if request != nil {
		request.cancel()
	}
	c.sink.ClearBuffer()
	return nil
}

func (c *SpeechClient) Close(context.Context) error {
	return c.Cancel()
}

func (c *SpeechClient) connectWebsocket() (*websocket.Conn, error) {
	encoding := c.sink.EncodingInfo()
	if encoding.IsZero() {
		encoding = audio.GetDefaultEncodingInfo()
	}

	urlValues := url.Values{}
	urlValues.Set("encoding", encoding.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	urlValues.Set("model", string(c.voice))
	urlValues.Set("container", "none")

	conn, _, err := websocket.DefaultDialer.Dial(
		(&url.URL{
			Scheme: "wss",
			Host:   "api.deepgram.com", Path: "/v1/speak",
			RawQuery: urlValues.Encode(),
		}).String(),
		http.Header{"Authorization": {"token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

type speakRequest struct {
	conn    *websocket.Conn
	sink    AudioSink
	options speechoutput.SpeakOptions

	mu        sync.Mutex
	cancelled bool
	closed    bool

	// settled guards the single outcome callback of the request.
	settled sync.Once
}

func (r *speakRequest) readAndProcessMessages() {
	for {
		msgType, msg, err := r.conn.ReadMessage()
		if err != nil {
			if err.Error() != "websocket: close 1000 (normal)" {
				logger.Warn("failed to read deepgram websocket message", "error", err)
			}
			r.close()
			r.settle(func() {
				if r.options.ErrorCallback != nil {
					r.options.ErrorCallback(fmt.Errorf("speech stream ended unexpectedly: %w", err))
				}
			})
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if r.isCancelled() || len(msg) == 0 {
				continue
			}
			if err := r.sink.SendAudio(msg); err != nil {
				logger.Warn("failed to queue synthesized audio", "error", err)
			}
		case websocket.TextMessage:
			var parsedMsg struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Warn("failed to unmarshal deepgram message", "error", err)
				continue
			}

			if parsedMsg.Type == "Flushed" {
				// All audio for the utterance has arrived. Wait for the sink
				// to drain before reporting completion.
				r.close()
				r.settle(func() {
					if err := r.sink.AwaitMark(); err != nil {
						if r.options.ErrorCallback != nil {
							r.options.ErrorCallback(fmt.Errorf("failed to await playback: %w", err))
						}
						return
					}
					if r.options.CompletionCallback != nil {
						r.options.CompletionCallback()
					}
				})
				return
			}
		}
	}
}

func (r *speakRequest) cancel() {
	r.mu.Lock()
	r.cancelled = true
	r.mu.Unlock()

	if err := r.send(websocketMessage{Type: "Clear"}); err != nil {
		logger.Warn("failed to clear deepgram buffer", "error", err)
	}
	r.close()
	// Make sure neither callback fires after a cancel.
	r.settle(func() {})
}

func (r *speakRequest) close() {
	if err := r.send(websocketMessage{Type: "Close"}); err != nil && r.conn != nil {
		_ = r.conn.Close()
	}
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *speakRequest) settle(deliver func()) {
	r.settled.Do(func() {
		if !r.isCancelled() {
			deliver()
		}
	})
}

func (r *speakRequest) isCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

type websocketMessage struct {
	Type string `json:"type"`
}

func (r *speakRequest) send(msg any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.conn == nil {
		return fmt.Errorf("websocket connection closed")
	}

	if err := r.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}
