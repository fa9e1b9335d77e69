// Package deepgram captures one spoken answer at a time through the
// Deepgram live transcription websocket, fed from a local audio source.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"

	"github.com/oralprep/interview-core/core/audio"
	"github.com/oralprep/interview-core/core/speechcapture"
)

// AudioSource is the local microphone the captured audio comes from.
type AudioSource interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	EncodingInfo() audio.EncodingInfo
}

type CaptureClientOptions struct {
	APIKey string
}

type CaptureClientOption func(*CaptureClientOptions)

func WithAPIKey(apiKey string) CaptureClientOption {
	return func(o *CaptureClientOptions) {
		o.APIKey = apiKey
	}
}

type CaptureClient struct {
	source AudioSource
	apiKey string

	mu      sync.Mutex
	session *captureSession
}

func NewCaptureClient(source AudioSource, opts ...CaptureClientOption) (*CaptureClient, error) {
	options := CaptureClientOptions{}
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
	if source == nil {
		return nil, fmt.Errorf("audio source is required")
	}

	return &CaptureClient{source: source, apiKey: options.APIKey}, nil
}

// Listen opens one capture session: microphone audio streams to Deepgram
// until the speaker finishes, then exactly one of the registered
// callbacks reports the outcome.
func (c *CaptureClient) Listen(ctx context.Context, opts ...speechcapture.CaptureOption) error {
	options := speechcapture.CaptureOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	conn, err := c.connectWebsocket()
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	session := &captureSession{conn: conn, options: options}

	c.mu.Lock()
	if c.session != nil {
		c.session.abandon()
	}
	c.session = session
	c.mu.Unlock()

	if err := c.source.StartCapture(ctx, session.sendAudio); err != nil {
		session.abandon()
		_ = conn.Close()
		if isPermissionError(err) {
			if options.ErrorCallback != nil {
				options.ErrorCallback(speechcapture.ErrorKindPermissionDenied, err)
			}
			return fmt.Errorf("microphone access denied: %w", err)
		}
		return fmt.Errorf("failed to start audio capture: %w", err)
	}

	go session.readAndProcessMessages(c.source)
	go session.keepAlive(ctx)

	return nil
}

// Stop abandons the current session without reporting a result.
func (c *CaptureClient) Stop() error {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()

	if session != nil {
		session.abandon()
		_ = session.closeStream()
	}
	return c.source.StopCapture()
}

func (c *CaptureClient) Close(context.Context) error {
	return c.Stop()
}

func (c *CaptureClient) connectWebsocket() (*websocket.Conn, error) {
	encoding := c.source.EncodingInfo()
	if encoding.IsZero() {
		encoding = audio.GetDefaultEncodingInfo()
	}

	listenURL, _ := url.Parse("wss://api.deepgram.com/v1/listen")
	queryParams := listenURL.Query()
	queryParams.Set("encoding", encoding.Format.Name())
	queryParams.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", "nova-3")
	queryParams.Set("language", "en-US")
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("utterance_end_ms", "1000")
	queryParams.Set("endpointing", "300")
	queryParams.Set("vad_events", "true")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(listenURL.String(),
		http.Header{"Authorization": {"Token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

func isPermissionError(err error) bool {
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "permission") || strings.Contains(message, "access denied")
}

type captureSession struct {
	conn    *websocket.Conn
	options speechcapture.CaptureOptions

	connMu sync.Mutex

	accumulated    string
	unendedSegment bool

	// settled guards the single outcome callback of the session.
	settled   sync.Once
	abandoned bool
}

func (s *captureSession) sendAudio(audio []byte) {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.abandoned || s.conn == nil {
		return
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		logger.Warn("failed to send audio to deepgram", "error", err)
	}
}

func (s *captureSession) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.abandoned || s.conn == nil {
				s.connMu.Unlock()
				return
			}
			if err := s.conn.WriteJSON(struct {
				Type string `json:"type"`
			}{Type: "KeepAlive"}); err != nil {
				logger.Warn("failed to send keepalive to deepgram", "error", err)
			}
			s.connMu.Unlock()
		}
	}
}

func (s *captureSession) readAndProcessMessages(source AudioSource) {
	conn := s.conn
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if err.Error() != "websocket: close 1000 (normal)" {
				logger.Warn("failed to read deepgram websocket message", "error", err)
			}
			_ = conn.Close()
			// A connection lost mid-utterance still ends the session.
			s.settle(source, func() {
				if s.options.EndedCallback != nil {
					s.options.EndedCallback()
				}
			})
			return
		}
		if msgType == websocket.BinaryMessage {
			continue
		}
		s.processMessage(source, msg)
	}
}

func (s *captureSession) processMessage(source AudioSource, msg []byte) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal deepgram message", "error", err)
			return
		}
		if msgResp.IsFinal && len(msgResp.Channel.Alternatives) > 0 {
			transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
			if transcript != "" {
				s.accumulated += " " + transcript
			}
		}
		if msgResp.IsFinal && msgResp.SpeechFinal {
			s.onSpeechEnded(source)
		}

	case api.TypeUtteranceEndResponse:
		if s.unendedSegment {
			s.onSpeechEnded(source)
		}

	case api.TypeSpeechStartedResponse:
		s.unendedSegment = true
	}
}

func (s *captureSession) onSpeechEnded(source AudioSource) {
	s.unendedSegment = false
	transcript := strings.TrimSpace(s.accumulated)
	s.accumulated = ""

	s.settle(source, func() {
		if transcript == "" {
			if s.options.ErrorCallback != nil {
				s.options.ErrorCallback(speechcapture.ErrorKindNoInput, nil)
			}
			return
		}
		if s.options.TranscriptCallback != nil {
			s.options.TranscriptCallback(transcript)
		}
	})
}

// settle delivers the session outcome at most once and tears the session
// down.
func (s *captureSession) settle(source AudioSource, deliver func()) {
	s.settled.Do(func() {
		_ = source.StopCapture()
		_ = s.closeStream()
		s.connMu.Lock()
		abandoned := s.abandoned
		s.connMu.Unlock()
		if !abandoned {
			deliver()
		}
	})
}

// abandon silences all callbacks; the session may keep draining until the
// server closes the stream.
func (s *captureSession) abandon() {
	s.connMu.Lock()
	s.abandoned = true
	s.connMu.Unlock()
}

func (s *captureSession) closeStream() error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return nil
	}
	if err := s.conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to close deepgram stream: %w", err)
	}
	return nil
}
