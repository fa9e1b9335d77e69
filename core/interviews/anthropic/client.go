// Package anthropic drives interviews through the Anthropic Messages API.
// It keeps one conversation per (session, mode) pair, enforces the
// question/answer budget, and turns transcripts into structured
// evaluation reports.
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/oralprep/interview-core/core/interviews"
	"github.com/oralprep/interview-core/core/modes"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	defaultModel   = "claude-sonnet-4-5-20250929"

	// defaultMaxPairs is the number of question/answer pairs per session.
	defaultMaxPairs = 5

	chatMaxTokens       = 400
	evaluationMaxTokens = 2000
	keyProbeMaxTokens   = 10
)

// CredentialSource supplies a fallback API key for requests that do not
// carry their own.
type CredentialSource interface {
	APIKey() string
}

// ModePersister remembers the last used evaluation mode across sessions.
type ModePersister interface {
	SaveLastMode(mode string) error
}

type ClientOptions struct {
	BaseURL     string
	Model       string
	MaxPairs    int
	HTTPClient  *http.Client
	Credentials CredentialSource
	Persister   ModePersister
}

type ClientOption func(*ClientOptions)

func WithBaseURL(baseURL string) ClientOption {
	return func(o *ClientOptions) {
		o.BaseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithModel(model string) ClientOption {
	return func(o *ClientOptions) {
		o.Model = model
	}
}

// WithMaxPairs overrides the per-session question/answer budget.
func WithMaxPairs(maxPairs int) ClientOption {
	return func(o *ClientOptions) {
		if maxPairs > 0 {
			o.MaxPairs = maxPairs
		}
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(o *ClientOptions) {
		o.HTTPClient = client
	}
}

// WithCredentialSource sets the fallback key used when a request carries
// none of its own.
func WithCredentialSource(source CredentialSource) ClientOption {
	return func(o *ClientOptions) {
		o.Credentials = source
	}
}

// WithModePersister makes successful evaluations remember their mode.
func WithModePersister(persister ModePersister) ClientOption {
	return func(o *ClientOptions) {
		o.Persister = persister
	}
}

type Client struct {
	catalog *modes.Catalog

	baseURL     string
	model       string
	maxPairs    int
	httpClient  *http.Client
	credentials CredentialSource
	persister   ModePersister

	conversations *conversationStore
}

func NewClient(catalog *modes.Catalog, opts ...ClientOption) (*Client, error) {
	if catalog == nil {
		return nil, fmt.Errorf("mode catalog is required")
	}

	options := ClientOptions{
		BaseURL:  defaultBaseURL,
		Model:    defaultModel,
		MaxPairs: defaultMaxPairs,
	}
	for _, opt := range opts {
		opt(&options)
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	return &Client{
		catalog:       catalog,
		baseURL:       options.BaseURL,
		model:         options.Model,
		maxPairs:      options.MaxPairs,
		httpClient:    httpClient,
		credentials:   options.Credentials,
		persister:     options.Persister,
		conversations: newConversationStore(),
	}, nil
}

// OpeningQuestion resets the conversation for the session and draws an
// opening prompt from the mode's question bank. The prompt stays pending
// until the first answer arrives so the model sees the full exchange.
func (c *Client) OpeningQuestion(ctx context.Context, req interviews.OpeningQuestionRequest) (*interviews.OpeningQuestion, error) {
	_, span := tracer.Start(ctx, "draw opening question")
	defer span.End()
	span.SetAttributes(attribute.String("interview.mode", req.Mode))

	if strings.TrimSpace(req.SessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	config, err := c.catalog.Get(req.Mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	question, err := c.catalog.RandomQuestion(config.Mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	c.conversations.reset(req.SessionID, config.Mode, config.SystemPrompt, question.Prompt)

	return &interviews.OpeningQuestion{
		Prompt:         question.Prompt,
		Part:           question.Part,
		RemainingTurns: c.maxPairs,
	}, nil
}

// ChatTurn submits one candidate answer and returns the next interviewer
// prompt together with the remaining turn budget.
func (c *Client) ChatTurn(ctx context.Context, req interviews.ChatTurnRequest) (*interviews.ChatTurnReply, error) {
	ctx, span := tracer.Start(ctx, "interview chat turn")
	defer span.End()
	span.SetAttributes(attribute.String("interview.mode", req.Mode))

	if strings.TrimSpace(req.SessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("message is empty")
	}
	config, err := c.catalog.Get(req.Mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	apiKey, err := c.resolveKey(req.APIKey)
	if err != nil {
		return nil, err
	}

	conversation := c.conversations.get(req.SessionID, config.Mode, config.SystemPrompt)

	if conversation.answeredPairs() >= c.maxPairs {
		span.SetAttributes(attribute.Bool("interview.limit_reached", true))
		return &interviews.ChatTurnReply{RemainingTurns: 0, LimitReached: true}, nil
	}

	userContent := text
	pending := conversation.takePendingQuestion()
	if pending != "" {
		userContent = fmt.Sprintf("Interviewer question: %s\nCandidate answer: %s", pending, text)
	}
	conversation.append(message{Role: messageRoleUser, Content: userContent})

	reply, err := c.sendMessages(ctx, apiKey, messagesRequest{
		Model:     c.model,
		MaxTokens: chatMaxTokens,
		System:    conversation.systemPrompt,
		Messages:  conversation.messages(),
	})
	if err != nil {
		// The answer stays out of the history and the opening question goes
		// back to pending, so a retry is a clean first turn.
		conversation.dropLast()
		conversation.restorePending(pending)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if reply != "" {
		conversation.append(message{Role: messageRoleAssistant, Content: reply})
	}

	remaining := c.maxPairs - conversation.answeredPairs()
	if remaining < 0 {
		remaining = 0
	}
	span.SetAttributes(attribute.Int("interview.remaining_pairs", remaining))

	return &interviews.ChatTurnReply{
		Reply:          reply,
		RemainingTurns: remaining,
		LimitReached:   remaining == 0,
	}, nil
}

// ValidateKey makes a minimal Messages API request to check the key is
// usable. Returns [ErrInvalidAPIKey] when the API rejects it.
func (c *Client) ValidateKey(ctx context.Context, apiKey string) error {
	ctx, span := tracer.Start(ctx, "validate api key")
	defer span.End()

	if strings.TrimSpace(apiKey) == "" {
		return fmt.Errorf("api key is empty")
	}

	_, err := c.sendMessages(ctx, apiKey, messagesRequest{
		Model:     c.model,
		MaxTokens: keyProbeMaxTokens,
		Messages:  []message{{Role: messageRoleUser, Content: "Hi"}},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) resolveKey(requestKey string) (string, error) {
	if requestKey != "" {
		return requestKey, nil
	}
	if c.credentials != nil {
		if key := c.credentials.APIKey(); key != "" {
			return key, nil
		}
	}
	return "", fmt.Errorf("no api key available")
}
