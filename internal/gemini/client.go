// Package gemini implements assistant.ContentProvider on top of the Google
// Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/generative-ai-go/genai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/xenking/foodhub/internal/domain/assistant"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.5-flash"

const (
	chatInstruction = "You are Foodie, a friendly and helpful chatbot for the FoodHub website. " +
		"You can answer questions about food, recipes, and help users navigate the site. " +
		"Keep your answers concise and cheerful."

	identifyPrompt = "Identify the food item in this image. Provide a creative, appealing name and " +
		"a short, enticing description suitable for a marketplace listing. Format the output as JSON."

	recommendPrompt = "Based on the item %q with description %q, suggest %d similar food items. " +
		"For each item, provide a name, a short description, a plausible price (as a number), " +
		"and a seed word for a placeholder image URL. Format the output as a JSON array."

	suggestionCount = 3
)

// Config configures the client.
type Config struct {
	APIKey string
	Model  string
	// Concurrency caps in-flight requests.
	Concurrency int
	// MinInterval is the minimum delay between two request starts.
	MinInterval time.Duration
	// Timeout bounds a single request. Zero means no extra timeout.
	Timeout time.Duration
	// MaxConversations bounds the number of remembered chat histories.
	MaxConversations int
}

func (c *Config) setDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.MaxConversations <= 0 {
		c.MaxConversations = 1000
	}
}

// generator is satisfied by *genai.GenerativeModel.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// chatSession is satisfied by *genai.ChatSession.
type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Option configures optional client dependencies.
type Option func(*Client)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(lg *zap.Logger) Option {
	return func(c *Client) { c.lg = lg }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer("github.com/xenking/foodhub/internal/gemini") }
}

// WithMeterProvider sets the meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Client) { c.meter = mp.Meter("github.com/xenking/foodhub/internal/gemini") }
}

// Client is a Gemini backed assistant.ContentProvider.
type Client struct {
	closer    func() error
	identify  generator
	recommend generator
	newChat   func() chatSession

	cfg   Config
	convs *conversations

	sem   chan struct{}
	mu    sync.Mutex
	last  time.Time
	delay time.Duration

	lg       *zap.Logger
	tracer   trace.Tracer
	meter    metric.Meter
	requests metric.Int64Counter
	failures metric.Int64Counter
}

var _ assistant.ContentProvider = (*Client)(nil)

// New connects to Gemini and prepares one model per operation.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key required")
	}
	cfg.setDefaults()

	gc, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}

	chatModel := gc.GenerativeModel(cfg.Model)
	chatModel.SetTemperature(0.7)
	chatModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(chatInstruction)},
	}

	identifyModel := gc.GenerativeModel(cfg.Model)
	identifyModel.ResponseMIMEType = "application/json"
	identifyModel.ResponseSchema = listingSchema

	recommendModel := gc.GenerativeModel(cfg.Model)
	recommendModel.ResponseMIMEType = "application/json"
	recommendModel.ResponseSchema = suggestionsSchema

	c, err := newClient(cfg, func() chatSession { return chatModel.StartChat() }, identifyModel, recommendModel, opts...)
	if err != nil {
		_ = gc.Close()
		return nil, err
	}
	c.closer = gc.Close
	return c, nil
}

func newClient(cfg Config, newChat func() chatSession, identify, recommend generator, opts ...Option) (*Client, error) {
	cfg.setDefaults()
	c := &Client{
		identify:  identify,
		recommend: recommend,
		newChat:   newChat,
		cfg:       cfg,
		convs:     newConversations(cfg.MaxConversations),
		sem:       make(chan struct{}, cfg.Concurrency),
		delay:     cfg.MinInterval,
		lg:        zap.NewNop(),
	}
	WithTracerProvider(otel.GetTracerProvider())(c)
	WithMeterProvider(otel.GetMeterProvider())(c)
	for _, o := range opts {
		o(c)
	}

	var err error
	if c.requests, err = c.meter.Int64Counter("foodhub.assistant.requests",
		metric.WithDescription("Generative content requests by operation"),
	); err != nil {
		return nil, errors.Wrap(err, "requests counter")
	}
	if c.failures, err = c.meter.Int64Counter("foodhub.assistant.failures",
		metric.WithDescription("Failed generative content requests by operation"),
	); err != nil {
		return nil, errors.Wrap(err, "failures counter")
	}
	return c, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// Chat sends message within the conversation. An empty conversationID starts
// a throwaway conversation that is not remembered.
func (c *Client) Chat(ctx context.Context, conversationID, message string) (_ string, rerr error) {
	ctx, done := c.start(ctx, "Chat", attribute.String("conversation.id", conversationID))
	defer done(&rerr)

	conv := c.convs.get(conversationID, c.newChat)
	conv.mu.Lock()
	defer conv.mu.Unlock()

	release, err := c.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	resp, err := conv.session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", errors.Wrap(err, "send message")
	}
	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return "", errors.New("empty reply")
	}
	return text, nil
}

// IdentifyFood asks the model to name and describe the pictured food.
func (c *Client) IdentifyFood(ctx context.Context, img assistant.Image) (_ assistant.Listing, rerr error) {
	if err := img.Validate(); err != nil {
		return assistant.Listing{}, err
	}
	ctx, done := c.start(ctx, "IdentifyFood", attribute.Int("image.size", len(img.Data)))
	defer done(&rerr)

	release, err := c.acquire(ctx)
	if err != nil {
		return assistant.Listing{}, err
	}
	defer release()

	resp, err := c.identify.GenerateContent(ctx,
		genai.Blob{MIMEType: img.MIMEType, Data: img.Data},
		genai.Text(identifyPrompt),
	)
	if err != nil {
		return assistant.Listing{}, errors.Wrap(err, "generate")
	}
	return decodeListing([]byte(extractText(resp)))
}

// Recommend asks the model for items similar to the given product.
func (c *Client) Recommend(ctx context.Context, name, description string) (_ []assistant.Suggestion, rerr error) {
	ctx, done := c.start(ctx, "Recommend", attribute.String("product.name", name))
	defer done(&rerr)

	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	resp, err := c.recommend.GenerateContent(ctx,
		genai.Text(fmt.Sprintf(recommendPrompt, name, description, suggestionCount)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "generate")
	}
	return decodeSuggestions([]byte(extractText(resp)))
}

// start opens a span, counts the request and applies the request timeout.
// The returned func must be called with the operation's final error; it marks
// non-nil errors as assistant.ErrUnavailable.
func (c *Client) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	opAttr := metric.WithAttributes(attribute.String("op", op))
	c.requests.Add(ctx, 1, opAttr)

	ctx, span := c.tracer.Start(ctx, "gemini."+op, trace.WithAttributes(attrs...))
	cancel := context.CancelFunc(func() {})
	if c.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
	}
	started := time.Now()

	return ctx, func(errp *error) {
		defer span.End()
		defer cancel()
		if *errp == nil {
			return
		}
		c.failures.Add(ctx, 1, opAttr)
		span.RecordError(*errp)
		span.SetStatus(codes.Error, (*errp).Error())
		c.lg.Warn("Assistant request failed",
			zap.String("op", op),
			zap.Duration("took", time.Since(started)),
			zap.Error(*errp),
		)
		*errp = fmt.Errorf("gemini %s: %w: %w", op, assistant.ErrUnavailable, *errp)
	}
}

// acquire waits for a free slot and enforces the minimum interval between
// request starts. The returned func releases the slot.
func (c *Client) acquire(ctx context.Context) (func(), error) {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	release := func() { <-c.sem }

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if !c.last.IsZero() {
		if wait := c.delay - now.Sub(c.last); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				release()
				return nil, ctx.Err()
			}
			now = time.Now()
		}
	}
	c.last = now
	return release, nil
}

// extractText concatenates the text parts of every candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}
