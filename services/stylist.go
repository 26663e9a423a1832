package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"syscall"
	"time"

	"wardrobeapi/models"

	"github.com/getsentry/sentry-go"
)

var (
	ErrClassificationFailed = errors.New("classification failed")
	ErrRecommendationFailed = errors.New("recommendation failed")
	ErrConversationFailed   = errors.New("conversation failed")
)

const FallbackReply = "Sorry, I'm having trouble connecting to the fashion server right now."

const DefaultLLMTimeout = 30 * time.Second

// Stylist wraps the LLM with timeouts, retries and validation of every
// response before it becomes a domain value.
type Stylist struct {
	llm     LLMProcessor
	timeout time.Duration
}

// NewStylist accepts a nil processor; every call then fails with ErrMissingAPIKey.
func NewStylist(llm LLMProcessor, timeout time.Duration) *Stylist {
	if timeout <= 0 {
		timeout = DefaultLLMTimeout
	}
	return &Stylist{llm: llm, timeout: timeout}
}

// Classify turns a clothing photo into a validated analysis. The timeout covers
// both attempts; only transport failures are retried, once.
func (s *Stylist) Classify(ctx context.Context, image []byte, mimeType string) (models.AnalysisResult, error) {
	if s.llm == nil {
		return models.AnalysisResult{}, fmt.Errorf("%w: %w", ErrClassificationFailed, ErrMissingAPIKey)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var resp *LLMResponse
	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		resp, err = withDeadline(ctx, func(ctx context.Context) (*LLMResponse, error) {
			return s.llm.AnalyzeClothing(ctx, image, mimeType)
		})
		if err == nil || ctx.Err() != nil || !isTransient(err) {
			break
		}
		log.Printf("[Stylist] Classification attempt %d failed, retrying: %v", attempt, err)
	}
	if err != nil {
		return models.AnalysisResult{}, s.fail(ErrClassificationFailed, err)
	}

	analysis, err := models.ParseAnalysisResult(resp.Response)
	if err != nil {
		return models.AnalysisResult{}, s.fail(ErrClassificationFailed, err)
	}
	return analysis, nil
}

// Recommend asks for an outfit built from the summarized wardrobe. Returned ids
// are not checked against the wardrobe.
func (s *Stylist) Recommend(ctx context.Context, items []models.ClothingItem, occasion string) (models.OutfitRecommendation, error) {
	if s.llm == nil {
		return models.OutfitRecommendation{}, fmt.Errorf("%w: %w", ErrRecommendationFailed, ErrMissingAPIKey)
	}
	summary, err := json.Marshal(models.SummarizeWardrobe(items))
	if err != nil {
		return models.OutfitRecommendation{}, s.fail(ErrRecommendationFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, err := withDeadline(ctx, func(ctx context.Context) (*LLMResponse, error) {
		return s.llm.RecommendOutfit(ctx, string(summary), occasion)
	})
	if err != nil {
		return models.OutfitRecommendation{}, s.fail(ErrRecommendationFailed, err)
	}

	rec, err := models.ParseOutfitRecommendation(resp.Response)
	if err != nil {
		return models.OutfitRecommendation{}, s.fail(ErrRecommendationFailed, err)
	}
	return rec, nil
}

// Converse always produces a reply; failures degrade to FallbackReply.
func (s *Stylist) Converse(ctx context.Context, history []models.ChatTurn, items []models.ClothingItem, message string) string {
	reply, err := s.converse(ctx, history, items, message)
	if err != nil {
		return FallbackReply
	}
	return reply
}

func (s *Stylist) converse(ctx context.Context, history []models.ChatTurn, items []models.ClothingItem, message string) (string, error) {
	if s.llm == nil {
		return "", s.fail(ErrConversationFailed, ErrMissingAPIKey)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := withDeadline(ctx, func(ctx context.Context) (*LLMResponse, error) {
		return s.llm.Chat(ctx, history, models.WardrobeContext(items), message)
	})
	if err != nil {
		return "", s.fail(ErrConversationFailed, err)
	}
	return resp.Response, nil
}

func (s *Stylist) fail(kind error, cause error) error {
	err := fmt.Errorf("%w: %w", kind, cause)
	log.Printf("[Stylist] %v", err)
	sentry.CaptureException(err)
	return err
}

// withDeadline stops waiting once ctx is done even if call ignores its context.
func withDeadline(ctx context.Context, call func(ctx context.Context) (*LLMResponse, error)) (*LLMResponse, error) {
	type result struct {
		resp *LLMResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := call(ctx)
		done <- result{resp, err}
	}()

	select {
	case r := <-done:
		if r.err == nil && r.resp == nil {
			return nil, errors.New("empty response")
		}
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
