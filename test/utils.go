package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/disintegration/imaging"
	"github.com/golang-jwt/jwt/v4"
)

func JsonString(model interface{}) string {
	bytes, _ := json.Marshal(model)
	return string(bytes)
}

func NewJSONRequest(method string, target string, param interface{}) *http.Request {

	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req
}

func GenerateUserToken(subject string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	t, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		log.Fatalf("Error when signing token for %s. Error %s ", subject, err)
	}
	return t
}

func NewJSONAuthRequest(method string, target string, subject string, param interface{}) *http.Request {
	req := NewJSONRequest(method, target, param)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", GenerateUserToken(subject)))
	return req
}

// JPEGImage encodes a solid image of the given size.
func JPEGImage(width, height int) []byte {
	img := imaging.New(width, height, color.NRGBA{R: 20, G: 20, B: 20, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		log.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

const AnalysisJSON = `{"type":"Hoodie","category":"Top","color":"Black","seasons":["Winter","Fall"],"tags":["Casual"],"description":"Cozy hoodie"}`

// LLMProcessorMock answers every call with the configured text, or runs the
// matching func when one is set.
type LLMProcessorMock struct {
	AnalysisResponse       string
	RecommendationResponse string
	ChatResponse           string

	AnalyzeFunc   func(ctx context.Context, image []byte, mimeType string) (*services.LLMResponse, error)
	RecommendFunc func(ctx context.Context, wardrobeJSON string, occasion string) (*services.LLMResponse, error)
	ChatFunc      func(ctx context.Context, history []models.ChatTurn, wardrobeContext string, message string) (*services.LLMResponse, error)

	AnalyzeCalls   atomic.Int32
	RecommendCalls atomic.Int32
	ChatCalls      atomic.Int32
}

func (m *LLMProcessorMock) AnalyzeClothing(ctx context.Context, image []byte, mimeType string) (*services.LLMResponse, error) {
	m.AnalyzeCalls.Add(1)
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, image, mimeType)
	}
	response := m.AnalysisResponse
	if response == "" {
		response = AnalysisJSON
	}
	return &services.LLMResponse{Response: response, IsTest: true}, nil
}

func (m *LLMProcessorMock) RecommendOutfit(ctx context.Context, wardrobeJSON string, occasion string) (*services.LLMResponse, error) {
	m.RecommendCalls.Add(1)
	if m.RecommendFunc != nil {
		return m.RecommendFunc(ctx, wardrobeJSON, occasion)
	}
	return &services.LLMResponse{Response: m.RecommendationResponse, IsTest: true}, nil
}

func (m *LLMProcessorMock) Chat(ctx context.Context, history []models.ChatTurn, wardrobeContext string, message string) (*services.LLMResponse, error) {
	m.ChatCalls.Add(1)
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, history, wardrobeContext, message)
	}
	response := m.ChatResponse
	if response == "" {
		response = "Wear the black hoodie."
	}
	return &services.LLMResponse{Response: response, IsTest: true}, nil
}

// BlockUntilDone simulates a call that never answers before the deadline.
func BlockUntilDone(ctx context.Context) (*services.LLMResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type AWSProviderMock struct {
	MockUrl    string
	UploadErr  error
	PresignErr error

	mu      sync.Mutex
	Uploads map[string][]byte
}

func (awsService *AWSProviderMock) UploadObject(ctx context.Context, bucketName, key string, data []byte, mimeType string) error {
	if awsService.UploadErr != nil {
		return awsService.UploadErr
	}
	awsService.mu.Lock()
	defer awsService.mu.Unlock()
	if awsService.Uploads == nil {
		awsService.Uploads = map[string][]byte{}
	}
	awsService.Uploads[key] = append([]byte(nil), data...)
	return nil
}

func (awsService *AWSProviderMock) Uploaded(key string) ([]byte, bool) {
	awsService.mu.Lock()
	defer awsService.mu.Unlock()
	data, ok := awsService.Uploads[key]
	return data, ok
}

func (awsService *AWSProviderMock) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	if awsService.PresignErr != nil {
		return "", awsService.PresignErr
	}
	if awsService.MockUrl != "" {
		return awsService.MockUrl, nil
	}
	return fmt.Sprintf("https://fakebucketurl.com/%s/%s", bucketName, fileKey), nil
}

type URLCacheMock struct {
	Err error
}

func (m URLCacheMock) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return "https://cached.example.com/" + objectKey, nil
}
