package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/repository"
	"wardrobeapi/services"
	"wardrobeapi/storage"
	"wardrobeapi/test"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, llm services.LLMProcessor) App {
	t.Helper()
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	return App{
		Items:             repository.NewItemRepository(ctx, storage.NewSlot[models.ClothingItem](backend, storage.ItemsKey)),
		Outfits:           repository.NewOutfitRepository(ctx, storage.NewSlot[models.Outfit](backend, storage.OutfitsKey)),
		Stylist:           services.NewStylist(llm, time.Second),
		Images:            services.InlineImageStore{},
		Guard:             services.NewActionGuard(),
		MaxImageDimension: 256,
		MaxImageBytes:     1 << 20,
	}
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createItemIn(category string, seasons ...string) CreateItemIn {
	return CreateItemIn{
		Image:       services.EncodeDataURL(test.JPEGImage(8, 8), "image/jpeg"),
		Type:        "Hoodie",
		Category:    category,
		Color:       "Black",
		Seasons:     seasons,
		Tags:        []string{"Casual", "casual"},
		Description: "Cozy",
	}
}

func addItem(t *testing.T, e *echo.Echo, in CreateItemIn) ItemResponse {
	t.Helper()
	rec := serve(e, test.NewJSONRequest(http.MethodPost, "/api/items", in))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[ItemResponse](t, rec)
}

func TestScanItemJSON(t *testing.T) {
	llm := &test.LLMProcessorMock{}
	e := SetupServer(newTestApp(t, llm))

	req := test.NewJSONRequest(http.MethodPost, "/api/items/scan", ScanItemIn{Image: services.EncodeDataURL(test.JPEGImage(600, 300), "image/jpeg")})
	rec := serve(e, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	response := decode[ScanItemResponse](t, rec)
	assert.Equal(t, "Hoodie", response.Analysis.Type)
	assert.Equal(t, models.CategoryTop, response.Analysis.Category)

	data, mimeType, err := services.DecodeDataURL(response.Image)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)
	width, height, err := services.ImageDimensions(data)
	require.NoError(t, err)
	assert.Equal(t, 256, width)
	assert.Equal(t, 128, height)
}

func TestScanItemMultipart(t *testing.T) {
	var gotMime string
	llm := &test.LLMProcessorMock{
		AnalyzeFunc: func(ctx context.Context, image []byte, mimeType string) (*services.LLMResponse, error) {
			gotMime = mimeType
			return &services.LLMResponse{Response: test.AnalysisJSON}, nil
		},
	}
	e := SetupServer(newTestApp(t, llm))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "shirt.jpg")
	require.NoError(t, err)
	_, err = part.Write(test.JPEGImage(10, 10))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/items/scan", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := serve(e, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/jpeg", gotMime)
}

func TestScanItemFailureDoesNotAddItem(t *testing.T) {
	llm := &test.LLMProcessorMock{AnalysisResponse: `{"type":"Cape","category":"Cloak","color":"Red","seasons":["Winter"],"tags":[],"description":"d"}`}
	app := newTestApp(t, llm)
	e := SetupServer(app)

	rec := serve(e, test.NewJSONRequest(http.MethodPost, "/api/items/scan", ScanItemIn{Image: services.EncodeDataURL(test.JPEGImage(4, 4), "image/jpeg")}))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, analyzeFailedMessage, decode[map[string]string](t, rec)["error"])
	assert.Empty(t, app.Items.List())
}

func TestScanItemInvalidImage(t *testing.T) {
	llm := &test.LLMProcessorMock{}
	e := SetupServer(newTestApp(t, llm))

	rec := serve(e, test.NewJSONRequest(http.MethodPost, "/api/items/scan", ScanItemIn{Image: "data:text/plain;base64,aGVsbG8="}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(e, test.NewJSONRequest(http.MethodPost, "/api/items/scan", ScanItemIn{}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	garbage := services.EncodeDataURL([]byte("definitely not an image"), "image/png")
	rec = serve(e, test.NewJSONRequest(http.MethodPost, "/api/items/scan", ScanItemIn{Image: garbage}))
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, int32(0), llm.AnalyzeCalls.Load())
}

func TestScanItemRejectsConcurrentScan(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	llm := &test.LLMProcessorMock{
		AnalyzeFunc: func(ctx context.Context, image []byte, mimeType string) (*services.LLMResponse, error) {
			close(started)
			<-release
			return &services.LLMResponse{Response: test.AnalysisJSON}, nil
		},
	}
	e := SetupServer(newTestApp(t, llm))
	image := services.EncodeDataURL(test.JPEGImage(4, 4), "image/jpeg")

	var wg sync.WaitGroup
	var first *httptest.ResponseRecorder
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = serve(e, test.NewJSONRequest(http.MethodPost, "/api/items/scan", ScanItemIn{Image: image}))
	}()
	<-started

	second := serve(e, test.NewJSONRequest(http.MethodPost, "/api/items/scan", ScanItemIn{Image: image}))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	close(release)
	wg.Wait()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, int32(1), llm.AnalyzeCalls.Load())
}

func TestCreateAndListItems(t *testing.T) {
	e := SetupServer(newTestApp(t, &test.LLMProcessorMock{}))

	a := addItem(t, e, createItemIn("Top", "Winter", "Fall", "Winter"))
	assert.NotEmpty(t, a.ID)
	assert.NotZero(t, a.CreatedAt)
	assert.Equal(t, []models.Season{models.SeasonWinter, models.SeasonFall}, a.Season)
	assert.Equal(t, []string{"Casual"}, a.Tags)
	assert.Contains(t, a.ImageURL, "data:image/jpeg;base64,")

	b := addItem(t, e, createItemIn("Bottom", "All-Season"))

	rec := serve(e, test.NewJSONRequest(http.MethodGet, "/api/items", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]ItemResponse](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)

	rec = serve(e, test.NewJSONRequest(http.MethodGet, "/api/items?category=Top", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	tops := decode[[]ItemResponse](t, rec)
	require.Len(t, tops, 1)
	assert.Equal(t, a.ID, tops[0].ID)

	rec = serve(e, test.NewJSONRequest(http.MethodGet, "/api/items?category=All", nil))
	assert.Len(t, decode[[]ItemResponse](t, rec), 2)

	rec = serve(e, test.NewJSONRequest(http.MethodGet, "/api/items?category=Hats", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateItemValidation(t *testing.T) {
	e := SetupServer(newTestApp(t, &test.LLMProcessorMock{}))

	cases := map[string]CreateItemIn{
		"unknown category":  createItemIn("Cloak", "Winter"),
		"unknown season":    createItemIn("Top", "Monsoon"),
		"legacy all season": createItemIn("Top", "All Season"),
		"no seasons":        createItemIn("Top"),
		"missing image": func() CreateItemIn {
			in := createItemIn("Top", "Winter")
			in.Image = ""
			return in
		}(),
		"undecodable image": func() CreateItemIn {
			in := createItemIn("Top", "Winter")
			in.Image = services.EncodeDataURL([]byte("definitely not an image"), "image/png")
			return in
		}(),
		"missing type": func() CreateItemIn {
			in := createItemIn("Top", "Winter")
			in.Type = ""
			return in
		}(),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			rec := serve(e, test.NewJSONRequest(http.MethodPost, "/api/items", in))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateItemStoresImageInR2(t *testing.T) {
	app := newTestApp(t, &test.LLMProcessorMock{})
	aws := &test.AWSProviderMock{}
	app.Images = services.NewR2ImageStore(aws, test.URLCacheMock{}, "closet")
	e := SetupServer(app)

	created := addItem(t, e, createItemIn("Shoes", "Summer"))

	key := "clothes/" + created.ID + ".jpg"
	_, ok := aws.Uploaded(key)
	assert.True(t, ok)
	assert.Equal(t, "https://cached.example.com/"+key, created.ImageURL)

	stored, found := app.Items.FindByID(created.ID)
	require.True(t, found)
	assert.Equal(t, key, stored.ImageURL)
}

func TestGetItem(t *testing.T) {
	e := SetupServer(newTestApp(t, &test.LLMProcessorMock{}))
	created := addItem(t, e, createItemIn("Top", "Winter"))

	rec := serve(e, test.NewJSONRequest(http.MethodGet, "/api/items/"+created.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[ItemResponse](t, rec).ID)

	rec = serve(e, test.NewJSONRequest(http.MethodGet, "/api/items/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteItemRequiresConfirmation(t *testing.T) {
	app := newTestApp(t, &test.LLMProcessorMock{})
	e := SetupServer(app)
	created := addItem(t, e, createItemIn("Top", "Winter"))

	rec := serve(e, test.NewJSONRequest(http.MethodDelete, "/api/items/"+created.ID, nil))
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	_, ok := app.Items.FindByID(created.ID)
	assert.True(t, ok)

	rec = serve(e, test.NewJSONRequest(http.MethodDelete, "/api/items/"+created.ID+"?confirm=true", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok = app.Items.FindByID(created.ID)
	assert.False(t, ok)

	rec = serve(e, test.NewJSONRequest(http.MethodDelete, "/api/items/"+created.ID+"?confirm=true", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestJWTGuardsAPI(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newTestApp(t, &test.LLMProcessorMock{})
	app.JWTSecret = "test-secret"
	e := SetupServer(app)

	req := test.NewJSONRequest(http.MethodGet, "/api/items", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
	rec := serve(e, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, test.NewJSONAuthRequest(http.MethodGet, "/api/items", "owner", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, test.NewJSONRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
