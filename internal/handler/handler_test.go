package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mansoorceksport/skinsight/internal/domain"
)

type fakeAnalysisService struct {
	lastReq domain.AnalysisRequest
	err     error
}

func (f *fakeAnalysisService) ProcessAnalysis(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisSession, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	id := req.SessionID
	if id == "" {
		id = "generated"
	}
	return &domain.AnalysisSession{ID: id, UserInfo: req.UserInfo}, nil
}

func (f *fakeAnalysisService) GetSession(ctx context.Context, id string) (*domain.AnalysisSession, error) {
	if id == "s1" {
		return &domain.AnalysisSession{ID: "s1"}, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeAnalysisService) Recommend(scores []domain.OutputScore) []domain.ProductRecommendation {
	if len(scores) == 0 {
		return nil
	}
	return []domain.ProductRecommendation{{IssueTargeted: "dehydration"}}
}

func (f *fakeAnalysisService) Products(issue string) []domain.EnhancedProduct {
	if issue == "" {
		return []domain.EnhancedProduct{{ID: "a"}, {ID: "b"}}
	}
	return []domain.EnhancedProduct{{ID: "a"}}
}

type fakePaymentService struct {
	err error
}

func (f *fakePaymentService) Checkout(ctx context.Context, sessionID, email string) (*domain.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Invoice{SessionID: sessionID, Reference: "sk_1", Amount: 100, Status: domain.InvoiceStatusPending}, nil
}

func (f *fakePaymentService) Verify(ctx context.Context, reference string) (*domain.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Invoice{Reference: reference, Status: domain.InvoiceStatusPaid}, nil
}

func (f *fakePaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) (string, error) {
	if signature != "good" {
		return "", domain.ErrInvalidSignature
	}
	return "payment processed", nil
}

type fakeDeliveryService struct {
	err error
}

func (f *fakeDeliveryService) Deliver(ctx context.Context, req domain.DeliveryRequest) (*domain.DeliveryResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.DeliveryResult{Channel: req.Channel, Link: "https://wa.me/123"}, nil
}

func (f *fakeDeliveryService) ResolveReportToken(ctx context.Context, token string) (*domain.AnalysisSession, error) {
	if token != "valid" {
		return nil, domain.ErrInvalidToken
	}
	return &domain.AnalysisSession{ID: "s1"}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	var env envelope
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

func multipartBody(t *testing.T, filename, contentType string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func newAnalysisApp(svc domain.AnalysisService, maxMB int64) *fiber.App {
	h := NewAnalysisHandler(svc, maxMB, nil)
	app := fiber.New()
	app.Post("/v1/analyses", h.CreateAnalysis)
	app.Get("/v1/analyses/:id", h.GetAnalysis)
	app.Post("/v1/recommendations", h.Recommend)
	app.Get("/v1/products", h.ListProducts)
	return app
}

func TestCreateAnalysis(t *testing.T) {
	svc := &fakeAnalysisService{}
	app := newAnalysisApp(svc, 1)

	body, ct := multipartBody(t, "face.png", "image/png", []byte{0x89, 0x50, 0x4E, 0x47}, map[string]string{
		"session_id": "abc",
		"name":       " Ada ",
		"age_range":  "25-34",
	})
	req := httptest.NewRequest("POST", "/v1/analyses", body)
	req.Header.Set("Content-Type", ct)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	env := decode(t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, "abc", svc.lastReq.SessionID)
	assert.Equal(t, "Ada", svc.lastReq.UserInfo.Name)
	assert.Equal(t, "25-34", svc.lastReq.UserInfo.AgeRange)
	assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, svc.lastReq.ImageData)
}

func TestCreateAnalysis_Validation(t *testing.T) {
	app := newAnalysisApp(&fakeAnalysisService{}, 1)

	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		wantError   string
	}{
		{"missing image", "", "", nil, "missing 'image'"},
		{"wrong type", "notes.txt", "text/plain", []byte("hello"), "invalid file type"},
		{"too large", "big.jpg", "image/jpeg", make([]byte, 1024*1024+1), "exceeds maximum of 1MB"},
		{"empty", "empty.jpg", "image/jpeg", []byte{}, "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.filename, tt.contentType, tt.data, nil)
			req := httptest.NewRequest("POST", "/v1/analyses", body)
			req.Header.Set("Content-Type", ct)

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, decode(t, resp).Error, tt.wantError)
		})
	}
}

func TestCreateAnalysis_RejectsUnsafeSessionID(t *testing.T) {
	svc := &fakeAnalysisService{}
	app := newAnalysisApp(svc, 1)

	for _, id := range []string{"../etc", "a/b", strings.Repeat("x", domain.MaxSessionIDLength+1)} {
		body, ct := multipartBody(t, "face.png", "image/png", []byte{0x89, 0x50, 0x4E, 0x47}, map[string]string{"session_id": id})
		req := httptest.NewRequest("POST", "/v1/analyses", body)
		req.Header.Set("Content-Type", ct)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, id)
		assert.Contains(t, decode(t, resp).Error, "session_id")
	}
	assert.Empty(t, svc.lastReq.ImageData, "service is not called")
}

func TestCreateAnalysis_ExtensionFallback(t *testing.T) {
	app := newAnalysisApp(&fakeAnalysisService{}, 1)

	body, ct := multipartBody(t, "face.webp", "application/octet-stream", []byte("RIFF"), nil)
	req := httptest.NewRequest("POST", "/v1/analyses", body)
	req.Header.Set("Content-Type", ct)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestGetAnalysis(t *testing.T) {
	app := newAnalysisApp(&fakeAnalysisService{}, 1)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/analyses/s1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/analyses/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.False(t, decode(t, resp).Success)
}

func TestRecommend(t *testing.T) {
	app := newAnalysisApp(&fakeAnalysisService{}, 1)

	post := func(body string) *http.Response {
		req := httptest.NewRequest("POST", "/v1/recommendations", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := post(`{"scores":[{"name":"hydration","value":45}]}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"issueTargeted":"dehydration","severity":"","products":null,"treatmentType":""}]`, string(decode(t, resp).Data))

	resp = post(`{"scores":[]}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(decode(t, resp).Data))

	resp = post(`{"scores":[{"name":"hydration","value":140}]}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = post(`not json`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestListProducts(t *testing.T) {
	app := newAnalysisApp(&fakeAnalysisService{}, 1)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/products?issue=hydration", nil))
	require.NoError(t, err)

	var products []domain.EnhancedProduct
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &products))
	assert.Len(t, products, 1)
}

func TestPaymentHandlers(t *testing.T) {
	newApp := func(svc domain.PaymentService) *fiber.App {
		ph := NewPaymentHandler(svc, nil)
		wh := NewWebhookHandler(svc, nil)
		app := fiber.New()
		app.Post("/checkout", ph.Checkout)
		app.Get("/verify/:reference", ph.Verify)
		app.Post("/webhook", wh.PaystackWebhook)
		return app
	}
	checkout := func(app *fiber.App, body string) *http.Response {
		req := httptest.NewRequest("POST", "/checkout", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	app := newApp(&fakePaymentService{})
	resp := checkout(app, `{"session_id":"s1"}`)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var out CheckoutResponse
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &out))
	assert.Equal(t, "sk_1", out.Reference)

	assert.Equal(t, fiber.StatusBadRequest, checkout(app, `{}`).StatusCode)

	assert.Equal(t, fiber.StatusConflict, checkout(newApp(&fakePaymentService{err: domain.ErrAlreadyPaid}), `{"session_id":"s1"}`).StatusCode)
	assert.Equal(t, fiber.StatusBadGateway, checkout(newApp(&fakePaymentService{err: assert.AnError}), `{"session_id":"s1"}`).StatusCode)

	resp, err := app.Test(httptest.NewRequest("GET", "/verify/sk_1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(`{}`))
	req.Header.Set("X-Paystack-Signature", "bad")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("POST", "/webhook", strings.NewReader(`{}`))
	req.Header.Set("X-Paystack-Signature", "good")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "payment processed", decode(t, resp).Message)
}

func TestDeliveryHandlers(t *testing.T) {
	newApp := func(svc domain.DeliveryService) *fiber.App {
		h := NewDeliveryHandler(svc, nil)
		app := fiber.New()
		app.Post("/v1/analyses/:id/deliver", h.Deliver)
		app.Get("/v1/reports/:token", h.GetReport)
		return app
	}
	deliver := func(app *fiber.App) *http.Response {
		req := httptest.NewRequest("POST", "/v1/analyses/s1/deliver", strings.NewReader(`{"channel":"whatsapp"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := deliver(newApp(&fakeDeliveryService{}))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, fiber.StatusPaymentRequired, deliver(newApp(&fakeDeliveryService{err: domain.ErrPaymentRequired})).StatusCode)
	assert.Equal(t, fiber.StatusBadRequest, deliver(newApp(&fakeDeliveryService{err: domain.ErrUnsupportedChannel})).StatusCode)

	app := newApp(&fakeDeliveryService{})
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/reports/valid", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/reports/forged", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
