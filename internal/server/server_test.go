package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/upf/internal/config"
	"github.com/alexanderramin/upf/internal/mspdi"
	"github.com/alexanderramin/upf/internal/pipeline"
	"github.com/alexanderramin/upf/internal/repository"
	"github.com/alexanderramin/upf/internal/service"
	"github.com/alexanderramin/upf/internal/stats"
	"github.com/alexanderramin/upf/internal/testutil"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testServerConfig() config.ServerConfig {
	return config.Default("").Server
}

func newTestServer(t *testing.T, cfg config.ServerConfig, history bool, opts ...Option) *Server {
	t.Helper()
	var svcOpts []service.Option
	if history {
		database := testutil.NewTestDB(t)
		svcOpts = append(svcOpts, service.WithHistory(testutil.NewTestUoW(database), repository.NewSQLiteConversionRepo(database)))
	}
	svc := service.NewConversionService(pipeline.New(), svcOpts...)
	return New(cfg, svc, opts...)
}

func uploadRequest(t *testing.T, path, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testServerConfig(), false, WithVersion("1.2.3"))
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, healthResponse{Status: "healthy", Service: "upf", Version: "1.2.3"}, body)
}

func TestConvert_Success(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		data       []byte
		format     string
		tasks      string
		advisories string
		output     string
	}{
		{"legacy", "plan.mpp", testutil.MinimalLegacy().Bytes(), "legacy_binary", "2", "0", "plan.xml"},
		{"structured", "Site Plan.MPP", testutil.MinimalStructured().Bytes(), "structured_binary", "2", "0", "Site Plan.xml"},
		{"template", "starter.mpt", testutil.MinimalTemplate().Bytes(), "template_variant", "2", "1", "starter.xml"},
		{"xml", "export.xml", []byte(testutil.MinimalXML), "xml_variant", "3", "0", "export.xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, testServerConfig(), true)
			rec := serve(s, uploadRequest(t, "/convert", "file", tt.filename, tt.data))

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))

			disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
			require.NoError(t, err)
			assert.Equal(t, "attachment", disposition)
			assert.Equal(t, tt.output, params["filename"])

			assert.Equal(t, tt.format, rec.Header().Get(HeaderSourceFormat))
			assert.Equal(t, tt.tasks, rec.Header().Get(HeaderTasks))
			assert.Equal(t, "1", rec.Header().Get(HeaderResources))
			assert.Equal(t, "1", rec.Header().Get(HeaderCalendars))
			assert.Equal(t, tt.advisories, rec.Header().Get(HeaderAdvisories))
			assert.NotEmpty(t, rec.Header().Get(HeaderConversionTime))
			assert.NotEmpty(t, rec.Header().Get(HeaderContentType))
			assert.NotEmpty(t, rec.Header().Get(HeaderConversionID))

			doc, err := mspdi.Parse(bytes.NewReader(rec.Body.Bytes()))
			require.NoError(t, err)
			assert.NotEmpty(t, doc.Tasks.Tasks)
		})
	}
}

func TestConvert_RequestValidation(t *testing.T) {
	small := testServerConfig()
	small.MaxUploadBytes = 1024

	tests := []struct {
		name   string
		cfg    config.ServerConfig
		req    func(t *testing.T) *http.Request
		status int
		kind   string
	}{
		{
			name: "missing file field",
			cfg:  testServerConfig(),
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/convert", "attachment", "plan.mpp", []byte("x"))
			},
			status: http.StatusBadRequest,
			kind:   kindInvalidRequest,
		},
		{
			name: "not multipart",
			cfg:  testServerConfig(),
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/convert", bytes.NewReader([]byte("raw")))
			},
			status: http.StatusBadRequest,
			kind:   kindInvalidRequest,
		},
		{
			name: "empty file",
			cfg:  testServerConfig(),
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/convert", "file", "plan.mpp", nil)
			},
			status: http.StatusBadRequest,
			kind:   kindInvalidRequest,
		},
		{
			name: "extension not allowed",
			cfg:  testServerConfig(),
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/convert", "file", "plan.docx", testutil.MinimalLegacy().Bytes())
			},
			status: http.StatusBadRequest,
			kind:   kindInvalidRequest,
		},
		{
			name: "file above limit",
			cfg:  small,
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/convert", "file", "big.mpp", bytes.Repeat([]byte{1}, 4096))
			},
			status: http.StatusRequestEntityTooLarge,
			kind:   kindPayloadTooLarge,
		},
		{
			name: "body above limit",
			cfg:  small,
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/convert", "file", "huge.mpp", bytes.Repeat([]byte{1}, 256<<10))
			},
			status: http.StatusRequestEntityTooLarge,
			kind:   kindPayloadTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.cfg, true)
			rec := serve(s, tt.req(t))

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decodeError(t, rec)
			assert.Equal(t, stageUpload, body.Stage)
			assert.Equal(t, tt.kind, body.Kind)
			assert.NotEmpty(t, body.Message)

			// Rejected uploads never reach the core, so nothing is recorded.
			list := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/conversions", nil))
			var resp conversionListResponse
			require.NoError(t, json.Unmarshal(list.Body.Bytes(), &resp))
			assert.Empty(t, resp.Conversions)
		})
	}
}

func TestConvert_CoreFailures(t *testing.T) {
	truncated := testutil.MinimalLegacy().Bytes()
	truncated = truncated[:len(truncated)-20]

	tests := []struct {
		name   string
		data   []byte
		status int
		stage  string
		kind   string
	}{
		{"unrecognized", []byte("this is not a schedule"), http.StatusBadRequest, "sniff", "UNRECOGNIZED_FORMAT"},
		{"corrupt", truncated, http.StatusInternalServerError, "decode", "CORRUPT_STRUCTURE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, testServerConfig(), false)
			rec := serve(s, uploadRequest(t, "/convert", "file", "plan.mpp", tt.data))

			require.Equal(t, tt.status, rec.Code)
			assert.Empty(t, rec.Header().Get("Content-Disposition"))
			body := decodeError(t, rec)
			assert.Equal(t, tt.stage, body.Stage)
			assert.Equal(t, tt.kind, body.Kind)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestInfo(t *testing.T) {
	s := newTestServer(t, testServerConfig(), true)
	rec := serve(s, uploadRequest(t, "/info", "file", "export.xml", []byte(testutil.MinimalXML)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var info infoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Minimal XML", info.Name)
	assert.Equal(t, "xml_variant", info.Format)
	assert.Equal(t, 3, info.Stats.TaskCount)
	require.NotNil(t, info.StartDate)
	assert.True(t, testutil.Date(2024, 3, 4, 8, 0).Equal(*info.StartDate))
	assert.Equal(t, int64(len(testutil.MinimalXML)), info.InputBytes)
	assert.Contains(t, info.ContentType, "xml")
	assert.NotNil(t, info.Notes)
	require.Len(t, info.Tasks, 3)
	assert.Equal(t, "Build", info.Tasks[2].Name)
}

func TestInfo_UnrecognizedIsBadRequest(t *testing.T) {
	s := newTestServer(t, testServerConfig(), false)
	rec := serve(s, uploadRequest(t, "/info", "file", "plan.mpp", []byte{0, 1, 2, 3}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNRECOGNIZED_FORMAT", decodeError(t, rec).Kind)
}

func TestConversionsAPI(t *testing.T) {
	s := newTestServer(t, testServerConfig(), true)

	ok := serve(s, uploadRequest(t, "/convert", "file", "starter.mpt", testutil.MinimalTemplate().Bytes()))
	require.Equal(t, http.StatusOK, ok.Code)
	id := ok.Header().Get(HeaderConversionID)
	require.NotEmpty(t, id)
	bad := serve(s, uploadRequest(t, "/convert", "file", "bad.mpp", []byte("garbage")))
	require.Equal(t, http.StatusBadRequest, bad.Code)

	t.Run("list", func(t *testing.T) {
		rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/conversions", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp conversionListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Conversions, 2)

		statuses := []string{resp.Conversions[0].Status, resp.Conversions[1].Status}
		assert.ElementsMatch(t, []string{"succeeded", "failed"}, statuses)
	})

	t.Run("limit", func(t *testing.T) {
		rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/conversions?limit=1", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp conversionListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Conversions, 1)
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/conversions?limit=-3", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, kindInvalidRequest, decodeError(t, rec).Kind)
	})

	t.Run("detail", func(t *testing.T) {
		rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/conversions/"+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp conversionDetailResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, id, resp.Conversion.ID)
		assert.Equal(t, "template_variant", resp.Conversion.Format)
		assert.Equal(t, 1, resp.Conversion.NoteCount)
		require.Len(t, resp.Notes, 1)
		assert.Equal(t, "template_progress_cleared", resp.Notes[0].Code)
	})

	t.Run("detail not found", func(t *testing.T) {
		rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/conversions/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, kindNotFound, decodeError(t, rec).Kind)
	})
}

func TestConversionsAPI_HistoryDisabled(t *testing.T) {
	s := newTestServer(t, testServerConfig(), false)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/conversions", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, kindHistoryDisabled, decodeError(t, rec).Kind)
}

func TestMetricsEndpoint(t *testing.T) {
	sink, err := stats.NewPrometheusSink(true)
	require.NoError(t, err)
	svc := service.NewConversionService(pipeline.New(pipeline.WithSink(sink)))
	s := New(testServerConfig(), svc, WithMetrics("/metrics", sink.Handler()))

	ok := serve(s, uploadRequest(t, "/convert", "file", "plan.mpp", testutil.MinimalLegacy().Bytes()))
	require.Equal(t, http.StatusOK, ok.Code)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `upf_conversion_total{format="legacy_binary",status="success"} 1`)
}

func TestMetricsEndpoint_NotMountedWithoutHandler(t *testing.T) {
	s := newTestServer(t, testServerConfig(), false)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_FillsUploadDefaults(t *testing.T) {
	s := New(config.ServerConfig{}, service.NewConversionService(pipeline.New()))
	assert.Equal(t, int64(config.DefaultMaxUploadBytes), s.cfg.MaxUploadBytes)
	assert.Equal(t, config.DefaultExtensions(), s.cfg.AllowedExtensions)
}

func TestServe_GracefulShutdown(t *testing.T) {
	s := newTestServer(t, testServerConfig(), false)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
