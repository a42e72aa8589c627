package web

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const popCSV = "Rank,Country/Territory,2010 Population,2000 Population,1990 Population\n" +
	"1,France,65,60,56\n" +
	"2,French Polynesia,0.27,0.24,n/a\n" +
	"3,Peru,29,26,22\n"

func dataURL(s string) string {
	return "data:text/csv;base64," + base64.StdEncoding.EncodeToString([]byte(s))
}

func newTestServer() *Server {
	return NewServer(Config{MaxUploadBytes: 1 << 20, ChartWidth: 600, ChartHeight: 300}, nil)
}

func postJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestIndex(t *testing.T) {
	w := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Population by country")
	assert.Contains(t, w.Body.String(), "Up to 1 MB")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/get_random_data", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestRandomData(t *testing.T) {
	s := newTestServer()
	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get_random_data", nil))
		require.Equal(t, http.StatusOK, w.Code)
		out := decode(t, w)
		v, ok := out["value"].(float64)
		require.True(t, ok)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
		assert.InDelta(t, v, float64(int64(v*100+0.5))/100, 1e-9)
		ts, ok := out["timestamp"].(float64)
		require.True(t, ok)
		assert.InDelta(t, float64(time.Now().Unix()), ts, 60)
	}
}

func TestUpload(t *testing.T) {
	w := postJSON(t, newTestServer(), "/api/upload", map[string]string{
		"filename": "world_population.csv",
		"contents": dataURL(popCSV),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, "world_population.csv", out["filename"])
	assert.Equal(t, 3.0, out["rows"])
	assert.Equal(t, 5.0, out["columns"])
	assert.Equal(t, "Country/Territory", out["entity_column"])
	assert.Equal(t, "matched", out["entity_confidence"])
	assert.Equal(t, []any{"1990 Population", "2000 Population", "2010 Population"}, out["year_columns"])
	assert.Equal(t, "1990 Population, 2000 Population, 2010 Population", out["years_preview"])
	entities := out["entities"].([]any)
	require.Len(t, entities, 3)
	assert.Equal(t, map[string]any{"label": "France", "value": "France"}, entities[0])
}

func TestUploadMultipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "pop.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(popCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "pop.csv", decode(t, w)["filename"])
}

func TestUploadErrors(t *testing.T) {
	s := newTestServer()
	cases := []struct {
		name   string
		body   map[string]string
		status int
		kind   string
	}{
		{"not csv", map[string]string{"filename": "notes.pdf", "contents": dataURL(popCSV)}, http.StatusBadRequest, "MalformedInput"},
		{"bad base64", map[string]string{"filename": "pop.csv", "contents": "data:text/csv;base64,!!!"}, http.StatusBadRequest, "MalformedInput"},
		{"no years", map[string]string{"filename": "pop.csv", "contents": dataURL("Country,Area\nPeru,1\n")}, http.StatusUnprocessableEntity, "NoYearColumns"},
		{"no entity", map[string]string{"filename": "pop.csv", "contents": dataURL("Rank,2000\n1,2\n")}, http.StatusUnprocessableEntity, "NoEntityColumn"},
	}
	for _, c := range cases {
		w := postJSON(t, s, "/api/upload", c.body)
		assert.Equal(t, c.status, w.Code, c.name)
		out := decode(t, w)
		assert.Equal(t, c.kind, out["kind"], c.name)
		assert.NotEmpty(t, out["error"], c.name)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadTooLarge(t *testing.T) {
	s := NewServer(Config{MaxUploadBytes: 64}, nil)
	w := postJSON(t, s, "/api/upload", map[string]string{"filename": "pop.csv", "contents": dataURL(popCSV)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestSeries(t *testing.T) {
	w := postJSON(t, newTestServer(), "/api/series", map[string]string{
		"filename": "pop.csv",
		"contents": dataURL(popCSV),
		"entity":   "French Polynesia",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, "French Polynesia", out["entity"])
	assert.Equal(t, 1.0, out["dropped"])
	assert.Equal(t, "drop", out["policy"])
	points := out["points"].([]any)
	require.Len(t, points, 2)
	assert.Equal(t, map[string]any{"label": "2000 Population", "year": 2000.0, "value": 0.24}, points[0])
}

func TestSeriesErrors(t *testing.T) {
	s := newTestServer()
	body := func(entity string) map[string]string {
		return map[string]string{"filename": "pop.csv", "contents": dataURL(popCSV), "entity": entity}
	}

	w := postJSON(t, s, "/api/series", body("Fr"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	out := decode(t, w)
	assert.Equal(t, "InvalidSelection", out["kind"])
	assert.Equal(t, []any{"France", "French Polynesia"}, out["matches"])

	w = postJSON(t, s, "/api/series", body("Atlantis"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NoMatch", decode(t, w)["kind"])

	w = postJSON(t, s, "/api/series", body("7"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	empty := "Country,2000,2010\nAtlantis,?,\n"
	w = postJSON(t, s, "/api/series", map[string]string{"filename": "pop.csv", "contents": dataURL(empty), "entity": "Atlantis"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "EmptySeries", decode(t, w)["kind"])
}

func TestChartSVG(t *testing.T) {
	s := newTestServer()
	for _, kind := range []string{"", "bar"} {
		w := postJSON(t, s, "/api/chart.svg", map[string]string{
			"filename": "pop.csv",
			"contents": dataURL(popCSV),
			"entity":   "3",
			"kind":     kind,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "<svg")
	}

	w := postJSON(t, s, "/api/chart.svg", map[string]string{
		"filename": "pop.csv", "contents": dataURL(popCSV), "entity": "Peru", "kind": "pie",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChartSVGSinglePoint(t *testing.T) {
	s := newTestServer()
	one := "Country,2000 Population,2010 Population\nPeru,n/a,3000\n"
	for _, kind := range []string{"", "line", "bar"} {
		w := postJSON(t, s, "/api/chart.svg", map[string]string{
			"filename": "pop.csv",
			"contents": dataURL(one),
			"entity":   "Peru",
			"kind":     kind,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "<svg", kind)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newTestServer().Run(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
