package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/popgraph/internal/chart"
	"github.com/KaramelBytes/popgraph/internal/roles"
	"github.com/KaramelBytes/popgraph/internal/selection"
	"github.com/KaramelBytes/popgraph/internal/series"
	"github.com/KaramelBytes/popgraph/internal/session"
	"github.com/KaramelBytes/popgraph/internal/table"
)

type uploadRequest struct {
	Filename string `json:"filename"`
	Contents string `json:"contents"`
}

type seriesRequest struct {
	uploadRequest
	Entity string `json:"entity"`
	Kind   string `json:"kind"`
}

type option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type uploadResponse struct {
	Filename         string   `json:"filename"`
	Rows             int      `json:"rows"`
	Columns          int      `json:"columns"`
	EntityColumn     string   `json:"entity_column"`
	EntityConfidence string   `json:"entity_confidence"`
	YearColumns      []string `json:"year_columns"`
	YearsPreview     string   `json:"years_preview"`
	Entities         []option `json:"entities"`
	Warnings         []string `json:"warnings"`
}

type seriesResponse struct {
	Entity      string         `json:"entity"`
	Points      []series.Point `json:"points"`
	Dropped     int            `json:"dropped"`
	Substituted int            `json:"substituted"`
	Policy      string         `json:"policy"`
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"MaxUploadMB": s.cfg.MaxUploadBytes >> 20,
		"Policy":      s.cfg.Settings.Series.Policy.String(),
	})
}

func (s *Server) randomData(c *gin.Context) {
	v := math.Round(s.randFloat()*100*100) / 100
	c.JSON(http.StatusOK, gin.H{
		"value":     v,
		"timestamp": float64(time.Now().UnixNano()) / 1e9,
	})
}

func (s *Server) upload(c *gin.Context) {
	var req seriesRequest
	if !s.bind(c, &req) {
		return
	}
	sess, ok := s.loadAndInfer(c, req.uploadRequest)
	if !ok {
		return
	}
	t, r := sess.Table(), sess.Roles()
	years := r.YearNames()
	preview := strings.Join(years[:min(5, len(years))], ", ")
	if len(years) > 5 {
		preview += "..."
	}
	entities := make([]option, 0, len(sess.Entities()))
	for _, e := range sess.Entities() {
		entities = append(entities, option{Label: e, Value: e})
	}
	warnings := append([]string{}, t.Warnings...)
	if r.Entity.Confidence == roles.Fallback {
		warnings = append(warnings, r.Entity.Describe())
	}
	c.JSON(http.StatusOK, uploadResponse{
		Filename:         t.Name,
		Rows:             t.Len(),
		Columns:          t.Width(),
		EntityColumn:     r.Entity.Name,
		EntityConfidence: r.Entity.Confidence.String(),
		YearColumns:      years,
		YearsPreview:     preview,
		Entities:         entities,
		Warnings:         warnings,
	})
}

func (s *Server) seriesJSON(c *gin.Context) {
	ser, _, ok := s.extract(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, seriesResponse{
		Entity:      ser.Entity,
		Points:      ser.Points,
		Dropped:     ser.Dropped,
		Substituted: ser.Substituted,
		Policy:      ser.Policy.String(),
	})
}

func (s *Server) chartSVG(c *gin.Context) {
	ser, req, ok := s.extract(c)
	if !ok {
		return
	}
	kind, err := chart.ParseKind(req.Kind)
	if err != nil {
		s.fail(c, fmt.Errorf("%w: %w", selection.ErrInvalidSelection, err))
		return
	}
	var buf bytes.Buffer
	r := &chart.SVGRenderer{Width: s.cfg.ChartWidth, Height: s.cfg.ChartHeight}
	if r.Width <= 0 || r.Height <= 0 {
		r.Width, r.Height = 900, 450
	}
	if err := r.Render(&buf, chart.FromSeries(ser, kind)); err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

// extract runs the whole workflow for one request body.
func (s *Server) extract(c *gin.Context) (*series.Series, seriesRequest, bool) {
	var req seriesRequest
	if !s.bind(c, &req) {
		return nil, req, false
	}
	sess, ok := s.loadAndInfer(c, req.uploadRequest)
	if !ok {
		return nil, req, false
	}
	res, err := sess.Select(req.Entity)
	if err != nil {
		s.fail(c, err)
		return nil, req, false
	}
	if res.Ambiguous() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   fmt.Sprintf("%q matches %d countries", res.Input, len(res.Matches)),
			"kind":    session.Kind(selection.ErrInvalidSelection),
			"matches": res.Matches,
		})
		return nil, req, false
	}
	ser, err := sess.Extract()
	if err != nil {
		s.fail(c, err)
		return nil, req, false
	}
	return ser, req, true
}

// bind fills req from a JSON body or from a multipart form with a "file"
// field and optional "entity" and "kind" fields.
func (s *Server) bind(c *gin.Context, req *seriesRequest) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(req); err != nil {
			s.fail(c, malformed(err))
			return false
		}
		return true
	}
	fh, err := c.FormFile("file")
	if err != nil {
		s.fail(c, malformed(err))
		return false
	}
	f, err := fh.Open()
	if err != nil {
		s.fail(c, malformed(err))
		return false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		s.fail(c, malformed(err))
		return false
	}
	req.Filename = fh.Filename
	req.Contents = string(data)
	req.Entity = c.PostForm("entity")
	req.Kind = c.PostForm("kind")
	c.Set(rawUploadKey, true)
	return true
}

func (s *Server) loadAndInfer(c *gin.Context, req uploadRequest) (*session.Session, bool) {
	if req.Filename == "" || !table.Supported(req.Filename) {
		s.fail(c, fmt.Errorf("%w: %q is not a CSV or XLSX file", table.ErrMalformedInput, req.Filename))
		return nil, false
	}
	data, err := decodeContents(c, req)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	sess := session.New(s.cfg.Settings)
	if err := sess.LoadBytes(req.Filename, data); err != nil {
		s.fail(c, err)
		return nil, false
	}
	if err := sess.Infer(); err != nil {
		s.fail(c, err)
		return nil, false
	}
	return sess, true
}

// rawUploadKey marks requests whose contents came from a multipart file
// rather than a base64 data URL.
const rawUploadKey = "raw_upload"

func decodeContents(c *gin.Context, req uploadRequest) ([]byte, error) {
	if c.GetBool(rawUploadKey) {
		return []byte(req.Contents), nil
	}
	return table.DecodeDataURL(req.Contents)
}

func malformed(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return err
	}
	return fmt.Errorf("%w: %w", table.ErrMalformedInput, err)
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{
		"error": err.Error(),
		"kind":  session.Kind(err),
	})
}

func statusFor(err error) int {
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, table.ErrMalformedInput), errors.Is(err, selection.ErrInvalidSelection):
		return http.StatusBadRequest
	case errors.Is(err, selection.ErrNoMatch):
		return http.StatusNotFound
	case errors.Is(err, roles.ErrNoEntityColumn), errors.Is(err, roles.ErrNoYearColumns), errors.Is(err, series.ErrEmptySeries):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
