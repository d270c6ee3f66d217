package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trafficlens/trafficlens/pkg/dataset"
	"github.com/trafficlens/trafficlens/pkg/dataset/pcapconv"
	"github.com/trafficlens/trafficlens/pkg/eval"
	"github.com/trafficlens/trafficlens/pkg/pipeline"
)

const previewRows = 10

// EstimatorChoices enumerates the valid classifier sizes exposed by
// the slider: 50 through 300 in steps of 50.
func EstimatorChoices() []int { return []int{50, 100, 150, 200, 250, 300} }

func validEstimators(n int) bool {
	return n >= 50 && n <= 300 && n%50 == 0
}

// reportView is the JSON shape of an evaluation report.
type reportView struct {
	Accuracy   float64             `json:"accuracy"`
	Classes    []string            `json:"classes"`
	Metrics    []eval.ClassMetrics `json:"metrics"`
	Confusion  [][]int             `json:"confusion"`
	Text       string              `json:"text"`
	Estimators int                 `json:"estimators"`
}

func newReportView(r *pipeline.Result, estimators int) reportView {
	return reportView{
		Accuracy:   r.Report.Accuracy,
		Classes:    r.Report.Classes,
		Metrics:    r.Report.Metrics,
		Confusion:  r.Report.Confusion,
		Text:       r.Report.Text(),
		Estimators: estimators,
	}
}

// uploadDatasets accepts one or more CSV (or PCAP) files, runs the
// full pipeline and replaces the session.
func (s *Server) uploadDatasets(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected multipart upload: " + err.Error()})
		return
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	estimators := s.cfg.Pipeline.Estimators
	if raw := c.PostForm("estimators"); raw != "" {
		estimators, err = strconv.Atoi(raw)
		if err != nil || !validEstimators(estimators) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "estimators must be 50..300 in steps of 50"})
			return
		}
	}

	files := make([]storedFile, 0, len(uploads))
	for _, upload := range uploads {
		f, err := upload.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("open %s: %v", upload.Filename, err)})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("read %s: %v", upload.Filename, err)})
			return
		}

		if isPcap(upload.Filename) {
			data, err = convertPcap(upload.Filename, data)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("convert %s: %v", upload.Filename, err)})
				return
			}
		}
		files = append(files, storedFile{name: upload.Filename, data: data})
	}

	sess := &session{
		id:         uuid.NewString(),
		files:      files,
		estimators: estimators,
	}
	if err := s.runPipeline(c, sess); err != nil {
		return
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"dataset_id": sess.id,
		"rows":       sess.result.Frame.NumRows(),
		"header":     sess.result.Frame.Header(),
		"preview":    sess.result.Frame.Preview(previewRows),
		"report":     newReportView(sess.result, sess.estimators),
	})
}

// runPipeline executes a run for the session, writing an HTTP error
// on failure.
func (s *Server) runPipeline(c *gin.Context, sess *session) error {
	sources := make([]dataset.Source, len(sess.files))
	for i, f := range sess.files {
		sources[i] = dataset.Source{Name: f.name, Reader: bytes.NewReader(f.data)}
	}

	opts := pipeline.DefaultOptions()
	opts.Estimators = sess.estimators
	opts.Seed = s.cfg.Pipeline.Seed
	opts.TestFraction = s.cfg.Pipeline.TestFraction
	opts.Contamination = s.cfg.Pipeline.Contamination
	opts.ChunkSize = s.cfg.Pipeline.ChunkSize
	opts.GlobalMedians = s.cfg.Pipeline.GlobalMedians

	result, err := pipeline.Run(c.Request.Context(), sources, opts, s.logger)
	if err != nil {
		s.logger.Warn("pipeline run failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return err
	}
	sess.result = result
	return nil
}

// retrain re-runs the pipeline on the retained upload with a new
// estimator count.
func (s *Server) retrain(c *gin.Context) {
	var req struct {
		Estimators int `json:"estimators"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !validEstimators(req.Estimators) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "estimators must be 50..300 in steps of 50"})
		return
	}

	s.mu.Lock()
	cur := s.session
	s.mu.Unlock()
	if cur == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no dataset uploaded"})
		return
	}

	sess := &session{
		id:         cur.id,
		files:      cur.files,
		estimators: req.Estimators,
	}
	if err := s.runPipeline(c, sess); err != nil {
		return
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"dataset_id": sess.id,
		"report":     newReportView(sess.result, sess.estimators),
	})
}

// report returns the current evaluation report.
func (s *Server) report(c *gin.Context) {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()
	if sess == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no dataset uploaded"})
		return
	}
	c.JSON(http.StatusOK, newReportView(sess.result, sess.estimators))
}

// detectAnomalies scores the held-out rows and returns the flagged
// view plus the binary alert state.
func (s *Server) detectAnomalies(c *gin.Context) {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()
	if sess == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no dataset uploaded"})
		return
	}

	scan, err := sess.result.DetectAnomalies()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	header := append(sess.result.Frame.Header(), "Anomaly Prediction")
	rows := make([][]string, 0, len(scan.Flagged))
	for _, idx := range scan.Flagged {
		rows = append(rows, append(sess.result.Frame.Row(idx), "Anomaly"))
	}

	c.JSON(http.StatusOK, gin.H{
		"alert":         scan.Alert,
		"scored":        scan.Scored,
		"flagged_count": len(scan.Flagged),
		"header":        header,
		"rows":          rows,
	})
}

// advisory asks the remote completion endpoint for an assessment.
// Failures are softened to a warning with empty advisory text.
func (s *Server) advisory(c *gin.Context) {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()
	if sess == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no dataset uploaded"})
		return
	}

	text, err := s.advisor.Analyze(c.Request.Context(), sess.result.Summary())
	if err != nil {
		s.logger.Warn("advisory call failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"advisory": "", "warning": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"advisory": text})
}

func isPcap(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pcap", ".pcapng", ".cap":
		return true
	}
	return false
}

// convertPcap writes the capture to a scratch file (the capture
// library reads from disk) and renders it as CSV for the pipeline.
func convertPcap(name string, data []byte) ([]byte, error) {
	tmp, err := os.CreateTemp("", "trafficlens-*"+filepath.Ext(name))
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, err
	}
	tmp.Close()
	return pcapconv.ToCSV(tmp.Name())
}
