package main

import (
	// stdlib
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	// internal
	"github.com/Robogera/pitchtrack/pkg/annotate"
	"github.com/Robogera/pitchtrack/pkg/detection"
	"github.com/Robogera/pitchtrack/pkg/gemini"
	"github.com/Robogera/pitchtrack/pkg/person"
	"github.com/Robogera/pitchtrack/pkg/pipeline"
	"github.com/Robogera/pitchtrack/pkg/scratch"

	// external
	"github.com/gin-gonic/gin"
	"gocv.io/x/gocv"
)

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error(), "success": false})
}

// Stores the uploaded "video" field inside the scope
func (a *App) saveUpload(c *gin.Context, scope *scratch.Scope) (string, error) {
	header, err := c.FormFile("video")
	if err != nil {
		return "", ERR_NO_FILE
	}
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ERR_NO_FILE, err)
	}
	defer file.Close()
	return scope.Save(filepath.Base(header.Filename), file)
}

func (a *App) newScope() (*scratch.Scope, error) {
	return scratch.NewScope(a.scratch_dir, a.logger)
}

func optionalFloat(c *gin.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.PostForm(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s=%q: %w", name, raw, ERR_BAD_PARAMETER)
	}
	return &v, nil
}

func (a *App) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"temp_folder":      a.scratch_dir,
		"gemini_enabled":   a.narrator.Enabled(),
		"roboflow_enabled": a.detector.Enabled(),
		"supabase_enabled": a.storage.Enabled(),
		"mqtt_enabled":     a.publisher != nil,
	})
}

type playerData struct {
	Id     annotate.Ordinal `json:"id"`
	Bbox   [4]int           `json:"bbox"`
	Center [2]int           `json:"center"`
}

func (a *App) analyzeFrame(c *gin.Context) {
	start := time.Now()
	ok := false
	defer func() { a.report("analyze_frame", start, ok) }()

	if _, err := c.FormFile("video"); err != nil {
		fail(c, http.StatusBadRequest, ERR_NO_FILE)
		return
	}
	if !a.detector.Enabled() {
		fail(c, http.StatusInternalServerError, fmt.Errorf("ROBOFLOW_API_KEY: %w", ERR_NOT_CONFIGURED))
		return
	}
	if !a.storage.Enabled() {
		fail(c, http.StatusInternalServerError, fmt.Errorf("Supabase configuration incomplete: %w", ERR_NOT_CONFIGURED))
		return
	}
	at, err := optionalFloat(c, "time_in_seconds")
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	scope, err := a.newScope()
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	defer scope.Release()

	input, err := a.saveUpload(c, scope)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}

	img, info, actual, err := pipeline.ReadFrameAt(input, at)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	defer img.Close()

	resp, err := pipeline.Detect(c.Request.Context(), a.detector, img)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}

	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	markers := annotate.Frame(&img, detection.ClassifyAll(resp.Predictions, bounds), nil)

	annotated := scope.Path("annotated_frame.jpg")
	if !gocv.IMWrite(annotated, img) {
		fail(c, http.StatusInternalServerError, fmt.Errorf("Can't write %s", annotated))
		return
	}
	url, err := a.storage.Upload(c.Request.Context(), annotated,
		fmt.Sprintf("frame_analysis/%s_annotated_frame.jpg", scope.Prefix()), "image/jpeg")
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}

	players := make([]playerData, 0, len(markers))
	for _, m := range markers {
		players = append(players, playerData{
			Id:     m.Ordinal,
			Bbox:   [4]int{m.Box.Min.X, m.Box.Min.Y, m.Box.Max.X, m.Box.Max.Y},
			Center: [2]int{m.Center.X, m.Center.Y},
		})
	}
	predictions := resp.Predictions
	if predictions == nil {
		predictions = []detection.Prediction{}
	}

	ok = true
	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"time_in_seconds":     actual,
		"annotated_frame_url": url,
		"predictions":         predictions,
		"players_data":        players,
		"image_dimensions":    gin.H{"width": img.Cols(), "height": img.Rows()},
		"video_duration":      info.Duration,
	})
}

// Preset identity and click are both optional. A click needs all
// three of its fields
func parseSelection(c *gin.Context) (pipeline.Selection, error) {
	var sel pipeline.Selection
	if raw := strings.TrimSpace(c.PostForm("selected_player_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return sel, fmt.Errorf("selected_player_id=%q: %w", raw, ERR_BAD_PARAMETER)
		}
		preset := person.Id(id)
		sel.Preset = &preset
	}

	x, err := optionalFloat(c, "click_x")
	if err != nil {
		return sel, err
	}
	y, err := optionalFloat(c, "click_y")
	if err != nil {
		return sel, err
	}
	at, err := optionalFloat(c, "click_time")
	if err != nil {
		return sel, err
	}
	switch {
	case x == nil && y == nil && at == nil:
	case x == nil || y == nil || at == nil:
		return sel, fmt.Errorf("click_x, click_y and click_time go together: %w", ERR_MISSING_PARAMETER)
	default:
		sel.Click = &pipeline.Click{At: image.Pt(int(*x), int(*y)), Time: *at}
	}
	return sel, nil
}

func (a *App) analyzeVideo(c *gin.Context) {
	start := time.Now()
	ok := false
	defer func() { a.report("analyze_video", start, ok) }()

	if _, err := c.FormFile("video"); err != nil {
		fail(c, http.StatusBadRequest, ERR_NO_FILE)
		return
	}
	sel, err := parseSelection(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}
	if !a.detector.Enabled() || !a.storage.Enabled() {
		fail(c, http.StatusInternalServerError, fmt.Errorf("Detector or storage: %w", ERR_NOT_CONFIGURED))
		return
	}

	scope, err := a.newScope()
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	defer scope.Release()

	input, err := a.saveUpload(c, scope)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}

	ctx := c.Request.Context()
	results, _, err := pipeline.Sample(ctx, a.logger, input, a.cfg.Detector.SampleStride, a.detector)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}

	output := scope.Path("annotated.mp4")
	report, records, err := pipeline.Run(ctx, a.logger, input, output, results, a.options(), sel, a.sinks())
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}

	tracking := scope.Path("tracking_data.json")
	data, err := json.Marshal(records)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	if err := os.WriteFile(tracking, data, 0o644); err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}

	video_url, err := a.storage.Upload(ctx, output,
		fmt.Sprintf("video_analysis/%s_annotated.mp4", scope.Prefix()), "video/mp4")
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	tracking_url, err := a.storage.Upload(ctx, tracking,
		fmt.Sprintf("video_analysis/%s_tracking_data.json", scope.Prefix()), "application/json")
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}

	ok = true
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"video_url":         video_url,
		"tracking_data_url": tracking_url,
		"tracking_stats":    report,
	})
}

func (a *App) analyzeWithGemini(c *gin.Context) {
	start := time.Now()
	ok := false
	defer func() { a.report("analyze_with_gemini", start, ok) }()

	if _, err := c.FormFile("video"); err != nil {
		fail(c, http.StatusBadRequest, ERR_NO_FILE)
		return
	}
	raw_time := strings.TrimSpace(c.PostForm("time_in_seconds"))
	raw_coordinates := strings.TrimSpace(c.PostForm("player_coordinates"))
	prompt := c.PostForm("prompt")
	if raw_time == "" || raw_coordinates == "" || prompt == "" {
		fail(c, http.StatusBadRequest,
			fmt.Errorf("time_in_seconds, player_coordinates and prompt: %w", ERR_MISSING_PARAMETER))
		return
	}
	at, err := strconv.ParseFloat(raw_time, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, fmt.Errorf("time_in_seconds=%q: %w", raw_time, ERR_BAD_PARAMETER))
		return
	}
	var coordinates json.RawMessage
	if err := json.Unmarshal([]byte(raw_coordinates), &coordinates); err != nil {
		fail(c, http.StatusBadRequest, fmt.Errorf("player_coordinates: %w: %w", ERR_BAD_PARAMETER, err))
		return
	}
	if !a.narrator.Enabled() {
		fail(c, http.StatusInternalServerError, fmt.Errorf("GEMINI_API_KEY: %w", ERR_NOT_CONFIGURED))
		return
	}

	scope, err := a.newScope()
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	defer scope.Release()

	input, err := a.saveUpload(c, scope)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	video, err := os.ReadFile(input)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}

	ctx := c.Request.Context()
	analysis, err := a.narrator.Analyze(ctx, video, "video/mp4", gemini.Prompt(prompt, at, coordinates))
	if err != nil {
		fail(c, http.StatusInternalServerError, fmt.Errorf("Analysis failed: %w", err))
		return
	}

	result := gin.H{
		"success":   true,
		"analysis":  analysis,
		"timestamp": scope.Prefix(),
	}

	analysis_path, err := scope.Save("analysis.txt", strings.NewReader(analysis))
	if err == nil {
		var url string
		url, err = a.storage.Upload(ctx, analysis_path,
			fmt.Sprintf("gemini_analysis/%s_analysis.txt", scope.Prefix()), "text/plain; charset=utf-8")
		if err == nil {
			result["analysis_url"] = url
		}
	}
	if err != nil {
		a.logger.Warn("Can't store analysis", "err", err)
	}

	ok = true
	c.JSON(http.StatusOK, result)
}
