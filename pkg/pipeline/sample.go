package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Robogera/pitchtrack/pkg/detection"
	"gocv.io/x/gocv"
)

var ERR_DETECTOR = errors.New("Can't get detections")

type Detector interface {
	Detect(ctx context.Context, jpeg []byte) (*detection.Response, error)
}

// Runs the detector on every stride-th frame of the video
func Sample(ctx context.Context, logger *slog.Logger, path string, stride int, detector Detector) ([]detection.Result, VideoInfo, error) {
	capture, info, err := open(path)
	if err != nil {
		return nil, info, err
	}
	defer capture.Close()
	stride = max(stride, 1)

	img := gocv.NewMat()
	defer img.Close()

	var results []detection.Result
	for frame_id := 0; capture.Read(&img); frame_id++ {
		if img.Empty() {
			break
		}
		if frame_id%stride != 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, info, err
		}
		result, err := detect(ctx, detector, img)
		if err != nil {
			return nil, info, fmt.Errorf("Frame %d: %w", frame_id, err)
		}
		result.Offset = float64(frame_id) / info.FPS
		results = append(results, result)
	}
	if len(results) == 0 {
		return nil, info, fmt.Errorf("%s: no frames: %w", path, ERR_CANT_OPEN_VIDEO)
	}
	logger.Info("Sampled", "input", path, "results", len(results), "stride", stride)
	return results, info, nil
}

// Runs the detector on a single decoded frame
func Detect(ctx context.Context, detector Detector, img gocv.Mat) (*detection.Response, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("Can't encode frame: %w", err)
	}
	defer buf.Close()
	jpeg := make([]byte, buf.Len())
	copy(jpeg, buf.GetBytes())

	resp, err := detector.Detect(ctx, jpeg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ERR_DETECTOR, err)
	}
	return resp, nil
}

func detect(ctx context.Context, detector Detector, img gocv.Mat) (detection.Result, error) {
	resp, err := Detect(ctx, detector, img)
	if err != nil {
		return detection.Result{}, err
	}
	return detection.Result{Predictions: resp.Predictions}, nil
}
