package pipeline

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

var (
	ERR_CANT_OPEN_VIDEO  = errors.New("Can't open video")
	ERR_CANT_OPEN_WRITER = errors.New("Can't open video writer")
)

const fallbackFPS = 30

type VideoInfo struct {
	FPS      float64 `json:"fps"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Frames   int     `json:"frames"`
	Duration float64 `json:"duration"`
}

func (v VideoInfo) Size() image.Point { return image.Pt(v.Width, v.Height) }

func open(path string) (*gocv.VideoCapture, VideoInfo, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, VideoInfo{}, fmt.Errorf("%s: %w: %w", path, ERR_CANT_OPEN_VIDEO, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, VideoInfo{}, fmt.Errorf("%s: %w", path, ERR_CANT_OPEN_VIDEO)
	}
	info := VideoInfo{
		FPS:    capture.Get(gocv.VideoCaptureFPS),
		Width:  int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(capture.Get(gocv.VideoCaptureFrameHeight)),
		Frames: int(capture.Get(gocv.VideoCaptureFrameCount)),
	}
	if info.FPS > 0 {
		info.Duration = float64(info.Frames) / info.FPS
	} else {
		info.FPS = fallbackFPS
	}
	return capture, info, nil
}

// First codec whose writer opens wins
func openWriter(path string, codecs []string, info VideoInfo) (*gocv.VideoWriter, string, error) {
	var errs []error
	for _, codec := range codecs {
		writer, err := gocv.VideoWriterFile(path, codec, info.FPS, info.Width, info.Height, true)
		if err == nil && writer.IsOpened() {
			return writer, codec, nil
		}
		if writer != nil {
			writer.Close()
		}
		if err == nil {
			err = errors.New("not opened")
		}
		errs = append(errs, fmt.Errorf("%s: %w", codec, err))
	}
	return nil, "", fmt.Errorf("%s: %w: %w", path, ERR_CANT_OPEN_WRITER, errors.Join(errs...))
}

// Decodes the frame at seconds into the video, clamped to its duration.
// nil seconds picks the middle of the video. Caller owns the Mat
func ReadFrameAt(path string, seconds *float64) (gocv.Mat, VideoInfo, float64, error) {
	capture, info, err := open(path)
	if err != nil {
		return gocv.Mat{}, info, 0, err
	}
	defer capture.Close()

	at := info.Duration / 2
	if seconds != nil {
		at = max(0, min(*seconds, info.Duration))
	}
	capture.Set(gocv.VideoCapturePosMsec, at*1000)
	actual := capture.Get(gocv.VideoCapturePosMsec) / 1000

	img := gocv.NewMat()
	if !capture.Read(&img) || img.Empty() {
		img.Close()
		return gocv.Mat{}, info, actual, fmt.Errorf("%s at %.2fs: %w", path, at, ERR_CANT_OPEN_VIDEO)
	}
	return img, info, actual, nil
}
