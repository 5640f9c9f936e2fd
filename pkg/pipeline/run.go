package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Robogera/pitchtrack/pkg/detection"
	"github.com/Robogera/pitchtrack/pkg/gsma"
	"github.com/Robogera/pitchtrack/pkg/indexed"
	"github.com/Robogera/pitchtrack/pkg/synapse"
	"gocv.io/x/gocv"
)

// Live preview, satisfied by *mjpeg.Stream
type FrameSink interface {
	UpdateJPEG(jpeg []byte)
}

type Publisher interface {
	Publish(ctx context.Context, r synapse.Record) error
}

// Optional outputs besides the video file
type Sinks struct {
	Live FrameSink
	// JPEG quality of the preview, 0 keeps the encoder default
	LiveQuality int
	Publisher   Publisher
	StatPeriod  time.Duration
}

type Report struct {
	Video          VideoInfo     `json:"video"`
	Codec          string        `json:"codec"`
	Frames         int           `json:"frames"`
	Identities     int           `json:"identities"`
	BallDetections int           `json:"ball_detections"`
	AvgFrameTime   time.Duration `json:"avg_frame_time"`
	Took           time.Duration `json:"took"`
}

const frameTimeWindow = 100

// Annotates in_path into out_path, pairing every frame with the
// detection result of the nearest offset
func Run(
	ctx context.Context,
	parent_logger *slog.Logger,
	in_path, out_path string,
	results []detection.Result,
	opts Options,
	sel Selection,
	sinks Sinks,
) (*Report, []synapse.Record, error) {
	logger := parent_logger.With("component", "pipeline", "input", in_path)
	start := time.Now()

	capture, info, err := open(in_path)
	if err != nil {
		return nil, nil, err
	}
	defer capture.Close()

	img := gocv.NewMat()
	defer img.Close()
	if !capture.Read(&img) || img.Empty() {
		return nil, nil, fmt.Errorf("%s: first frame: %w", in_path, ERR_CANT_OPEN_VIDEO)
	}
	// container metadata is not always there
	if info.Width == 0 || info.Height == 0 {
		info.Width, info.Height = img.Cols(), img.Rows()
	}

	writer, codec, err := openWriter(out_path, opts.Codecs, info)
	if err != nil {
		return nil, nil, err
	}
	defer writer.Close()
	logger.Info("Started", "fps", info.FPS, "width", info.Width, "height", info.Height, "codec", codec, "results", len(results))

	session := NewSession(opts, info.FPS, info.Size(), sel, logger)
	defer session.Close()

	frame_times, err := gsma.NewSMA[time.Duration](frameTimeWindow)
	if err != nil {
		return nil, nil, err
	}

	var records []synapse.Record
	last_stat := time.Now()

	for frame_id := 0; ; frame_id++ {
		if frame_id > 0 {
			if !capture.Read(&img) || img.Empty() {
				logger.Debug("End of stream", "frame", frame_id)
				break
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		frame_start := time.Now()

		offset := time.Duration(float64(frame_id) / info.FPS * float64(time.Second))
		in := indexed.NewIndexed(uint64(frame_id), offset, &img)

		var predictions []detection.Prediction
		if i, ok := detection.Nearest(results, in.Seconds()); ok {
			predictions = results[i].Predictions
		}

		record, _ := session.Step(in, predictions)
		if err := writer.Write(img); err != nil {
			return nil, nil, fmt.Errorf("Frame %d: %w", frame_id, err)
		}
		records = append(records, record)

		if sinks.Live != nil {
			if data, err := encodePreview(img, sinks.LiveQuality); err != nil {
				logger.Warn("Can't encode preview", "frame", frame_id, "err", err)
			} else {
				sinks.Live.UpdateJPEG(data)
			}
		}
		if sinks.Publisher != nil {
			if err := sinks.Publisher.Publish(ctx, record); err != nil {
				logger.Warn("Can't publish record", "frame", frame_id, "err", err)
			}
		}

		frame_times.Recalc(time.Since(frame_start))
		if sinks.StatPeriod > 0 && time.Since(last_stat) >= sinks.StatPeriod {
			logger.Info("Stats",
				"frames processed", frame_id+1,
				"average frame time", time.Duration(frame_times.Show()),
				"active upstream tracks", session.upstream.Active(),
				"inactive identities", session.people.TotalInactive())
			last_stat = time.Now()
		}
	}

	report := &Report{
		Video:          info,
		Codec:          codec,
		Frames:         len(records),
		Identities:     len(session.distinct),
		BallDetections: session.ball_detections,
		AvgFrameTime:   time.Duration(frame_times.Show()),
		Took:           time.Since(start),
	}
	logger.Info("Finished", "frames", report.Frames, "identities", report.Identities, "took", report.Took)
	return report, records, nil
}

func encodePreview(img gocv.Mat, quality int) ([]byte, error) {
	var buf *gocv.NativeByteBuffer
	var err error
	if quality > 0 {
		buf, err = gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, quality})
	} else {
		buf, err = gocv.IMEncode(gocv.JPEGFileExt, img)
	}
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data, nil
}
