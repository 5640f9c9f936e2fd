package kalman

import (
	"image"

	"gocv.io/x/gocv"
)

// Constant velocity filter over a 2d point. State is (x, y, vx, vy),
// time is measured in frames
type Filter struct {
	filter      *gocv.KalmanFilter
	last_update int
}

func NewFilter(p image.Point, frame int, proc_noise_cov, meas_noise_cov float64) *Filter {
	filter := gocv.NewKalmanFilter(4, 2)
	gocv.SetIdentity(filter.GetTransitionMatrix(), 1)
	gocv.SetIdentity(filter.GetMeasurementMatrix(), 1)
	gocv.SetIdentity(filter.GetProcessNoiseCov(), proc_noise_cov)
	gocv.SetIdentity(filter.GetMeasurementNoiseCov(), meas_noise_cov)
	gocv.SetIdentity(filter.GetErrorCovPost(), 1)
	mat := filter.GetStatePre()
	mat.SetFloatAt(0, 0, float32(p.X))
	mat.SetFloatAt(1, 0, float32(p.Y))
	filter.SetStatePre(mat)
	mat.Close()
	mat = filter.GetStatePost()
	mat.SetFloatAt(0, 0, float32(p.X))
	mat.SetFloatAt(1, 0, float32(p.Y))
	filter.SetStatePost(mat)
	mat.Close()
	return &Filter{
		filter: &filter, last_update: frame}
}

func (kf *Filter) predict(dt float32) image.Point {
	tr_mat := kf.filter.GetTransitionMatrix()
	defer tr_mat.Close()
	tr_mat.SetFloatAt(0, 2, dt)
	tr_mat.SetFloatAt(1, 3, dt)
	pred := kf.filter.Predict()
	defer pred.Close()
	return image.Pt(
		int(pred.GetFloatAt(0, 0)),
		int(pred.GetFloatAt(1, 0)),
	)
}

// Advances the state to frame without a measurement
func (kf *Filter) Predict(frame int) image.Point {
	dt := float32(frame - kf.last_update)
	if dt <= 0 {
		return kf.State()
	}
	kf.last_update = frame
	return kf.predict(dt)
}

func (kf *Filter) Update(meas image.Point, frame int) {
	if dt := float32(frame - kf.last_update); dt > 0 {
		kf.predict(dt)
	}
	kf.last_update = frame

	meas_mat := gocv.NewMatWithSize(2, 1, gocv.MatTypeCV32F)
	defer meas_mat.Close()
	meas_mat.SetFloatAt(0, 0, float32(meas.X))
	meas_mat.SetFloatAt(1, 0, float32(meas.Y))
	corr := kf.filter.Correct(meas_mat)
	defer corr.Close()
}

func (kf *Filter) State() image.Point {
	state := kf.filter.GetStatePost()
	defer state.Close()

	return image.Pt(
		int(state.GetFloatAt(0, 0)),
		int(state.GetFloatAt(1, 0)),
	)
}

func (kf *Filter) Speed() image.Point {
	state := kf.filter.GetStatePost()
	defer state.Close()

	return image.Pt(
		int(state.GetFloatAt(2, 0)),
		int(state.GetFloatAt(3, 0)),
	)
}

func (kf *Filter) Close() {
	kf.filter.Close()
}
