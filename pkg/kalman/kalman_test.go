package kalman

import (
	"image"
	"testing"
)

func TestFollowsConstantVelocity(t *testing.T) {
	kf := NewFilter(image.Pt(100, 100), 0, 0.01, 1)
	defer kf.Close()

	for frame := 1; frame <= 30; frame++ {
		kf.Update(image.Pt(100+5*frame, 100), frame)
	}
	state := kf.State()
	if state.X < 240 || state.X > 260 {
		t.Fatalf("Filter lost the target: %v", state)
	}
	speed := kf.Speed()
	t.Logf("State %v, speed %v", state, speed)
	if speed.X < 3 || speed.X > 7 {
		t.Fatalf("Unexpected speed estimate: %v", speed)
	}

	predicted := kf.Predict(32)
	if predicted.X <= state.X {
		t.Fatalf("Prediction did not move forward: %v -> %v", state, predicted)
	}
}

func TestPredictSameFrameIsNoop(t *testing.T) {
	kf := NewFilter(image.Pt(10, 20), 5, 0.01, 1)
	defer kf.Close()
	if p := kf.Predict(5); p != image.Pt(10, 20) {
		t.Fatalf("Expected unchanged state, got %v", p)
	}
}
