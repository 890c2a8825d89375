package interaction

import (
	"testing"

	"cardstudio/core"
)

func TestMove(t *testing.T) {
	got := Move(core.Position{X: -3, Y: 4}, Point{X: 10, Y: -10})
	if got != (core.Position{X: 7, Y: -6}) {
		t.Errorf("Move() = %+v", got)
	}
}

func TestResizeImage(t *testing.T) {
	cases := []struct {
		name          string
		width, height float64
		delta         Point
		cardWidth     float64
		wantW, wantH  float64
	}{
		{"grow", 50, 300, Point{X: 100, Y: 50}, 1000, 60, 350},
		{"width floor", 30, 300, Point{X: -500, Y: 0}, 1000, 20, 300},
		{"width ceiling", 95, 300, Point{X: 500, Y: 0}, 1000, 100, 300},
		{"height floor", 50, 80, Point{X: 0, Y: -200}, 1000, 50, 50},
		{"zero card width uses default", 50, 300, Point{X: 100, Y: 0}, 0, 60, 300},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := ResizeImage(tc.width, tc.height, tc.delta, tc.cardWidth)
			if !almostEqual(w, tc.wantW) || !almostEqual(h, tc.wantH) {
				t.Errorf("ResizeImage() = (%v, %v), want (%v, %v)", w, h, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestScale(t *testing.T) {
	got, ok := Scale(1, DecorationScaleMin, Point{X: 100, Y: 100}, Point{X: 150, Y: 100}, Point{X: 200, Y: 100})
	if !ok || got != 2 {
		t.Errorf("Scale() = (%v, %v), want (2, true)", got, ok)
	}

	got, ok = Scale(2, DecorationScaleMin, Point{X: 100, Y: 100}, Point{X: 150, Y: 100}, Point{X: 100, Y: 100})
	if ok || got != 2 {
		t.Errorf("Scale() at pivot = (%v, %v), want (2, false)", got, ok)
	}

	got, _ = Scale(1, CaptionScaleMin, Point{}, Point{X: 10}, Point{X: 1})
	if got != CaptionScaleMin {
		t.Errorf("Scale() = %v, want floor %v", got, CaptionScaleMin)
	}
}

func TestTargetSupports(t *testing.T) {
	cases := []struct {
		kind    TargetKind
		allowed []Action
	}{
		{TargetImage, []Action{ActionMove, ActionResize}},
		{TargetMessage, []Action{ActionMove, ActionResize}},
		{TargetCaption, []Action{ActionMove, ActionScale}},
		{TargetDecoration, []Action{ActionMove, ActionRotate, ActionScale}},
		{TargetRecipient, []Action{ActionMove}},
		{TargetSender, []Action{ActionMove}},
	}

	all := []Action{ActionMove, ActionResize, ActionRotate, ActionScale}
	for _, tc := range cases {
		target := Target{Kind: tc.kind, DecorationID: "d"}
		for _, action := range all {
			want := false
			for _, a := range tc.allowed {
				if a == action {
					want = true
				}
			}
			if got := target.Supports(action); got != want {
				t.Errorf("%s.Supports(%s) = %v, want %v", tc.kind, action, got, want)
			}
		}
	}
}
