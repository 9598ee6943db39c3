package ui

import (
	"image"
	"strconv"

	"sparse-ca/internal/core"
)

// Panel metrics, in pixels.
const (
	panelPadding   = 12
	rowHeight      = 36
	statLine       = 16
	buttonSize     = 24
	buttonGap      = 6
	headerBaseline = 18
	labelBaseline  = 24
	controlsTop    = panelPadding + headerBaseline + 14
)

// controlRow is one adjustable parameter and its +/- buttons.
type controlRow struct {
	control core.ParameterControl
	value   string
	current float64
	live    bool

	top         int
	minus, plus image.Rectangle
}

// panelLayout places control rows in a panel of fixed width. It holds no
// ebiten state so it can be exercised headless.
type panelLayout struct {
	width int
	rows  []controlRow
}

func newPanelLayout(width int, controls []core.ParameterControl) panelLayout {
	l := panelLayout{width: width, rows: make([]controlRow, len(controls))}
	for i, ctrl := range controls {
		top := controlsTop + i*rowHeight
		y := top + (rowHeight-buttonSize)/2
		plus := image.Rect(width-panelPadding-buttonSize, y, width-panelPadding, y+buttonSize)
		minus := plus.Sub(image.Pt(buttonSize+buttonGap, 0))
		l.rows[i] = controlRow{control: ctrl, value: "--", top: top, minus: minus, plus: plus}
	}
	return l
}

// refresh copies current values out of snap. Rows whose key is missing or
// not numeric are shown dimmed and ignore clicks.
func (l *panelLayout) refresh(snap core.ParameterSnapshot) {
	for i := range l.rows {
		r := &l.rows[i]
		r.live, r.value = false, "--"
		p, ok := snap.Find(r.control.Key)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(p.Value, 64)
		if err != nil {
			continue
		}
		r.current, r.value, r.live = v, p.Value, true
	}
}

// hit reports which button, if any, contains the panel-relative point.
func (l *panelLayout) hit(x, y int) (row, dir int, ok bool) {
	pt := image.Pt(x, y)
	for i, r := range l.rows {
		if !r.live {
			continue
		}
		switch {
		case pt.In(r.minus):
			return i, -1, true
		case pt.In(r.plus):
			return i, 1, true
		}
	}
	return 0, 0, false
}

// statsTop is the baseline of the first stats line under the controls.
func (l *panelLayout) statsTop() int {
	return controlsTop + len(l.rows)*rowHeight + rowHeight/2
}

// apply pushes an adjustment of row i in direction dir through the setters.
func (l *panelLayout) apply(i, dir int, ints core.IntParameterSetter, floats core.FloatParameterSetter) bool {
	r := &l.rows[i]
	if !adjustable(r, dir, ints, floats) {
		return false
	}
	target, _ := r.control.Adjust(r.current, dir)
	var ok bool
	switch r.control.Type {
	case core.ParamTypeInt:
		ok = ints.SetIntParameter(r.control.Key, int(target))
	case core.ParamTypeFloat:
		ok = floats.SetFloatParameter(r.control.Key, target)
	}
	if ok {
		r.current = target
	}
	return ok
}

func adjustable(r *controlRow, dir int, ints core.IntParameterSetter, floats core.FloatParameterSetter) bool {
	if !r.live {
		return false
	}
	switch r.control.Type {
	case core.ParamTypeInt:
		if ints == nil {
			return false
		}
	case core.ParamTypeFloat:
		if floats == nil {
			return false
		}
	default:
		return false
	}
	_, ok := r.control.Adjust(r.current, dir)
	return ok
}
