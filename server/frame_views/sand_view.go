package frame_views

import (
	"fmt"
	"html/template"
	"strings"

	"sandcar/sand"
	"sandcar/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// sandRefresh is how often, in ticks, the sand path is resent when unchanged.
const sandRefresh = 30

// SandView draws the field's painted strokes as a single svg path, so sand painted
// over http, from another tab, or before a page reload shows up, and a clear from
// anywhere empties it.
//
// The full path is resent whenever the field's version changes. It is also resent
// every sandRefresh ticks even when nothing changed: the publisher drops batches
// that arrive faster than its rate, and a freshly loaded page only has the sand
// rendered at server start. Both cases heal within half a second at 60 ticks/s.
// A per-client diff would be cheaper on the wire but needs per-client view state,
// which the single-consumer update channel does not have yet.
type SandView struct {
	id          string
	updates     <-chan []fastview.EleUpdate
	lastVersion int
	sent        bool
}

func NewSandView(
	done <-chan struct{},
	scenes <-chan Scene,
) (sv *SandView) {
	sv = &SandView{id: "sand"}
	sv.updates = channerics.Convert(done, scenes, sv.onUpdate)
	return
}

func (sv *SandView) Updates() <-chan []fastview.EleUpdate {
	return sv.updates
}

// sandPath renders strokes as svg path data, one move-line pair per stroke.
func sandPath(strokes []sand.Stroke) string {
	var sb strings.Builder
	for _, s := range strokes {
		fmt.Fprintf(&sb, "M%d %d L%d %d ", round(s.A.X), round(s.A.Y), round(s.B.X), round(s.B.Y))
	}
	return strings.TrimSpace(sb.String())
}

// onUpdate runs on the view's single Convert goroutine, so its bookkeeping needs no lock.
func (sv *SandView) onUpdate(s Scene) []fastview.EleUpdate {
	if sv.sent && s.SandVersion == sv.lastVersion && s.Tick%sandRefresh != 0 {
		return nil
	}
	sv.sent = true
	sv.lastVersion = s.SandVersion
	return []fastview.EleUpdate{{
		EleId: sv.id + "-path",
		Ops:   []fastview.Op{{Key: "d", Value: sandPath(s.Sand)}},
	}}
}

func brushWidth(s Scene) int {
	return 2 * s.Brush
}

func (sv *SandView) Parse(
	t *template.Template,
) (name string, err error) {
	name = sv.id
	_, err = t.Funcs(template.FuncMap{
		"sandPath":   sandPath,
		"brushWidth": brushWidth,
	}).Parse(
		`{{ define "` + name + `" }}
		<svg id="` + sv.id + `"
			width="{{ .Width }}" height="{{ .Height }}"
			style="position:absolute; left:0; top:0; pointer-events:none;">
			<path id="` + sv.id + `-path" d="{{ sandPath .Sand }}"
				fill="none" stroke="rgb(204,178,102)" stroke-width="{{ brushWidth . }}"
				stroke-linecap="square"/>
		</svg>
		{{ end }}`)
	return
}
