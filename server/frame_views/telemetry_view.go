package frame_views

import (
	"fmt"
	"html/template"

	"sandcar/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// TelemetryView is a text readout of the agent's inputs and reward.
type TelemetryView struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewTelemetryView(
	done <-chan struct{},
	scenes <-chan Scene,
) (tv *TelemetryView) {
	tv = &TelemetryView{id: "telemetry"}
	tv.updates = channerics.Convert(done, scenes, tv.onUpdate)
	return
}

func (tv *TelemetryView) Updates() <-chan []fastview.EleUpdate {
	return tv.updates
}

func text(id, value string) fastview.EleUpdate {
	return fastview.EleUpdate{
		EleId: id,
		Ops:   []fastview.Op{{Key: "textContent", Value: value}},
	}
}

func rewardColor(reward float64) string {
	if reward > 0 {
		return "green"
	}
	return "firebrick"
}

// panelLeft places the readout to the right of the field.
func panelLeft(s Scene) int {
	return s.Width + 20
}

func (tv *TelemetryView) onUpdate(s Scene) []fastview.EleUpdate {
	reward := text(tv.id+"-reward", fmt.Sprintf("%.2f", s.Reward))
	reward.Ops = append(reward.Ops, fastview.Op{Key: "fill", Value: rewardColor(s.Reward)})

	return []fastview.EleUpdate{
		text(tv.id+"-tick", fmt.Sprint(s.Tick)),
		reward,
		text(tv.id+"-score", fmt.Sprintf("%.3f", s.Score)),
		text(tv.id+"-orientation", fmt.Sprintf("%.2f", s.Orientation)),
		text(tv.id+"-signals", fmt.Sprintf("%.2f %.2f %.2f", s.Signals[0], s.Signals[1], s.Signals[2])),
	}
}

func (tv *TelemetryView) Parse(
	t *template.Template,
) (name string, err error) {
	name = tv.id
	_, err = t.Funcs(template.FuncMap{
		"rewardColor": rewardColor,
		"panelLeft":   panelLeft,
	}).Parse(
		`{{ define "` + name + `" }}
		<svg id="` + tv.id + `" width="260" height="110"
			style="position:absolute; left:{{ panelLeft . }}px; top:0; font-family: monospace;">
			<text x="0" y="15">tick</text>
			<text id="` + tv.id + `-tick" x="110" y="15">{{ .Tick }}</text>
			<text x="0" y="35">reward</text>
			<text id="` + tv.id + `-reward" x="110" y="35" fill="{{ rewardColor .Reward }}">{{ printf "%.2f" .Reward }}</text>
			<text x="0" y="55">score</text>
			<text id="` + tv.id + `-score" x="110" y="55">{{ printf "%.3f" .Score }}</text>
			<text x="0" y="75">orientation</text>
			<text id="` + tv.id + `-orientation" x="110" y="75">{{ printf "%.2f" .Orientation }}</text>
			<text x="0" y="95">signals</text>
			<text id="` + tv.id + `-signals" x="110" y="95">{{ printf "%.2f %.2f %.2f" (index .Signals 0) (index .Signals 1) (index .Signals 2) }}</text>
		</svg>
		{{ end }}`)
	return
}
