package root_view

import (
	"context"
	"html/template"
	"time"

	"sandcar/episode"
	"sandcar/server/fastview"
	"sandcar/server/frame_views"

	channerics "github.com/niceyeti/channerics/channels"
)

// RootView is the main page: it owns the view components, the fan-in of their
// updates, and the browser bootstrap that applies updates and sends input back.
type RootView struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// NewRootView builds every view from the frame stream.
func NewRootView(
	ctx context.Context,
	frames <-chan episode.Frame,
) (*RootView, error) {
	views, err := fastview.NewViewBuilder[episode.Frame, frame_views.Scene]().
		WithContext(ctx).
		WithModel(frames, frame_views.Convert).
		WithView(func(
			done <-chan struct{},
			scenes <-chan frame_views.Scene) fastview.ViewComponent {
			return frame_views.NewSandView(done, scenes)
		}).
		WithView(func(
			done <-chan struct{},
			scenes <-chan frame_views.Scene) fastview.ViewComponent {
			return frame_views.NewVehicleView(done, scenes)
		}).
		WithView(func(
			done <-chan struct{},
			scenes <-chan frame_views.Scene) fastview.ViewComponent {
			return frame_views.NewTelemetryView(done, scenes)
		}).
		Build()
	if err != nil {
		return nil, err
	}

	return &RootView{
		views:   views,
		updates: fanIn(ctx.Done(), views),
	}, nil
}

// Updates returns the merged, batched ele-update channel of all views.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse builds the page template and returns its name. The func-map set here is
// inherited by the child views.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	rt := parent.Funcs(
		template.FuncMap{
			"add":  func(i, j int) int { return i + j },
			"sub":  func(i, j int) int { return i - j },
			"mult": func(i, j int) int { return i * j },
			"div":  func(i, j int) int { return i / j },
		})

	var bodySpec string
	for _, vc := range rv.views {
		tname, parseErr := vc.Parse(rt)
		if parseErr != nil {
			return "", parseErr
		}
		bodySpec += `{{ template "` + tname + `" . }}`
	}

	// The page stacks a paint canvas over the vehicle svg. Strokes are drawn
	// locally and sent as paint commands; the buttons send clear/save/load.
	name = "mainpage"
	indexTemplate := `
	{{ define "` + name + `" }}
	<!DOCTYPE html>
	<html>
		<head>
			<link rel="icon" href="data:,">
			<script>
				const ws = new WebSocket("ws://" + location.host + "/ws");
				ws.onopen = function (event) {
					console.log("Web socket opened")
				};
				ws.onerror = function (event) {
					console.log('WebSocket error: ', event);
				};
				ws.onmessage = function (event) {
					const items = JSON.parse(event.data)
					for (const update of items) {
						const ele = document.getElementById(update.EleId)
						if (!ele) {
							continue
						}
						// The server's sand path now includes what was drawn locally.
						if (update.EleId === "sand-path") {
							const canvas = document.getElementById("sand-canvas");
							canvas.getContext("2d").clearRect(0, 0, canvas.width, canvas.height);
						}
						for (const op of update.Ops) {
							if (op.Key === "textContent") {
								ele.textContent = op.Value;
							} else {
								ele.setAttribute(op.Key, op.Value)
							}
						}
					}
				};

				function send(cmd) {
					if (ws.readyState === WebSocket.OPEN) {
						ws.send(JSON.stringify(cmd));
					}
				}

				window.addEventListener("load", function () {
					const canvas = document.getElementById("sand-canvas");
					const ctx = canvas.getContext("2d");
					ctx.strokeStyle = "rgb(204,178,102)";
					ctx.lineWidth = 10;
					ctx.lineCap = "square";
					let last = null;

					canvas.addEventListener("mousedown", function (e) {
						last = {x: e.offsetX, y: e.offsetY};
					});
					canvas.addEventListener("mousemove", function (e) {
						if (last === null) {
							return;
						}
						const next = {x: e.offsetX, y: e.offsetY};
						ctx.beginPath();
						ctx.moveTo(last.x, last.y);
						ctx.lineTo(next.x, next.y);
						ctx.stroke();
						send({kind: "paint", a: last, b: next});
						last = next;
					});
					for (const evt of ["mouseup", "mouseleave"]) {
						canvas.addEventListener(evt, function () { last = null; });
					}

					document.getElementById("clear").onclick = function () {
						ctx.clearRect(0, 0, canvas.width, canvas.height);
						send({kind: "clear"});
					};
					document.getElementById("save").onclick = function () { send({kind: "save"}); };
					document.getElementById("load").onclick = function () { send({kind: "load"}); };
				});
			</script>
		</head>
		<body>
			<div>
				<button id="clear">clear</button>
				<button id="save">save</button>
				<button id="load">load</button>
			</div>
			<div style="position:relative; width:{{ .Width }}px; height:{{ .Height }}px;">
				<canvas id="sand-canvas" width="{{ .Width }}" height="{{ .Height }}"
					style="position:absolute; left:0; top:0;"></canvas>
				` + bodySpec + `
			</div>
		</body></html>
	{{ end }}
	`

	_, err = rt.Parse(indexTemplate)
	return
}

// fanIn merges the views' update channels and batches the result.
func fanIn(
	done <-chan struct{},
	views []fastview.ViewComponent,
) <-chan []fastview.EleUpdate {
	inputs := make([]<-chan []fastview.EleUpdate, len(views))
	for i, view := range views {
		inputs[i] = view.Updates()
	}
	return batchify(
		done,
		channerics.Merge(done, inputs...),
		time.Millisecond*20)
}

// batchify collects updates for rate before sending them as one batch. A later
// update for an ele-id replaces an earlier one within the same batch.
//
// NOTE: a batch is only flushed when the next update arrives after the rate window,
// so if the source goes quiet the final batch sits here until something else comes
// in. At 60 frames/s the source is never quiet for long; a paused loop leaves the
// page one batch behind.
// TODO: add a timer case to the loop so a pending batch is flushed once rate elapses.
func batchify(
	done <-chan struct{},
	source <-chan []fastview.EleUpdate,
	rate time.Duration,
) <-chan []fastview.EleUpdate {
	output := make(chan []fastview.EleUpdate)

	go func() {
		defer close(output)

		data := map[string]fastview.EleUpdate{}
		last := time.Now()
		for updates := range channerics.OrDone(done, source) {
			for _, update := range updates {
				data[update.EleId] = update
			}

			if time.Since(last) > rate && len(data) > 0 {
				select {
				case output <- slicedVals(data):
					data = map[string]fastview.EleUpdate{}
					last = time.Now()
				case <-done:
					return
				}
			}
		}
	}()

	return output
}

func slicedVals[K comparable, V any](mp map[K]V) (sliced []V) {
	for _, v := range mp {
		sliced = append(sliced, v)
	}
	return
}
