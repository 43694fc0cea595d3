package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"

	"sandcar/episode"
	"sandcar/server/fastview"
	"sandcar/server/frame_views"
	"sandcar/server/root_view"

	"github.com/gorilla/mux"
)

const (
	// How long a handler waits for the loop to pick up a command and reply.
	replyWait       = 2 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Server serves one page and one websocket to a single viewer: the ele-update
// channel has one consumer, so a second tab competes with the first for updates.
// Input from the page (paint, clear, save, load) and from the http command
// endpoints is forwarded to the episode loop, which applies it between ticks.
type Server struct {
	addr     string
	initial  frame_views.Scene
	rootView *root_view.RootView
	commands chan<- episode.Command
	stats    *episode.Stats
}

// NewServer builds the views over frames. initial renders the page before the
// first frame arrives.
func NewServer(
	ctx context.Context,
	addr string,
	initial episode.Frame,
	frames <-chan episode.Frame,
	commands chan<- episode.Command,
	stats *episode.Stats,
) (*Server, error) {
	rootView, err := root_view.NewRootView(ctx, frames)
	if err != nil {
		return nil, fmt.Errorf("root view: %w", err)
	}

	return &Server{
		addr:     addr,
		initial:  frame_views.Convert(initial),
		rootView: rootView,
		commands: commands,
		stats:    stats,
	}, nil
}

// Handler returns the router for all endpoints.
func (server *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket)
	router.HandleFunc("/stats", server.serveStats).Methods(http.MethodGet)
	router.HandleFunc("/scores", server.serveScores).Methods(http.MethodGet)
	router.HandleFunc("/command/{kind}", server.serveCommand).Methods(http.MethodPost)
	return router
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (server *Server) Serve(ctx context.Context) (err error) {
	httpServer := &http.Server{
		Addr:    server.addr,
		Handler: server.Handler(),
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("server: listening on %s", server.addr)
	if err = httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	if err = <-shutdownErr; err != nil {
		err = fmt.Errorf("shutdown: %w", err)
	}
	return
}

// serveWebsocket publishes view updates to the page and forwards its commands.
//
// NOTE: every session reads the same root view update channel, so with two tabs open
// each batch goes to whichever session receives it first and both pages flicker
// between stale and current state. One viewer at a time is all this supports.
// TODO: fan the root view out per session with channerics.Broadcast, registering
// and unregistering sessions here, once more than one viewer is needed.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	onMessage := func(data []byte) error {
		cmd, err := episode.ParseCommand(data)
		if err != nil {
			return err
		}
		return server.send(ctx, cmd)
	}

	cli, err := fastview.NewClient(server.rootView.Updates(), onMessage, w, r)
	if err != nil {
		log.Println("server:", err)
		return
	}
	if err := cli.Sync(); err != nil {
		log.Printf("server: session %s: %v", cli.ID(), err)
	}
}

// ErrLoopBusy is returned when the loop does not accept or answer a command in time.
var ErrLoopBusy = errors.New("episode loop did not respond")

// send queues cmd for the loop without waiting for it to be applied.
func (server *Server) send(ctx context.Context, cmd episode.Command) error {
	select {
	case server.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(replyWait):
		return ErrLoopBusy
	}
}

// request queues cmd and waits for the loop's reply.
func (server *Server) request(ctx context.Context, cmd episode.Command) (episode.Reply, error) {
	replies := make(chan episode.Reply, 1)
	cmd.Reply = replies
	if err := server.send(ctx, cmd); err != nil {
		return episode.Reply{}, err
	}
	select {
	case reply := <-replies:
		return reply, nil
	case <-ctx.Done():
		return episode.Reply{}, ctx.Err()
	case <-time.After(replyWait):
		return episode.Reply{}, ErrLoopBusy
	}
}

func (server *Server) serveStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, server.stats.Snapshot())
}

func (server *Server) serveScores(w http.ResponseWriter, r *http.Request) {
	reply, err := server.request(r.Context(), episode.Command{Kind: episode.Scores})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, reply.Scores)
}

// serveCommand accepts clear, save and load; paint also takes a json body
// of the websocket form.
func (server *Server) serveCommand(w http.ResponseWriter, r *http.Request) {
	cmd := episode.Command{Kind: episode.CommandKind(mux.Vars(r)["kind"])}
	if !cmd.Kind.Valid() || cmd.Kind == episode.Scores {
		http.Error(w, fmt.Sprintf("unknown command %q", cmd.Kind), http.StatusNotFound)
		return
	}
	if cmd.Kind == episode.Paint {
		body, err := io.ReadAll(io.LimitReader(r.Body, 8192))
		if err == nil {
			cmd, err = episode.ParseCommand(body)
		}
		if err != nil || cmd.Kind != episode.Paint {
			http.Error(w, "bad paint command", http.StatusBadRequest)
			return
		}
	}

	reply, err := server.request(r.Context(), cmd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if reply.Err != nil {
		http.Error(w, reply.Err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "command": string(cmd.Kind)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("server: write json:", err)
	}
}

func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if err := renderTemplate(w, server.rootView, server.initial); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	return t.ExecuteTemplate(w, tname, data)
}
