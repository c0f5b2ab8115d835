package websocket

import (
	"fmt"
	"gallery-server/core"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

const galleryRoom socketio.Room = "gallery"

// Hub pushes gallery changes to Socket.IO clients and lets them mutate the
// gallery over the same connection.
type Hub struct {
	store       core.PictureStore
	readOnly    bool
	srv         *socketio.Server
	clients     atomic.Int64
	unsubscribe func()

	// emit sends an event to every socket in the gallery room.
	emit func(event string, payload map[string]any) error
}

// NewHub creates the Socket.IO server and subscribes it to store.
// extraOrigins are allowed next to localhost and tauri://localhost. A
// read-only hub still pushes changes but refuses mutating events.
func NewHub(store core.PictureStore, extraOrigins []string, readOnly bool) *Hub {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(1000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)

	localhostOrigin := regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`)
	origins := []any{"tauri://localhost", localhostOrigin}
	for _, o := range extraOrigins {
		origins = append(origins, o)
	}
	opts.SetCors(&types.Cors{
		Origin:      origins,
		Credentials: true,
	})

	h := &Hub{
		store:    store,
		readOnly: readOnly,
		srv:      socketio.NewServer(nil, opts),
	}
	h.emit = func(event string, payload map[string]any) error {
		return h.srv.To(galleryRoom).Emit(event, payload)
	}

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	h.srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}
		h.attach(socket)
	})

	h.unsubscribe = store.Subscribe(h.broadcast)
	return h
}

// Server exposes the underlying Socket.IO server for mounting on a router.
func (h *Hub) Server() *socketio.Server {
	return h.srv
}

// ClientCount is the number of currently connected sockets.
func (h *Hub) ClientCount() int64 {
	return h.clients.Load()
}

// Close stops listening to the store and shuts the Socket.IO server down.
func (h *Hub) Close() {
	h.unsubscribe()
	h.srv.Close(nil)
}

func (h *Hub) attach(socket *socketio.Socket) {
	me := socket.Id()
	log := logrus.WithField("socket_id", me)

	socket.Join(galleryRoom)
	h.clients.Add(1)
	log.Debug("Client joined gallery")

	_ = socket.Emit("gallery-snapshot", snapshotPayload(h.store))

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	socket.On("add-picture", func(datas ...any) {
		ack, args := extractAck(datas)
		payload, err := h.addPicture(args)
		respond(socket, ack, "add-picture-ack", payload, err)
	})

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	socket.On("remove-picture", func(datas ...any) {
		ack, args := extractAck(datas)
		payload, err := h.removePicture(args)
		respond(socket, ack, "remove-picture-ack", payload, err)
	})

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	socket.On("clear-gallery", func(datas ...any) {
		ack, _ := extractAck(datas)
		payload, err := h.clearGallery()
		respond(socket, ack, "clear-gallery-ack", payload, err)
	})

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	socket.On("seed-gallery", func(datas ...any) {
		ack, _ := extractAck(datas)
		payload, err := h.seedGallery()
		respond(socket, ack, "seed-gallery-ack", payload, err)
	})

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	socket.On("disconnect", func(datas ...any) {
		h.clients.Add(-1)
		log.Debug("Client left gallery")
	})
}

func (h *Hub) broadcast(change core.Change) {
	if err := h.emit("gallery-changed", changePayload(change)); err != nil {
		logrus.WithError(err).WithField("change_id", change.ID).Warn("Failed to broadcast gallery change")
	}
}

var errReadOnly = fmt.Errorf("gallery is read-only over this channel")

func (h *Hub) addPicture(args []any) (map[string]any, error) {
	if h.readOnly {
		return errorPayload(errReadOnly), errReadOnly
	}
	if len(args) < 2 {
		err := fmt.Errorf("author and url are required")
		return errorPayload(err), err
	}

	author, ok := args[0].(string)
	if !ok {
		err := fmt.Errorf("author must be a string, got %T", args[0])
		return errorPayload(err), err
	}
	url, ok := args[1].(string)
	if !ok {
		err := fmt.Errorf("url must be a string, got %T", args[1])
		return errorPayload(err), err
	}

	picture, result := h.store.Add(author, url)
	payload := map[string]any{
		"status": "ok",
		"result": result.String(),
	}
	if result == core.AddSuccess {
		payload["picture"] = picturePayload(picture)
	} else {
		payload["status"] = "rejected"
	}
	return payload, nil
}

func (h *Hub) removePicture(args []any) (map[string]any, error) {
	if h.readOnly {
		return errorPayload(errReadOnly), errReadOnly
	}
	if len(args) == 0 {
		err := fmt.Errorf("picture id is required")
		return errorPayload(err), err
	}

	id, err := parsePictureID(args[0])
	if err != nil {
		return errorPayload(err), err
	}

	h.store.Remove(id)
	return okPayload(), nil
}

func (h *Hub) clearGallery() (map[string]any, error) {
	if h.readOnly {
		return errorPayload(errReadOnly), errReadOnly
	}
	h.store.Clear()
	return okPayload(), nil
}

func (h *Hub) seedGallery() (map[string]any, error) {
	if h.readOnly {
		return errorPayload(errReadOnly), errReadOnly
	}
	h.store.Seed()
	return okPayload(), nil
}

// parsePictureID accepts the shapes a JSON decoded id can arrive in.
func parsePictureID(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("invalid picture id %v", v)
		}
		return int(v), nil
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("invalid picture id %q", v)
		}
		return id, nil
	}
	return 0, fmt.Errorf("invalid picture id %v", raw)
}

func picturePayload(p core.Picture) map[string]any {
	return map[string]any{
		"id":     p.ID,
		"author": p.Author,
		"url":    p.URL,
	}
}

func snapshotPayload(store core.PictureStore) map[string]any {
	version := store.Version()
	all := store.All()

	pictures := make([]any, 0, len(all))
	for _, p := range all {
		pictures = append(pictures, picturePayload(p))
	}
	return map[string]any{
		"version":  version,
		"pictures": pictures,
	}
}

func changePayload(change core.Change) map[string]any {
	payload := map[string]any{
		"id":      change.ID,
		"kind":    string(change.Kind),
		"version": change.Version,
		"at":      change.At.UnixMilli(),
	}
	if change.Picture != nil {
		payload["picture"] = picturePayload(*change.Picture)
	}
	return payload
}

func okPayload() map[string]any {
	return map[string]any{"status": "ok"}
}

func errorPayload(err error) map[string]any {
	return map[string]any{
		"status": "error",
		"error":  err.Error(),
	}
}
