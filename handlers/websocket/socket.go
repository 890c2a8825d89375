package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cardstudio/editor"
	"cardstudio/generation"
	"cardstudio/interaction"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/engine.io/v2/utils"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

// maxMessageBytes bounds one socket.io message, matching the REST body limit.
const maxMessageBytes = 10 << 20

type joinMessage struct {
	CardID string `json:"cardId"`
}

type removeMessage struct {
	ID string `json:"id"`
}

type generateMessage struct {
	Kind string `json:"kind"`
}

func cardRoom(id string) socketio.Room {
	return socketio.Room("card:" + id)
}

// SetupSocketIO returns the socket.io server for live editing.
func SetupSocketIO(hub *editor.Hub, d *generation.Dispatcher) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(maxMessageBytes)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}
		me := socket.Id()
		log := logrus.WithField("socket_id", me)
		sess := NewSession(hub, d, socket, log)
		pointer := socketPointer{socket: socket}

		//nolint:errcheck
		socket.On("join-card", func(datas ...any) {
			ack, args := extractAck(datas)
			var msg joinMessage
			if err := decodeArgs(args, &msg); err != nil {
				respondWithAck(socket, ack, "join-card-ack", errorPayload(err))
				return
			}

			previous := sess.CardID()
			card, err := sess.Join(context.Background(), msg.CardID)
			if err != nil {
				respondWithAck(socket, ack, "join-card-ack", errorPayload(err))
				return
			}
			pointer.Detach()
			if previous != "" && previous != card.ID {
				socket.Leave(cardRoom(previous))
				announcePresence(srv, cardRoom(previous), me)
			}
			room := cardRoom(card.ID)
			socket.Join(room)
			announcePresence(srv, room, "")

			respondWithAck(socket, ack, "join-card-ack", map[string]any{
				"status": "ok",
				"card":   card,
				"busy":   sess.Busy(),
			})
		})

		//nolint:errcheck
		socket.On("pointer-down", func(datas ...any) {
			ack, args := extractAck(datas)
			var msg PointerDown
			if err := decodeArgs(args, &msg); err != nil {
				respondWithAck(socket, ack, "", errorPayload(err))
				return
			}

			started, err := pointerDown(pointer, sess, msg, log)
			if errors.Is(err, interaction.ErrSessionActive) {
				log.Debug("Pointer down ignored during active interaction")
				respondWithAck(socket, ack, "", map[string]any{"status": "ignored"})
				return
			}
			if err != nil {
				respondWithAck(socket, ack, "", errorPayload(err))
				return
			}
			respondWithAck(socket, ack, "", map[string]any{
				"status":  "ok",
				"session": started,
			})
		})

		//nolint:errcheck
		socket.On("background-down", func(...any) {
			sess.BackgroundDown()
		})

		//nolint:errcheck
		socket.On("remove-decoration", func(datas ...any) {
			ack, args := extractAck(datas)
			var msg removeMessage
			err := decodeArgs(args, &msg)
			if err == nil {
				err = sess.RemoveDecoration(msg.ID)
			}
			if err != nil {
				respondWithAck(socket, ack, "", errorPayload(err))
				return
			}
			respondWithAck(socket, ack, "", map[string]any{"status": "ok"})
		})

		//nolint:errcheck
		socket.On("generate", func(datas ...any) {
			ack, args := extractAck(datas)
			var msg generateMessage
			err := decodeArgs(args, &msg)
			if err == nil {
				err = sess.Generate(context.Background(), msg.Kind, nil)
			}
			if err != nil {
				respondWithAck(socket, ack, "", errorPayload(err))
				return
			}
			respondWithAck(socket, ack, "", map[string]any{
				"status": "pending",
				"busy":   sess.Busy(),
			})
		})

		//nolint:errcheck
		socket.On("disconnecting", func(...any) {
			for _, room := range socket.Rooms().Keys() {
				if room == socketio.Room(me) {
					continue
				}
				announcePresence(srv, room, me)
			}
		})

		//nolint:errcheck
		socket.On("disconnect", func(...any) {
			sess.Leave(context.Background())
			socket.RemoveAllListeners("")
			socket.Disconnect(true)
		})
	})

	return srv
}

// pointerEvents is the part of a socket that carries one manipulation's
// move and up events.
type pointerEvents interface {
	OnMove(fn func(...any))
	OnEnd(fn func(...any))
	Detach()
}

type socketPointer struct {
	socket *socketio.Socket
}

//nolint:errcheck
func (p socketPointer) OnMove(fn func(...any)) { p.socket.On("pointer-move", fn) }

//nolint:errcheck
func (p socketPointer) OnEnd(fn func(...any)) {
	p.socket.On("pointer-up", fn)
	p.socket.On("pointer-cancel", fn)
}

func (p socketPointer) Detach() {
	p.socket.RemoveAllListeners("pointer-move")
	p.socket.RemoveAllListeners("pointer-up")
	p.socket.RemoveAllListeners("pointer-cancel")
}

// pointerDown starts a manipulation and, if it started, subscribes to its
// move and up events until the pointer is released.
func pointerDown(ev pointerEvents, sess *Session, msg PointerDown, log *logrus.Entry) (interaction.Session, error) {
	started, err := sess.PointerDown(msg)
	if err != nil {
		return started, err
	}

	ev.Detach()
	ev.OnMove(func(datas ...any) {
		_, args := extractAck(datas)
		var p interaction.Point
		if err := decodeArgs(args, &p); err != nil {
			log.WithError(err).Debug("Malformed pointer move")
			return
		}
		sess.PointerMove(p)
	})
	ev.OnEnd(func(...any) {
		sess.PointerUp()
		ev.Detach()
	})
	return started, nil
}

// announcePresence tells everyone in room who is still there. leaving is
// excluded from the list.
func announcePresence(srv *socketio.Server, room socketio.Room, leaving socketio.SocketId) {
	srv.In(room).FetchSockets()(func(users []*socketio.RemoteSocket, err error) {
		if err != nil {
			utils.Log().Printf("fetch sockets in %v: %v\n", room, err)
			return
		}
		ids := make([]socketio.SocketId, 0, len(users))
		for _, user := range users {
			if user.Id() != leaving {
				ids = append(ids, user.Id())
			}
		}
		if len(ids) == 0 {
			return
		}
		utils.Log().Printf("room %v has users %v\n", room, ids)
		_ = srv.In(room).Emit("room-user-change", ids)
	})
}

// decodeArgs converts the first event argument into v.
func decodeArgs(args []any, v any) error {
	if len(args) == 0 {
		return fmt.Errorf("missing payload")
	}
	raw, err := json.Marshal(args[0])
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func errorPayload(err error) map[string]any {
	return map[string]any{
		"status": "error",
		"error":  err.Error(),
	}
}
