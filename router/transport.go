package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"golang.org/x/net/websocket"
)

// Handler returns the websocket endpoint. Only GET upgrades are accepted.
func (r *Router) Handler() http.Handler {
	ws := websocket.Handler(func(conn *websocket.Conn) {
		r.serveWS(conn)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ws.ServeHTTP(w, req)
	})
}

func (r *Router) serveWS(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	ctx := context.Background()
	if req := conn.Request(); req != nil {
		ctx = req.Context()
	}
	r.Serve(ctx, conn)
}

// Serve reads frames from rw until it closes or sends too many malformed
// frames in a row, then disconnects it.
func (r *Router) Serve(ctx context.Context, rw io.ReadWriter) {
	c := NewConn(rw)
	decoder := json.NewDecoder(rw)

	r.logger.Debug("connection opened", "conn_id", c.id)
	defer func() {
		r.Disconnect(context.WithoutCancel(ctx), c)
		r.logger.Debug("connection closed", "conn_id", c.id)
	}()

	decodeErrors := 0
	for {
		var f Frame
		if err := decoder.Decode(&f); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || ctx.Err() != nil {
				return
			}
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr) {
				return
			}
			decodeErrors++
			r.writeError(c, "", CodeInvalidArgument, "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			// A syntax error leaves the decoder unusable.
			if syntaxErr != nil {
				decoder = json.NewDecoder(rw)
			}
			continue
		}
		decodeErrors = 0

		if len(f.Payload) > maxFramePayloadBytes {
			r.writeError(c, f.RequestID, CodeInvalidArgument, "payload too large")
			continue
		}

		r.HandleFrame(ctx, c, f)
	}
}
