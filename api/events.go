package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// handleGetEvents streams manager events. An attached client holds off the
// reconnect round so the access point it may be using stays up.
func (a *Api) handleGetEvents() http.HandlerFunc {
	upgrader := &websocket.Upgrader{}

	return func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			a.log.Errorf("Could not upgrade events connection: %v", err)
			return
		}

		release, err := a.device.Hold()
		if err != nil {
			_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()))
			_ = c.Close()
			return
		}

		client := a.device.SubscribeEvents()
		closed := make(chan struct{})

		a.log.Infof("Events client %d attached", client.Id)

		// read pump
		go func() {
			defer close(closed)

			c.SetReadLimit(512)
			_ = c.SetReadDeadline(time.Now().Add(pongWait))
			c.SetPongHandler(func(string) error {
				return c.SetReadDeadline(time.Now().Add(pongWait))
			})

			for {
				_, _, err := c.ReadMessage()
				if err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						a.log.Warnf("Unexpected websocket closure: %v", err)
					}
					return
				}
			}
		}()

		// write pump
		go func() {
			defer func() {
				client.Cancel()
				release()
				_ = c.Close()

				a.log.Infof("Events client %d detached", client.Id)
			}()

			ticker := time.NewTicker(pingPeriod)
			defer ticker.Stop()

			for {
				select {
				case event := <-client.Events:
					_ = c.SetWriteDeadline(time.Now().Add(writeWait))

					if err := c.WriteJSON(&event); err != nil {
						return
					}

				case <-ticker.C:
					_ = c.SetWriteDeadline(time.Now().Add(writeWait))

					if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}

				case <-client.Done():
					_ = c.SetWriteDeadline(time.Now().Add(writeWait))
					_ = c.WriteMessage(websocket.CloseMessage, []byte{})
					return

				case <-closed:
					return
				}
			}
		}()
	}
}
