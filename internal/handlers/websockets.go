package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"snapserver/internal/logger"
	"snapserver/internal/services"
	"snapserver/internal/snapshot"
)

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// CameraWebsocketHandler ingests frames pushed by a camera over a websocket.
// Each binary message is one encoded frame; the capture time is the arrival
// clock reading unless the camera supplies its own per-connection offset.
func CameraWebsocketHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		camera := r.URL.Query().Get("id")
		if camera == "" {
			http.Error(w, "Missing camera id", http.StatusBadRequest)
			return
		}

		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		defer connection.Close()

		logger.Info("Camera connected: %s", camera)

		for {
			_, msg, err := connection.ReadMessage()
			if err != nil {
				logger.Info("Camera %s disconnected: %v", camera, err)
				break
			}
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))

			ts := snapshot.FromTime(time.Now().UTC())
			if err := manager.HandleSnapshot(msg, camera, ts); err != nil {
				logger.Error("Camera %s: snapshot rejected: %v", camera, err)
			}
		}
	}
}

// ViewWebsocketHandler registers a viewer client with the broadcast hub.
func ViewWebsocketHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		defer connection.Close()

		manager.GetHubService().Register(connection)
		defer manager.GetHubService().Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				break
			}
		}
	}
}
