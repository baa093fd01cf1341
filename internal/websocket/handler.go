package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/minikapp/minik/internal/auth"
)

// Handler upgrades an authenticated request and runs it as a hub client
// scoped to the session's family.
func Handler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID := auth.FamilyID(r.Context())
		if familyID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // self-hosted, reached over the home LAN
		})
		if err != nil {
			slog.Error("websocket accept failed", "error", err)
			return
		}

		client := NewClient(hub, conn, familyID)
		client.Run(r.Context())
	}
}
