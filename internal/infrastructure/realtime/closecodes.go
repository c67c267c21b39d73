package realtime

import "github.com/gorilla/websocket"

// Close codes sent on the real-time channel.
const (
	CloseNormal       = websocket.CloseNormalClosure
	CloseShutdown     = websocket.CloseGoingAway
	CloseAbnormal     = websocket.CloseAbnormalClosure
	CloseNoToken      = 4001
	CloseAuthError    = 4002
	CloseTokenExpired = 4003
	CloseInvalidToken = 4004
	CloseUnknownUser  = 4005
)
