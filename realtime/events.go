package realtime

// Wire event names. Client-to-server events carry a deviceIds list; every
// server-to-client event is an Envelope with one of these names.
const (
	EventReady             = "socket:ready"
	EventSubscribe         = "tracking:subscribe"
	EventUnsubscribe       = "tracking:unsubscribe"
	EventSubscribed        = "tracking:subscribed"
	EventUnsubscribed      = "tracking:unsubscribed"
	EventLocationUpdated   = "location:updated"
	EventActivityLocation  = "activity:location"
	EventDeviceStatus      = "device:status"
	EventAdminLocation     = "admin:location"
	EventAdminDeviceStatus = "admin:device-status"
	EventConnections       = "system:connections"
)

// Envelope is one server-to-client frame.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type readyData struct {
	ConnectedAt string `json:"connectedAt"`
	UserID      string `json:"userId"`
}

type deviceIDsData struct {
	DeviceIDs []string `json:"deviceIds"`
}

type connectionsData struct {
	Count int `json:"count"`
}

const adminTopic = "admins"

func deviceTopic(deviceID string) string { return "device:" + deviceID }
func userTopic(userID string) string     { return "user:" + userID }
