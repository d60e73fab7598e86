package common

// JSON-RPC methods served by the daemon.
const (
	MethodGetVersion        = "system.getVersion"
	MethodStatus            = "status.get"
	MethodTriggerUpdate     = "update.trigger"
	MethodSetRegion         = "settings.setRegion"
	MethodSetInterval       = "settings.setInterval"
	MethodSearchDestination = "destination.search"
	MethodSetDestination    = "destination.set"
	MethodClearDestination  = "destination.clear"
)

// Push notifications sent over the WebSocket endpoint.
const (
	NotifyUpdaterState    = "updater.state"
	NotifySearchState     = "search.state"
	NotifySettingsChanged = "settings.changed"
	NotifySchedulerTick   = "scheduler.tick"
)

const (
	RPCPath   = "/jsonrpc"
	RPCWSPath = "/jsonrpc/ws"
)

// JSON-RPC error codes returned by the daemon.
const (
	CodeBusy          = -32001
	CodeNotConfigured = -32002
	CodeNotFound      = -32003
	CodeInvalidParams = -32602
)
