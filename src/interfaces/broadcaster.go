package interfaces

import "market-sync/src/models"

// -----------------------------------------------------------------------------
// IBroadcaster pushes ticker frames to live listeners (websocket hub).
// -----------------------------------------------------------------------------

type IBroadcaster interface {
	// -----------------------------------------------------------------------------
	// Broadcast queues a frame for every subscribed client.
	Broadcast(frame *models.MTickerFrame)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
