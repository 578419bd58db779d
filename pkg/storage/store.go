package storage

import (
	"errors"

	"github.com/Qetrox/esp32-gps-follower/pkg/types"
)

// ErrNotFound is returned when a document has never been written. Callers use
// it to distinguish "no data yet" from an empty or all-null document.
var ErrNotFound = errors.New("document not found")

// Store is the JSON document store behind both the server and the tracker's
// local credential cache. Every document is read and overwritten wholesale;
// there are no partial updates anywhere.
type Store interface {
	// Latest fix (server side)
	PutFix(fix *types.Fix) error
	GetFix() (*types.Fix, error)

	// WiFi credential list (server's source of truth, tracker's local copy)
	PutNetworks(networks []types.WifiNetwork) error
	GetNetworks() ([]types.WifiNetwork, error)

	// Opaque pass-through documents for the web client
	PutPOIs(pois types.POIList) error
	GetPOIs() (types.POIList, error)
	PutUIConfig(cfg types.UIConfig) error
	GetUIConfig() (types.UIConfig, error)

	Close() error
}
