package scene

import "strings"

var (
	groundKeywords  = []string{"leg", "base", "stand", "foot", "support", "pedestal"}
	surfaceKeywords = []string{"top", "seat", "shelf", "base"}
	// Names carrying one of these are surfaces even when a ground keyword
	// also matches ("Seat_Base", "Shelf_Support").
	surfaceOnly = []string{"top", "seat", "shelf"}
)

func containsAny(name string, words []string) bool {
	name = strings.ToLower(name)
	for _, w := range words {
		if strings.Contains(name, w) {
			return true
		}
	}
	return false
}

// ConnectorPrefix starts the name of every connector the validator inserts.
// Connectors carry no role whatever the names they join.
const ConnectorPrefix = "Connector_"

// IsConnector reports whether name was generated for an inserted connector.
func IsConnector(name string) bool {
	return strings.HasPrefix(name, ConnectorPrefix)
}

// IsGroundContact reports whether the named component rests on the floor.
func IsGroundContact(name string) bool {
	if IsConnector(name) {
		return false
	}
	return containsAny(name, groundKeywords) && !containsAny(name, surfaceOnly)
}

// IsSupportedSurface reports whether the named component is carried by supports.
func IsSupportedSurface(name string) bool {
	if IsConnector(name) {
		return false
	}
	return containsAny(name, surfaceKeywords)
}

// IsBackOrArm reports whether the named component hangs off a seat's upper
// face rather than sitting beside it.
func IsBackOrArm(name string) bool {
	if IsConnector(name) {
		return false
	}
	return containsAny(name, []string{"back", "arm"})
}
