package definition

// Location identifies the part of an HTTP message a value was read from.
type Location int

// Location constants. The numeric order is the component scan order used by
// the request validator.
const (
	LocationPath Location = iota
	LocationQuery
	LocationHeader
	LocationCookie
	LocationBody
)

// ParameterLocations lists the locations a parameter can be declared in,
// in component scan order.
var ParameterLocations = []Location{LocationPath, LocationQuery, LocationHeader, LocationCookie}

// String returns the OpenAPI spelling of the location.
func (l Location) String() string {
	switch l {
	case LocationPath:
		return "path"
	case LocationQuery:
		return "query"
	case LocationHeader:
		return "header"
	case LocationCookie:
		return "cookie"
	case LocationBody:
		return "body"
	default:
		return "unknown"
	}
}

// ParseLocation converts a parameter "in" value to a Location.
// Only the four OpenAPI 3.x parameter locations are accepted.
func ParseLocation(in string) (Location, bool) {
	switch in {
	case "path":
		return LocationPath, true
	case "query":
		return LocationQuery, true
	case "header":
		return LocationHeader, true
	case "cookie":
		return LocationCookie, true
	default:
		return 0, false
	}
}
