package placelist

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soundtrail/soundtrail/internal/track"
)

// Two textual dialects exist for a placelist. The structured dialect is a YAML
// block sequence and is the only form the serializer emits. The legacy dialect
// alternates coordinate lines with track-reference lines and survives as a
// lenient fallback so the editor can re-parse half-typed input on every
// keystroke without surfacing errors.

// FormatError reports why structured-dialect parsing rejected its input.
// Index is the offending sequence element, or -1 for document-level problems.
type FormatError struct {
	Index  int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Index < 0 {
		return "placelist text: " + e.Reason
	}
	return fmt.Sprintf("placelist text: item %d: %s", e.Index, e.Reason)
}

// ParseText converts either dialect into waypoints. It tries the structured
// dialect first and falls back to the legacy parser on any structured failure.
// It never fails; unparseable input yields an empty list.
func ParseText(text string) []Waypoint {
	if ws, err := ParseStructured(text); err == nil {
		return ws
	}
	return ParseLegacy(text)
}

// ParseStructured parses the structured dialect: a sequence of mappings with a
// location (lat/lng), a trackReference, and an optional onlyDuring rule.
func ParseStructured(text string) ([]Waypoint, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &FormatError{Index: -1, Reason: "not well-formed: " + err.Error()}
	}
	if len(doc.Content) == 0 {
		return nil, &FormatError{Index: -1, Reason: "top-level value is not a sequence"}
	}

	root := doc.Content[0]
	if root.Kind != yaml.SequenceNode {
		return nil, &FormatError{Index: -1, Reason: "top-level value is not a sequence"}
	}

	waypoints := make([]Waypoint, 0, len(root.Content))
	for i, item := range root.Content {
		wp, err := parseStructuredItem(i, item)
		if err != nil {
			return nil, err
		}
		waypoints = append(waypoints, wp)
	}
	return waypoints, nil
}

func parseStructuredItem(index int, item *yaml.Node) (Waypoint, error) {
	if item.Kind != yaml.MappingNode {
		return Waypoint{}, &FormatError{Index: index, Reason: "element is not a mapping"}
	}

	location := mappingValue(item, "location")
	if location == nil || location.Kind != yaml.MappingNode {
		return Waypoint{}, &FormatError{Index: index, Reason: "location missing or not a mapping"}
	}

	lat, err := coordinate(location, "lat")
	if err != nil {
		return Waypoint{}, &FormatError{Index: index, Reason: err.Error()}
	}
	lng, err := coordinate(location, "lng")
	if err != nil {
		return Waypoint{}, &FormatError{Index: index, Reason: err.Error()}
	}

	ref := mappingValue(item, "trackReference")
	if ref == nil || ref.Kind != yaml.ScalarNode || ref.Tag != "!!str" {
		return Waypoint{}, &FormatError{Index: index, Reason: "trackReference missing or not a string"}
	}

	wp := Waypoint{
		Location:       LatLng{Lat: lat, Lng: lng},
		TrackReference: ref.Value,
	}

	if only := mappingValue(item, "onlyDuring"); isStringScalar(only) {
		wp.OnlyDuring = only.Value
	}

	return wp, nil
}

// mappingValue returns the value node for the given key, or nil.
func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// coordinate reads a lat/lng mapping entry. Numeric scalars and numeric
// strings both coerce; everything else is rejected.
func coordinate(location *yaml.Node, key string) (float64, error) {
	node := mappingValue(location, key)
	if node == nil || node.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("location.%s missing or not a number", key)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(node.Value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("location.%s is not a number", key)
	}
	return v, nil
}

// isStringScalar reports whether node is a non-empty string scalar. Used for
// onlyDuring, where empty and absent mean the same thing: always available.
func isStringScalar(node *yaml.Node) bool {
	return node != nil && node.Kind == yaml.ScalarNode && node.Tag == "!!str" && node.Value != ""
}

// coordLineRegex matches a legacy-dialect "lat,lng" line.
var coordLineRegex = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*$`)

// ParseLegacy parses the legacy line-pair dialect. A coordinate line is held
// pending until a track-reference line appears; blank lines and anything that
// matches neither pattern are skipped without error. This is deliberately a
// scavenger, not a validator.
func ParseLegacy(text string) []Waypoint {
	var waypoints []Waypoint
	var pending *LatLng

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := coordLineRegex.FindStringSubmatch(line); m != nil {
			lat, _ := strconv.ParseFloat(m[1], 64)
			lng, _ := strconv.ParseFloat(m[2], 64)
			pending = &LatLng{Lat: lat, Lng: lng}
			continue
		}

		if pending != nil && track.Contains(line) {
			waypoints = append(waypoints, Waypoint{
				Location:       *pending,
				TrackReference: strings.TrimSpace(line),
			})
			pending = nil
		}
	}

	return waypoints
}

// serialized mirrors the structured dialect's document shape.
type serialized struct {
	Location   serializedLocation `yaml:"location"`
	TrackRef   string             `yaml:"trackReference"`
	OnlyDuring string             `yaml:"onlyDuring,omitempty"`
}

type serializedLocation struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

// Serialize renders waypoints in the structured dialect. The output parses
// back to the same waypoints: coordinates keep full precision and onlyDuring
// is omitted when absent.
func Serialize(waypoints []Waypoint) string {
	docs := make([]serialized, 0, len(waypoints))
	for _, wp := range waypoints {
		docs = append(docs, serialized{
			Location:   serializedLocation{Lat: wp.Location.Lat, Lng: wp.Location.Lng},
			TrackRef:   wp.TrackReference,
			OnlyDuring: wp.OnlyDuring,
		})
	}

	out, err := yaml.Marshal(docs)
	if err != nil {
		// Marshalling plain structs of scalars cannot fail.
		return ""
	}
	return string(out)
}
