// Package geo merges hazard scores into a GeoJSON exposure FeatureCollection.
package geo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mres-project/mres/core/agg"
	"github.com/mres-project/mres/schema"
	"github.com/paulmach/orb/geojson"
)

// ErrNoFeatures is returned when an exposure document holds no features.
var ErrNoFeatures = errors.New("exposure has no features")

// CanonicalID converts a feature identifier to the key used by score maps.
// Integral JSON numbers and decimal strings become the decimal integer; other strings
// are trimmed. The second return is false when the feature cannot be joined.
func CanonicalID(id any) (string, bool) {
	switch v := id.(type) {
	case nil:
		return "", false
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			return "", false
		}
		return strconv.FormatInt(int64(v), 10), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return "", false
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return strconv.FormatInt(n, 10), true
		}
		return s, true
	default:
		return "", false
	}
}

// Exposure is a GeoJSON FeatureCollection kept so that saving it reproduces every
// member a merge does not write. Identifiers are read through orb/geojson; geometry,
// foreign members and the properties of untouched features stay raw JSON.
type Exposure struct {
	Features []*Feature
	members  map[string]json.RawMessage
}

// Feature is one feature of an exposure document. Property numbers are decoded as
// json.Number so large integers survive a save unchanged.
type Feature struct {
	ID         any
	Properties map[string]any
	members    map[string]json.RawMessage
	dirty      bool
}

// Set writes one property and marks the feature for re-encoding.
func (f *Feature) Set(key string, value any) {
	if f.Properties == nil {
		f.Properties = map[string]any{}
	}
	f.Properties[key] = value
	f.dirty = true
}

// MarshalJSON encodes the feature from its raw members, re-encoding the
// properties only when they were changed.
func (f *Feature) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(f.members)+3)
	for k, v := range f.members {
		out[k] = v
	}
	if _, ok := out["type"]; !ok {
		out["type"] = json.RawMessage(`"Feature"`)
	}
	if _, ok := out["id"]; !ok && f.ID != nil {
		id, err := json.Marshal(f.ID)
		if err != nil {
			return nil, err
		}
		out["id"] = id
	}
	if _, ok := out["geometry"]; !ok {
		out["geometry"] = json.RawMessage(`null`)
	}
	if f.dirty || out["properties"] == nil {
		props, err := json.Marshal(f.Properties)
		if err != nil {
			return nil, fmt.Errorf("feature %v properties: %w", f.ID, err)
		}
		out["properties"] = props
	}
	return json.Marshal(out)
}

// ParseExposure decodes a FeatureCollection document.
func ParseExposure(data []byte) (*Exposure, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	var rawFeatures []map[string]json.RawMessage
	if raw := members["features"]; len(raw) > 0 {
		if err := json.Unmarshal(raw, &rawFeatures); err != nil {
			return nil, fmt.Errorf("features: %w", err)
		}
	}
	if len(rawFeatures) != len(fc.Features) {
		return nil, fmt.Errorf("features: decoded %d of %d", len(fc.Features), len(rawFeatures))
	}
	delete(members, "features")

	exp := &Exposure{Features: make([]*Feature, len(rawFeatures)), members: members}
	for i, raw := range rawFeatures {
		if raw == nil || fc.Features[i] == nil {
			continue
		}
		props, err := decodeProperties(raw["properties"])
		if err != nil {
			return nil, fmt.Errorf("feature %d properties: %w", i, err)
		}
		exp.Features[i] = &Feature{ID: fc.Features[i].ID, Properties: props, members: raw}
	}
	return exp, nil
}

// MarshalJSON encodes the collection with its top-level members preserved.
func (e *Exposure) MarshalJSON() ([]byte, error) {
	features, err := json.Marshal(e.Features)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(e.members)+2)
	for k, v := range e.members {
		out[k] = v
	}
	out["type"] = json.RawMessage(`"FeatureCollection"`)
	out["features"] = features
	return json.Marshal(out)
}

func decodeProperties(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var props map[string]any
	if err := dec.Decode(&props); err != nil {
		return nil, err
	}
	return props, nil
}

// Merge writes scores onto every feature whose identifier has an entry, under the
// property "<hazard>_rrl", and returns the number of modified features.
// A zero score is a real entry. Features without an entry are left untouched.
func Merge(exp *Exposure, h schema.Hazard, scores agg.ScoreMap) int {
	if exp == nil {
		return 0
	}
	key := h.PropertyKey()
	modified := 0
	for _, f := range exp.Features {
		if f == nil {
			continue
		}
		id, ok := CanonicalID(f.ID)
		if !ok {
			continue
		}
		score, ok := scores[id]
		if !ok {
			continue
		}
		f.Set(key, score)
		modified++
	}
	return modified
}

// FeatureIDs returns the canonical identifiers of the collection in document order.
// Features without a usable identifier are skipped.
func FeatureIDs(exp *Exposure) []string {
	ids := make([]string, 0, len(exp.Features))
	for _, f := range exp.Features {
		if f == nil {
			continue
		}
		if id, ok := CanonicalID(f.ID); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// LoadExposure reads a FeatureCollection from path.
func LoadExposure(path string) (*Exposure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read exposure %s: %w", path, err)
	}
	exp, err := ParseExposure(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse exposure %s: %w", path, err)
	}
	if len(exp.Features) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoFeatures)
	}
	return exp, nil
}

// SaveExposure writes exp to path through a temporary file in the same directory,
// so readers never observe a partial document.
func SaveExposure(path string, exp *Exposure) error {
	data, err := exp.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode exposure: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".exposure-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write exposure: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to write exposure: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
