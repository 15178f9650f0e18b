// Package discovery locates the exposure document and indicator tables of a working directory.
package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mres-project/mres/schema"
)

// Kind distinguishes why discovery failed.
type Kind int

// Discovery failure kinds.
const (
	NotFound Kind = iota
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// ExposureNames are the accepted exposure file names.
var ExposureNames = []string{"exposure.json", "exposure.geojson"}

// DiscoveryError reports that no file or more than one candidate file matched.
type DiscoveryError struct {
	Kind       Kind
	Dir        string
	What       string   // "exposure" or "<hazard> indicators"
	Candidates []string // matched paths for Ambiguous
}

func (e *DiscoveryError) Error() string {
	if e.Kind == Ambiguous {
		return fmt.Sprintf("%s file is ambiguous in %s: %s", e.What, e.Dir, strings.Join(e.Candidates, ", "))
	}
	return fmt.Sprintf("%s file not found in %s", e.What, e.Dir)
}

// IsNotFound reports whether err is a DiscoveryError of kind NotFound.
func IsNotFound(err error) bool {
	var discErr *DiscoveryError
	return errors.As(err, &discErr) && discErr.Kind == NotFound
}

// FindExposure returns the single exposure document of dir.
func FindExposure(dir string) (string, error) {
	return find(dir, "exposure", ExposureNames)
}

// FindIndicators returns the single indicator table of a hazard in dir.
func FindIndicators(dir string, h schema.Hazard) (string, error) {
	return find(dir, string(h)+" indicators", []string{h.IndicatorsFile()})
}

// find matches directory entries against names, ignoring case.
func find(dir, what string, names []string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		for _, name := range names {
			if strings.EqualFold(entry.Name(), name) {
				candidates = append(candidates, filepath.Join(dir, entry.Name()))
				break
			}
		}
	}

	switch len(candidates) {
	case 0:
		return "", &DiscoveryError{Kind: NotFound, Dir: dir, What: what}
	case 1:
		return candidates[0], nil
	default:
		sort.Strings(candidates)
		return "", &DiscoveryError{Kind: Ambiguous, Dir: dir, What: what, Candidates: candidates}
	}
}
