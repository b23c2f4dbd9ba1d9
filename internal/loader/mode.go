// Package loader selects among the three map input sources and produces
// the in-memory submap collection.
package loader

import (
	"fmt"
)

// Mode identifies which ingestion strategy is active. Exactly one mode is
// resolved from the CLI flags at startup.
type Mode int

const (
	// ModeCereal reads a submap collection archive located beside the
	// configured slam file. The default when neither flag is "yes".
	ModeCereal Mode = iota

	// ModeDirectory reads per-submap PCD files from a folder of
	// simulation output.
	ModeDirectory

	// ModeLegacy re-parses the original single-trajectory format into
	// one submap.
	ModeLegacy
)

func (m Mode) String() string {
	switch m {
	case ModeCereal:
		return "cereal"
	case ModeDirectory:
		return "directory"
	case ModeLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Config is the resolved, immutable input configuration.
type Config struct {
	Mode       Mode
	FolderPath string // submap folder, directory mode
	SlamPath   string // slam archive path, legacy and cereal modes
}

// Resolve turns the two yes/no selector flags into a single mode and
// validates that the path the mode needs was provided. Both flags set to
// "yes" is ambiguous and refused rather than silently preferring one
// branch.
func Resolve(simulation, original, folderPath, slamPath string) (Config, error) {
	sim := simulation == "yes"
	orig := original == "yes"

	if sim && orig {
		return Config{}, fmt.Errorf("flags -simulation=yes and -original=yes are mutually exclusive")
	}

	switch {
	case sim:
		if folderPath == "" {
			return Config{}, fmt.Errorf("simulation mode requires -covs-folder")
		}
		return Config{Mode: ModeDirectory, FolderPath: folderPath}, nil
	case orig:
		if slamPath == "" {
			return Config{}, fmt.Errorf("original mode requires -slam-cereal")
		}
		return Config{Mode: ModeLegacy, SlamPath: slamPath}, nil
	default:
		if slamPath == "" {
			return Config{}, fmt.Errorf("cereal mode requires -slam-cereal")
		}
		return Config{Mode: ModeCereal, SlamPath: slamPath}, nil
	}
}
