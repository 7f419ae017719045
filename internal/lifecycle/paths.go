package lifecycle

import "path/filepath"

// Paths names the five persisted files this service keeps, all rooted at
// one data directory.
type Paths struct {
	ConfigPath     string
	HistoryLogPath string
	PlayerDataPath string
	MarketDataPath string
	EnvDataPath    string
}

// NewPaths builds the standard file layout under dataDir.
func NewPaths(dataDir string) Paths {
	return Paths{
		ConfigPath:     filepath.Join(dataDir, "config.bin"),
		HistoryLogPath: filepath.Join(dataDir, "history.bin"),
		PlayerDataPath: filepath.Join(dataDir, "player_data.bin"),
		MarketDataPath: filepath.Join(dataDir, "market_data.bin"),
		EnvDataPath:    filepath.Join(dataDir, "env_data.bin"),
	}
}
