// Package config defines the service's tunable economic and operational
// parameters. Config is loaded once at startup, hot-replaced by an admin
// write, and persisted atomically by internal/persistence.
package config

// Config holds every tunable parameter of the pricing engine. All floats are
// finite unless otherwise noted. Field names use the wire's camelCase via
// the json tag; gob encoding ignores tags and is stable within one binary.
type Config struct {
	Port          uint16 `json:"port"`
	IsOnlineMode  bool   `json:"isOnlineMode"`
	ConfigVersion uint32 `json:"configVersion"`

	BaseEnvIndex float64 `json:"basEnvIndex"`
	NoiseStd     float64 `json:"noiseStd"`

	WeekendFactor        float64 `json:"weekendFactor"`
	HolidayFactor        float64 `json:"holidayFactor"`
	PublicHolidayFactor  float64 `json:"publicHolidayFactor"`

	BuyPremium float64 `json:"buyPremium"`

	RecoveryDelta float64 `json:"recoveryDelta"`
	RecoveryTau   float64 `json:"recoveryTau"`

	GlobalIota float64 `json:"globalIota"`

	WinterStart string `json:"winterStart"`
	WinterEnd   string `json:"winterEnd"`
	SummerStart string `json:"summerStart"`
	SummerEnd   string `json:"summerEnd"`

	// IdentityVerifyURL and HolidayAPIURL address the external collaborators.
	// Empty means "not configured": identity checks fall back to the offline
	// length check, holiday fetches return no data.
	IdentityVerifyURL string `json:"identityVerifyURL"`
	HolidayAPIURL     string `json:"holidayAPIURL"`
}

const (
	defaultPort          = 9981
	currentConfigVersion = 1
)

// Default returns a Config with the source project's production defaults.
func Default() *Config {
	return &Config{
		Port:                defaultPort,
		IsOnlineMode:        false,
		ConfigVersion:       currentConfigVersion,
		BaseEnvIndex:        1.0,
		NoiseStd:            0.025,
		WeekendFactor:       0.02,
		HolidayFactor:       0.15,
		PublicHolidayFactor: 0.10,
		BuyPremium:          1.25,
		RecoveryDelta:       0.05,
		RecoveryTau:         3600.0,
		GlobalIota:          0,
		WinterStart:         "01-15",
		WinterEnd:           "02-20",
		SummerStart:         "07-01",
		SummerEnd:           "08-31",
	}
}

// Sanitize clamps/repairs fields a hand-edited or corrupt config file might
// carry out of range, and backfills any field an older on-disk version left
// zeroed. It never fails; it only narrows towards Default().
func (c *Config) Sanitize() {
	def := Default()
	if c.Port == 0 {
		c.Port = def.Port
	}
	if c.NoiseStd < 0.0001 {
		c.NoiseStd = 0.0001
	}
	if c.BuyPremium <= 0 {
		c.BuyPremium = def.BuyPremium
	}
	if c.RecoveryTau <= 0 {
		c.RecoveryTau = def.RecoveryTau
	}
	if c.RecoveryDelta < 0 {
		c.RecoveryDelta = 0
	}
	if c.WeekendFactor < 0 {
		c.WeekendFactor = 0
	}
	if c.HolidayFactor < 0 {
		c.HolidayFactor = 0
	}
	if c.PublicHolidayFactor < 0 {
		c.PublicHolidayFactor = 0
	}
	if c.WinterStart == "" {
		c.WinterStart = def.WinterStart
	}
	if c.WinterEnd == "" {
		c.WinterEnd = def.WinterEnd
	}
	if c.SummerStart == "" {
		c.SummerStart = def.SummerStart
	}
	if c.SummerEnd == "" {
		c.SummerEnd = def.SummerEnd
	}
	if c.ConfigVersion == 0 {
		c.ConfigVersion = currentConfigVersion
	}
}

// Clone returns a deep copy; Config has no reference fields so a value copy
// suffices, but the method exists so callers never need to know that.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
