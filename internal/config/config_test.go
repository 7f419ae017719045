package config

import "testing"

func TestDefault_IsInternallyConsistent(t *testing.T) {
	c := Default()
	if c.Port == 0 {
		t.Fatal("default port must be non-zero")
	}
	if c.BuyPremium <= 0 {
		t.Fatal("default buy premium must be positive")
	}
	if c.RecoveryTau <= 0 {
		t.Fatal("default recovery tau must be positive")
	}
	if c.ConfigVersion == 0 {
		t.Fatal("default config version must be non-zero")
	}
}

func TestSanitize_BackfillsZeroedFields(t *testing.T) {
	c := &Config{}
	c.Sanitize()
	def := Default()

	if c.Port != def.Port {
		t.Errorf("Port = %d, want %d", c.Port, def.Port)
	}
	if c.BuyPremium != def.BuyPremium {
		t.Errorf("BuyPremium = %v, want %v", c.BuyPremium, def.BuyPremium)
	}
	if c.RecoveryTau != def.RecoveryTau {
		t.Errorf("RecoveryTau = %v, want %v", c.RecoveryTau, def.RecoveryTau)
	}
	if c.WinterStart != def.WinterStart || c.WinterEnd != def.WinterEnd {
		t.Errorf("winter window = %s..%s, want %s..%s", c.WinterStart, c.WinterEnd, def.WinterStart, def.WinterEnd)
	}
	if c.SummerStart != def.SummerStart || c.SummerEnd != def.SummerEnd {
		t.Errorf("summer window = %s..%s, want %s..%s", c.SummerStart, c.SummerEnd, def.SummerStart, def.SummerEnd)
	}
	if c.ConfigVersion != def.ConfigVersion {
		t.Errorf("ConfigVersion = %d, want %d", c.ConfigVersion, def.ConfigVersion)
	}
}

func TestSanitize_ClampsNegativeAndTinyValues(t *testing.T) {
	c := &Config{
		Port:                1234,
		NoiseStd:            -5,
		BuyPremium:          -1,
		RecoveryTau:         -1,
		RecoveryDelta:       -1,
		WeekendFactor:       -1,
		HolidayFactor:       -1,
		PublicHolidayFactor: -1,
		WinterStart:         "01-15",
		WinterEnd:           "02-20",
		SummerStart:         "07-01",
		SummerEnd:           "08-31",
		ConfigVersion:       7,
	}
	c.Sanitize()

	if c.Port != 1234 {
		t.Errorf("Sanitize must not touch a non-zero port, got %d", c.Port)
	}
	if c.NoiseStd < 0.0001 {
		t.Errorf("NoiseStd not clamped: %v", c.NoiseStd)
	}
	if c.BuyPremium != Default().BuyPremium {
		t.Errorf("negative BuyPremium not reset to default: %v", c.BuyPremium)
	}
	if c.RecoveryTau != Default().RecoveryTau {
		t.Errorf("negative RecoveryTau not reset to default: %v", c.RecoveryTau)
	}
	if c.RecoveryDelta != 0 {
		t.Errorf("negative RecoveryDelta not clamped to 0: %v", c.RecoveryDelta)
	}
	if c.WeekendFactor != 0 || c.HolidayFactor != 0 || c.PublicHolidayFactor != 0 {
		t.Errorf("negative seasonal factors not clamped to 0: %+v", c)
	}
	if c.ConfigVersion != 7 {
		t.Errorf("Sanitize must not touch a non-zero config version, got %d", c.ConfigVersion)
	}
}

func TestClone_IsIndependentCopy(t *testing.T) {
	c := Default()
	cp := c.Clone()
	cp.Port = 1
	cp.BuyPremium = 99

	if c.Port == cp.Port {
		t.Fatal("Clone must not alias the original's Port")
	}
	if c.BuyPremium == cp.BuyPremium {
		t.Fatal("Clone must not alias the original's BuyPremium")
	}
}
