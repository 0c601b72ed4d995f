package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverridesProviderLoadsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scp_weekly_amount: 30\n"), 0o644))

	p, err := NewOverridesProvider(path, slog.Default())
	require.NoError(t, err)
	defer p.Close()

	current := p.Current()
	require.NotNil(t, current.SCPWeeklyAmount)
	assert.InDelta(t, 30, *current.SCPWeeklyAmount, 1e-9)

	ch := p.Subscribe()
	first := <-ch
	require.NotNil(t, first.SCPWeeklyAmount)
	assert.InDelta(t, 30, *first.SCPWeeklyAmount, 1e-9)

	raw := "scp_weekly_amount: 32.5\nband_j_surcharge: 10000\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	require.Eventually(t, func() bool {
		c := p.Current()
		return c.SCPWeeklyAmount != nil && *c.SCPWeeklyAmount == 32.5
	}, 5*time.Second, 20*time.Millisecond)

	c := p.Current()
	require.NotNil(t, c.BandJSurcharge)
	assert.InDelta(t, 10000, *c.BandJSurcharge, 1e-9)

	select {
	case next := <-ch:
		require.NotNil(t, next.SCPWeeklyAmount)
		assert.InDelta(t, 32.5, *next.SCPWeeklyAmount, 1e-9)
	case <-time.After(5 * time.Second):
		t.Fatal("no update delivered to subscriber")
	}
}

func TestOverridesProviderKeepsLastGoodSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("band_i_surcharge: 2500\n"), 0o644))

	p, err := NewOverridesProvider(path, slog.Default())
	require.NoError(t, err)
	defer p.Close()

	lastGood := func() float64 {
		c := p.Current()
		require.NotNil(t, c.BandISurcharge)
		return *c.BandISurcharge
	}
	require.InDelta(t, 2500, lastGood(), 1e-9)

	// Invalid value: reload is rejected.
	require.NoError(t, os.WriteFile(path, []byte("band_i_surcharge: -4\n"), 0o644))
	time.Sleep(400 * time.Millisecond)
	assert.InDelta(t, 2500, lastGood(), 1e-9)

	// Broken YAML: reload is rejected.
	require.NoError(t, os.WriteFile(path, []byte("band_i_surcharge: ["), 0o644))
	time.Sleep(400 * time.Millisecond)
	assert.InDelta(t, 2500, lastGood(), 1e-9)

	// A good edit still lands afterwards.
	require.NoError(t, os.WriteFile(path, []byte("band_i_surcharge: 3000\n"), 0o644))
	require.Eventually(t, func() bool {
		c := p.Current()
		return c.BandISurcharge != nil && *c.BandISurcharge == 3000
	}, 5*time.Second, 20*time.Millisecond)
}

func TestOverridesProviderMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")

	p, err := NewOverridesProvider(path, slog.Default())
	require.NoError(t, err)
	defer p.Close()

	assert.Nil(t, p.Current().SCPWeeklyAmount)

	// The file appearing later is picked up via the directory watch.
	require.NoError(t, os.WriteFile(path, []byte("scp_premium_in_effect: true\n"), 0o644))
	require.Eventually(t, func() bool {
		c := p.Current()
		return c.SCPPremiumInEffect != nil && *c.SCPPremiumInEffect
	}, 5*time.Second, 20*time.Millisecond)
}

func TestOverridesProviderIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scp_weekly_amount: 30\n"), 0o644))

	p, err := NewOverridesProvider(path, slog.Default())
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.yaml"), []byte("scp_weekly_amount: 99\n"), 0o644))
	time.Sleep(400 * time.Millisecond)

	c := p.Current()
	require.NotNil(t, c.SCPWeeklyAmount)
	assert.InDelta(t, 30, *c.SCPWeeklyAmount, 1e-9)
}
