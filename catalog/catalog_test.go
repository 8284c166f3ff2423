package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	require.Len(t, c.Merchants, 23)
	require.Equal(t, "AliExpress", c.Merchants[0].Name)
}

func TestDefaultCatalogWidiloSlugOverride(t *testing.T) {
	c := Default().Filter([]string{"booking"})
	require.Len(t, c.Merchants, 1)

	m := c.Merchants[0]
	require.Equal(t, "booking", m.SlugFor("poulpeo"))
	require.Equal(t, "booking-com", m.SlugFor("widilo"))
	require.Equal(t, 972, m.EBuyClub)
}

func TestFilterKeepsCatalogOrder(t *testing.T) {
	c := Default().Filter([]string{"IKEA", "fnac", "unknown"})
	require.Len(t, c.Merchants, 2)
	require.Equal(t, "Fnac", c.Merchants[0].Name)
	require.Equal(t, "IKEA", c.Merchants[1].Name)
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.Len(t, c.Merchants, 23)
}

func TestLoadMergesLocalOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json5")

	base := `{
		// trailing commas and comments are fine in json5
		merchants: [
			{name: "Fnac", slug: "fnac", ebuyclub_id: 58, category: "High-Tech", icon: "📀"},
		],
		policy: {max_cashback_rate: 20},
	}`
	local := `{policy: {max_cashback_rate: 15, max_voucher_rate: 30}}`

	require.NoError(t, os.WriteFile(path, []byte(base), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.local.json5"), []byte(local), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Merchants, 1)
	require.Equal(t, 58, c.Merchants[0].EBuyClub)
	require.Equal(t, 15.0, c.Policy.MaxCashbackRate)
	require.Equal(t, 30.0, c.Policy.MaxVoucherRate)
}

func TestLoadRejectsInvalidCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{merchants: [{name: "NoSlug"}]}`), 0o644))

	_, err := Load(path)
	require.ErrorContains(t, err, "no slug")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json5"))
	require.Error(t, err)
}

func TestSuggest(t *testing.T) {
	c := Default()

	got, ok := c.Suggest("Darti")
	require.True(t, ok)
	require.Equal(t, "Darty", got)

	got, ok = c.Suggest("sefora")
	require.True(t, ok)
	require.Equal(t, "Sephora", got)

	_, ok = c.Suggest("qqqq")
	require.False(t, ok)
}
