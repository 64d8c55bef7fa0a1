package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	require.NoError(t, cmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func TestMigrateSeedThenPrice(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("APP_ENV", "test")

	out := runCLI(t, "migrate", "--seed")
	assert.Contains(t, out, "schema version 2")
	assert.Contains(t, out, "seed inserted 6 rows")

	out = runCLI(t, "migrate", "--seed")
	assert.Contains(t, out, "seed inserted 0 rows")

	out = runCLI(t, "price", "--filament-id", "1", "--grams", "100", "--hours", "2")
	assert.Equal(t, []string{"4.00", "EUR"}, lineValues(t, out, "build price"))
	assert.Equal(t, []string{"6.00", "EUR"}, lineValues(t, out, "final price"))

	out = runCLI(t, "price", "--hours", "2", "--hourly-rate", "0", "--margin", "0", "--kw", "4")
	assert.Equal(t, []string{"0.00", "EUR"}, lineValues(t, out, "labor"))
	assert.Equal(t, []string{"1.00", "EUR"}, lineValues(t, out, "final price"))
}

func TestPriceUnknownFilament(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("LOG_LEVEL", "error")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"price", "--filament-id", "9"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filament 9 does not exist")
}

// lineValues returns the fields after label on the line that starts with it.
func lineValues(t *testing.T, out, label string) []string {
	t.Helper()

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, label+" ") {
			return strings.Fields(strings.TrimPrefix(line, label))
		}
	}
	t.Fatalf("no %q line in output:\n%s", label, out)
	return nil
}
