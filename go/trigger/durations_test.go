package trigger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDurationLogAppendsPerOrigin(t *testing.T) {
	var dir = t.TempDir()
	var durations, err = NewDurationLog(filepath.Join(dir, "durations"))
	require.NoError(t, err)

	require.NoError(t, durations.Append("extractor", "2025-01-01", "extractor_completed", 12.5))
	require.NoError(t, durations.Append("extractor", "2025-01-02", "extractor_completed", 3))
	require.NoError(t, durations.Append("cleaner", "2025-01-01", "cleaner_completed", 0.25))

	var data, readErr = os.ReadFile(filepath.Join(dir, "durations", "duration_extractor.log"))
	require.NoError(t, readErr)
	require.Equal(t,
		"2025-01-01,extractor_completed,12.500\n2025-01-02,extractor_completed,3.000\n",
		string(data))

	data, readErr = os.ReadFile(filepath.Join(dir, "durations", "duration_cleaner.log"))
	require.NoError(t, readErr)
	require.Equal(t, "2025-01-01,cleaner_completed,0.250\n", string(data))
}
