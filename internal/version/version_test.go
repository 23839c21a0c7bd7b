package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDefaults tests the build information of a binary built without -ldflags.
func TestDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0.1.0", Short())
	assert.Equal(t, "version: 0.1.0, commit: none, built at: unknown", Full())
}

// TestLinkTimeOverrides tests that values injected at link time are reported.
//
//nolint:paralleltest // Overrides package variables.
func TestLinkTimeOverrides(t *testing.T) {
	tests := []struct {
		name          string
		version       string
		commit        string
		buildTime     string
		expectedShort string
		expectedFull  string
	}{
		{
			name:          "release build",
			version:       "1.2.3",
			commit:        "abc1234",
			buildTime:     "2026-10-19T10:00:00Z",
			expectedShort: "1.2.3",
			expectedFull:  "version: 1.2.3, commit: abc1234, built at: 2026-10-19T10:00:00Z",
		},
		{
			name:          "pre-release build",
			version:       "1.3.0-rc.1",
			commit:        "def5678",
			buildTime:     "unknown",
			expectedShort: "1.3.0-rc.1",
			expectedFull:  "version: 1.3.0-rc.1, commit: def5678, built at: unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			previousVersion, previousCommit, previousBuildTime := Version, Commit, BuildTime

			t.Cleanup(func() {
				Version, Commit, BuildTime = previousVersion, previousCommit, previousBuildTime
			})

			Version, Commit, BuildTime = tt.version, tt.commit, tt.buildTime

			assert.Equal(t, tt.expectedShort, Short())
			assert.Equal(t, tt.expectedFull, Full())
		})
	}
}
