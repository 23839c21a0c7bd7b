package options

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMerge tests that instance options win over defaults without mutating inputs.
func TestMerge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		base      Options
		overrides Options
		expected  Options
	}{
		{
			name:      "both empty",
			base:      nil,
			overrides: nil,
			expected:  Options{},
		},
		{
			name:      "disjoint keys",
			base:      Options{"a": 1},
			overrides: Options{"b": 2},
			expected:  Options{"a": 1, "b": 2},
		},
		{
			name:      "override wins",
			base:      Options{"a": 1, KeyURL: "https://a.example"},
			overrides: Options{KeyURL: "https://b.example"},
			expected:  Options{"a": 1, KeyURL: "https://b.example"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			baseBefore := tt.base.Clone()

			result := Merge(tt.base, tt.overrides)

			assert.Equal(t, tt.expected, result)
			assert.Equal(t, baseBefore, tt.base.Clone())
		})
	}
}

// TestProvider_RoundTrip tests set, update and remove followed by a merge.
func TestProvider_RoundTrip(t *testing.T) {
	t.Parallel()

	provider := NewProvider(nil)

	provider.Set(Options{"a": 1})
	provider.Update(Options{"b": 2})
	provider.Remove("a")

	assert.Equal(t, Options{"b": 2, "c": 3}, provider.Merge(Options{"c": 3}))
}

// TestProvider_SetReplaces tests that Set discards previous defaults.
func TestProvider_SetReplaces(t *testing.T) {
	t.Parallel()

	provider := NewProvider(Options{"a": 1, "b": 2})
	provider.Set(Options{"c": 3})

	assert.Equal(t, Options{"c": 3}, provider.Snapshot())
}

// TestProvider_UpdateOverwrites tests that Update overwrites existing keys.
func TestProvider_UpdateOverwrites(t *testing.T) {
	t.Parallel()

	provider := NewProvider(Options{"a": 1})
	provider.Update(Options{"a": 5, "b": 2})

	assert.Equal(t, Options{"a": 5, "b": 2}, provider.Snapshot())
}

// TestProvider_RemoveMissing tests that removing absent keys is a no-op.
func TestProvider_RemoveMissing(t *testing.T) {
	t.Parallel()

	provider := NewProvider(Options{"a": 1})
	provider.Remove("missing", "also-missing")

	assert.Equal(t, Options{"a": 1}, provider.Snapshot())

	empty := new(Provider)
	empty.Remove("a")
	empty.Update(Options{"x": true})

	assert.Equal(t, Options{"x": true}, empty.Snapshot())
}

// TestProvider_SnapshotIsolation tests that callers cannot mutate provider state through copies.
func TestProvider_SnapshotIsolation(t *testing.T) {
	t.Parallel()

	seed := Options{"a": 1}
	provider := NewProvider(seed)

	seed["a"] = 100
	snapshot := provider.Snapshot()
	snapshot["b"] = 2

	merged := provider.Merge(nil)
	provider.Update(Options{"a": 2})

	assert.Equal(t, Options{"a": 1}, merged)
	assert.Equal(t, Options{"a": 2}, provider.Snapshot())
}

// TestProvider_Sequences tests that merges always equal the union of defaults and instance options.
func TestProvider_Sequences(t *testing.T) {
	t.Parallel()

	type step func(p *Provider, model Options) Options

	set := func(o Options) step {
		return func(p *Provider, _ Options) Options {
			p.Set(o)

			return o.Clone()
		}
	}
	update := func(o Options) step {
		return func(p *Provider, model Options) Options {
			p.Update(o)

			return Merge(model, o)
		}
	}
	remove := func(keys ...string) step {
		return func(p *Provider, model Options) Options {
			p.Remove(keys...)

			result := model.Clone()
			for _, key := range keys {
				delete(result, key)
			}

			return result
		}
	}

	sequences := [][]step{
		{set(Options{"a": 1}), update(Options{"b": 2}), remove("a")},
		{update(Options{"a": 1}), update(Options{"a": 2}), set(Options{"z": 0})},
		{remove("a"), set(Options{"a": 1, "b": 2}), remove("b", "c"), update(Options{"c": 3})},
		{set(nil), update(Options{KeyPartition: "persist:main"})},
	}

	instance := Options{"c": "instance", KeyURL: "https://example.com"}

	for _, sequence := range sequences {
		provider := NewProvider(nil)
		model := Options{}

		for _, s := range sequence {
			model = s(provider, model)
		}

		assert.Equal(t, Merge(model, instance), provider.Merge(instance))
	}
}

// TestProvider_Concurrent tests that concurrent mutation and reads are safe.
func TestProvider_Concurrent(t *testing.T) {
	t.Parallel()

	provider := NewProvider(nil)

	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(3)

		go func() {
			defer wg.Done()

			provider.Update(Options{"key": i})
		}()

		go func() {
			defer wg.Done()

			provider.Remove("key")
		}()

		go func() {
			defer wg.Done()

			_ = provider.Merge(Options{"other": i})
		}()
	}

	wg.Wait()

	assert.NotContains(t, provider.Merge(nil), "other")
}
