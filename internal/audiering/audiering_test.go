package audiering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPushPopBasic(t *testing.T) {
	r := New(16)

	require.NoError(t, r.Push([]int16{1, 2, 3, 4}))
	assert.Equal(t, 4, r.Available())

	out := r.Pop(2)
	assert.Equal(t, []int16{1, 2}, out)
	assert.Equal(t, 2, r.Available())

	require.NoError(t, r.Push([]int16{5, 6}))
	out = r.Pop(4)
	assert.Equal(t, []int16{3, 4, 5, 6}, out)
	assert.Equal(t, 0, r.Available())
}

func TestPushOverflow(t *testing.T) {
	r := New(4)
	require.NoError(t, r.Push([]int16{1, 2, 3}))

	err := r.Push([]int16{4, 5})
	require.Error(t, err)
	var overflow *OverflowError
	require.ErrorAs(t, err, &overflow)

	// Overflowing push must not mutate the ring.
	assert.Equal(t, 3, r.Available())
}

func TestDrain(t *testing.T) {
	r := New(8)
	require.NoError(t, r.Push([]int16{1, 2, 3}))
	r.Drain()
	assert.Equal(t, 0, r.Available())
}

func TestPopPastAvailablePanics(t *testing.T) {
	r := New(8)
	require.NoError(t, r.Push([]int16{1, 2}))
	assert.Panics(t, func() { r.Pop(3) })
}

// For every sequence of push(x_i), pop(n_j) where preconditions hold,
// nbuffer = sum(|x_i|) - sum(n_j), and contents are the concatenation of
// the x_i with the first sum(n_j) samples removed (spec §8).
func TestRingInvariantProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(8, 512).Draw(t, "capacity")
		r := New(capacity)

		var model []int16
		steps := rapid.IntRange(1, 40).Draw(t, "steps")

		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "doPush") {
				n := rapid.IntRange(0, capacity).Draw(t, "pushLen")
				samples := rapid.SliceOfN(rapid.Int16(), n, n).Draw(t, "samples")

				if len(model)+n > capacity {
					require.Error(t, r.Push(samples))
					continue
				}
				require.NoError(t, r.Push(samples))
				model = append(model, samples...)
			} else {
				if len(model) == 0 {
					continue
				}
				n := rapid.IntRange(0, len(model)).Draw(t, "popLen")
				out := r.Pop(n)
				require.Equal(t, model[:n], out)
				model = model[n:]
			}

			require.Equal(t, len(model), r.Available())
		}
	})
}
