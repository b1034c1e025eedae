package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/deckbattle/internal/game/dice"
)

// TestCryptoSource_Intn_InRange verifies the postcondition:
// every value returned by Intn(6) is in [0, 6).
func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

func TestCryptoSource_Float64_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestCryptoSource_Intn_PanicsOnZero(t *testing.T) {
	src := dice.NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
}

func TestSeededSource_Deterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		a := dice.NewSeededSource(seed)
		b := dice.NewSeededSource(seed)
		for i := 0; i < 20; i++ {
			assert.Equal(rt, a.Intn(100), b.Intn(100))
			assert.Equal(rt, a.Float64(), b.Float64())
		}
	})
}

func TestSeededSource_ZeroSeedUsable(t *testing.T) {
	a := dice.NewSeededSource(0)
	b := dice.NewSeededSource(1)
	assert.Equal(t, a.Intn(1000), b.Intn(1000))
}

// Property: Shuffle is a permutation of its input.
func TestShuffle_IsPermutation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		xs := rapid.SliceOf(rapid.IntRange(0, 50)).Draw(rt, "xs")
		seed := rapid.Int64().Draw(rt, "seed")
		counts := map[int]int{}
		for _, x := range xs {
			counts[x]++
		}
		shuffled := append([]int(nil), xs...)
		dice.Shuffle(dice.NewSeededSource(seed), len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		for _, x := range shuffled {
			counts[x]--
		}
		for k, c := range counts {
			if c != 0 {
				rt.Fatalf("value %d count mismatch after shuffle: %d", k, c)
			}
		}
	})
}

func TestLoggedSource_LogsDraws(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	src := dice.NewLoggedSource(dice.NewSeededSource(7), zap.New(core))

	_ = src.Intn(10)
	_ = src.Float64()

	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, "random int", logs.All()[0].Message)
	assert.Equal(t, "random float", logs.All()[1].Message)
}
