package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_hugeintOrder(t *testing.T) {
	neg := Hugeint{Upper: -1, Lower: math.MaxUint64}
	zero := Hugeint{}
	lowTie := Hugeint{Upper: 3, Lower: 5}
	highTie := Hugeint{Upper: 3, Lower: 9}

	assert.True(t, neg.Less(&neg, &zero))
	assert.True(t, zero.Greater(&zero, &neg))
	assert.True(t, lowTie.Less(&lowTie, &highTie))
	assert.True(t, highTie.Greater(&highTie, &lowTie))
	assert.False(t, lowTie.Less(&lowTie, &lowTie))
	assert.False(t, lowTie.Greater(&lowTie, &lowTie))
	assert.True(t, lowTie.Equal(&lowTie))
	assert.False(t, lowTie.Equal(&highTie))
}
