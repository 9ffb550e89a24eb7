package goid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetGIDDiffersAcrossGoroutines(t *testing.T) {
	main := GetGID()
	assert.NotZero(t, main)

	ch := make(chan uint64)
	go func() { ch <- GetGID() }()
	other := <-ch

	assert.NotZero(t, other)
	assert.NotEqual(t, main, other)
}

func TestField(t *testing.T) {
	f := Field()
	assert.Equal(t, "goid", f.Key)
	assert.NotZero(t, f.Integer)
}
