package dedup

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldProcessOncePerTTL(t *testing.T) {
	d := New(time.Minute, 100)

	assert.True(t, d.ShouldProcess("msg-1"))
	assert.False(t, d.ShouldProcess("msg-1")) // redelivery entro il TTL
	assert.True(t, d.ShouldProcess("msg-2"))
}

func TestEmptyIDAlwaysProcessed(t *testing.T) {
	d := New(time.Minute, 100)
	assert.True(t, d.ShouldProcess(""))
	assert.True(t, d.ShouldProcess(""))
}

func TestExpiredEntryProcessedAgain(t *testing.T) {
	d := New(10*time.Millisecond, 100)
	assert.True(t, d.ShouldProcess("msg-1"))
	time.Sleep(25 * time.Millisecond)
	assert.True(t, d.ShouldProcess("msg-1"))
}

func TestDefaultsOnBadArgs(t *testing.T) {
	d := New(0, 0)
	assert.True(t, d.ShouldProcess("x"))
	assert.False(t, d.ShouldProcess("x"))
}

func TestCapEviction(t *testing.T) {
	d := New(time.Millisecond, 10)
	for i := 0; i < 50; i++ {
		d.ShouldProcess(fmt.Sprintf("msg-%d", i))
		time.Sleep(time.Millisecond)
	}
	// il deduper non cresce oltre il cap: i vecchi id scaduti vengono riusati
	assert.True(t, d.ShouldProcess("msg-0"))
}
