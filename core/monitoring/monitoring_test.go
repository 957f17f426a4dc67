package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	errs    []error
	tags    []map[string]string
	flushes int
}

func (r *recorder) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recorder) Recover()            {}
func (r *recorder) Flush(time.Duration) { r.flushes++ }

func TestInitAndCapture(t *testing.T) {
	rec := &recorder{}
	prev := Init(rec)
	t.Cleanup(func() { Init(prev) })

	CaptureException(errors.New("boom"), map[string]string{"run_id": "r1"})
	Flush(time.Second)
	require.Len(t, rec.errs, 1)
	assert.Equal(t, "r1", rec.tags[0]["run_id"])
	assert.Equal(t, 1, rec.flushes)

	assert.Same(t, rec, Init(nil), "nil keeps the current monitor")
}

func TestRecoverRepanics(t *testing.T) {
	rec := &recorder{}
	prev := Init(rec)
	t.Cleanup(func() { Init(prev) })

	assert.PanicsWithValue(t, "bad", func() {
		defer Recover()
		panic("bad")
	})
	require.Len(t, rec.errs, 1)
	assert.Contains(t, rec.errs[0].Error(), "panic: bad")
	assert.Equal(t, "panic", rec.tags[0]["kind"])
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{DSN: "https://k@example.com/1"}.Enabled())
	assert.Error(t, Config{TracesSampleRate: 1.5}.Validate())
}
