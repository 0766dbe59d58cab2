package split

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntuplesplit/ntuplesplit/ntuple"
)

func keyRecord(t *testing.T, run, lumi, event string) ntuple.Record {
	t.Helper()
	s, err := ntuple.NewSchema(
		ntuple.Column{Name: "Run", Type: ntuple.TypeUint32},
		ntuple.Column{Name: "LumiSec", Type: ntuple.TypeUint32},
		ntuple.Column{Name: "Event", Type: ntuple.TypeUint64},
	)
	require.NoError(t, err)
	rec, err := ntuple.NewRecord(s, []string{run, lumi, event})
	require.NoError(t, err)
	return rec
}

func TestExtractKey(t *testing.T) {
	rec := keyRecord(t, "275890", "12", "123456789")
	key, err := ExtractKey(rec, DefaultKeyFields())
	require.NoError(t, err)
	assert.Equal(t, EventKey{Run: 275890, Segment: 12, Event: 123456789}, key)
}

func TestExtractKey_MissingField(t *testing.T) {
	rec := keyRecord(t, "1", "2", "3")
	fields := KeyFields{Run: "Run", Segment: "NoSuchColumn", Event: "Event"}

	_, err := ExtractKey(rec, fields)
	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "NoSuchColumn", missing.Field)
}

func TestExtractKey_NonIntegerField(t *testing.T) {
	rec := keyRecord(t, "1", "not-a-number", "3")
	_, err := ExtractKey(rec, DefaultKeyFields())
	var missing *MissingFieldError
	assert.True(t, errors.As(err, &missing))
}
