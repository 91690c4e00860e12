package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subj string
	data []byte
	err  error
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	f.subj, f.data = subj, data
	return f.err
}

func TestNATSPublisher_Publish(t *testing.T) {
	fc := &fakeConn{}
	p := &NATSPublisher{conn: fc, prefix: DefaultSubjectPrefix}

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, p.Publish(context.Background(), Event{Type: TypeRotated, UserID: "u1", At: at}))

	assert.Equal(t, "bankauth.tokens.rotated", fc.subj)

	var got Event
	require.NoError(t, json.Unmarshal(fc.data, &got))
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, at, got.At)
	assert.NotContains(t, string(fc.data), "count")
}

func TestNATSPublisher_Errors(t *testing.T) {
	fc := &fakeConn{err: errors.New("no responders")}
	p := &NATSPublisher{conn: fc, prefix: DefaultSubjectPrefix}

	assert.EqualError(t, p.Publish(context.Background(), Event{Type: TypeSwept, Count: 2}), "no responders")
	assert.NotEmpty(t, fc.data)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, Event{Type: TypeSwept}), context.Canceled)

	var nilPub *NATSPublisher
	assert.Error(t, nilPub.Publish(context.Background(), Event{}))
	nilPub.Close()
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: TypeIssued}))
}
