package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooksNotifySkipsIncompleteEvents(t *testing.T) {
	cases := map[string]struct {
		evt  Event
		want int
	}{
		"missing verb":        {evt: Event{ObjectType: "leads"}, want: 0},
		"missing object type": {evt: Event{Verb: "create"}, want: 0},
		"blank after trim":    {evt: Event{Verb: "  ", ObjectType: "leads"}, want: 0},
		"complete":            {evt: Event{Verb: " update ", ObjectType: " leads ", ObjectID: " 123 "}, want: 1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var got []Event
			hooks := Hooks{HookFunc(func(_ context.Context, evt Event) error {
				got = append(got, evt)
				return nil
			})}
			require.NoError(t, hooks.Notify(context.Background(), tc.evt))
			require.Len(t, got, tc.want)
			if tc.want > 0 {
				assert.Equal(t, "update", got[0].Verb)
				assert.Equal(t, "leads", got[0].ObjectType)
				assert.Equal(t, "123", got[0].ObjectID)
			}
		})
	}
}

func TestHooksNotifyJoinsErrors(t *testing.T) {
	var delivered int
	ok := HookFunc(func(context.Context, Event) error { delivered++; return nil })
	boom := HookFunc(func(context.Context, Event) error { return errors.New("audit store down") })

	err := Hooks{boom, nil, ok}.Notify(context.Background(), Event{Verb: "delete", ObjectType: "jobs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit store down")
	assert.Equal(t, 1, delivered, "a failing hook does not stop the fan-out")
}

func TestNormalizeEventDetachesMutableFields(t *testing.T) {
	meta := map[string]any{"k": "v"}
	recipients := []string{"a@example.com"}
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	evt := Event{Verb: "delete", ObjectType: "jobs", Metadata: meta, Recipients: recipients, OccurredAt: at}
	n := NormalizeEvent(evt)
	n.Metadata["k"] = "changed"
	n.Recipients[0] = "b@example.com"

	assert.Equal(t, "v", meta["k"])
	assert.Equal(t, "a@example.com", recipients[0])
	assert.True(t, n.OccurredAt.Equal(at))
	assert.False(t, NormalizeEvent(Event{}).OccurredAt.IsZero())
}
