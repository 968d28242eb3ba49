package usersink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-datagrid/pkg/activity"
)

type memorySink struct {
	records []types.ActivityRecord
	err     error
}

func (s *memorySink) Log(_ context.Context, record types.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookMapsGridEventToRecord(t *testing.T) {
	sink := &memorySink{}
	actor := uuid.New()
	at := time.Date(2026, 5, 4, 12, 30, 0, 0, time.UTC)

	err := Hook{Sink: sink}.Notify(context.Background(), activity.Event{
		Verb:           "delete",
		ActorID:        actor.String(),
		UserID:         "admin@example.com",
		ObjectType:     "jobs",
		ObjectID:       "17",
		Channel:        "datagrid",
		DefinitionCode: "jobs:delete",
		Recipients:     []string{"ops@example.com"},
		Metadata:       map[string]any{"page": 3},
		OccurredAt:     at,
	})
	require.NoError(t, err)
	require.Len(t, sink.records, 1)

	record := sink.records[0]
	assert.Equal(t, actor, record.ActorID)
	assert.Equal(t, uuid.Nil, record.UserID, "non-uuid ids map to nil")
	assert.Equal(t, uuid.Nil, record.TenantID)
	assert.Equal(t, "delete", record.Verb)
	assert.Equal(t, "jobs", record.ObjectType)
	assert.Equal(t, "17", record.ObjectID)
	assert.Equal(t, "datagrid", record.Channel)
	assert.Equal(t, at, record.OccurredAt)
	assert.Equal(t, map[string]any{
		"page":            3,
		"definition_code": "jobs:delete",
		"recipients":      []string{"ops@example.com"},
	}, record.Data)
}

func TestHookSkipsEmptyVerbAndNilSink(t *testing.T) {
	sink := &memorySink{}
	require.NoError(t, Hook{Sink: sink}.Notify(context.Background(), activity.Event{ObjectType: "jobs"}))
	assert.Empty(t, sink.records)
	assert.NoError(t, Hook{}.Notify(context.Background(), activity.Event{Verb: "create", ObjectType: "jobs"}))
}

func TestHookReturnsSinkError(t *testing.T) {
	sink := &memorySink{err: errors.New("users db offline")}
	err := Hook{Sink: sink}.Notify(context.Background(), activity.Event{Verb: "create", ObjectType: "leads"})
	assert.EqualError(t, err, "users db offline")
}
