package core_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keatteoh99/medrock/internal/core"
	"github.com/keatteoh99/medrock/pkg"
)

type fakeHistory struct {
	recent   []pkg.ChatRecord
	appended []pkg.ChatRecord
	err      error
}

func (f *fakeHistory) Append(_ context.Context, rec pkg.ChatRecord) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, rec)
	return nil
}

func (f *fakeHistory) Recent(_ context.Context, _ string, _ int) ([]pkg.ChatRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.recent, nil
}

type fakePlaces struct {
	facilities []pkg.Facility
	lon, lat   float64
	category   string
	radius     int32
}

func (f *fakePlaces) SearchNearby(_ context.Context, lon, lat float64, category string, radiusM int32) ([]pkg.Facility, error) {
	f.lon, f.lat, f.category, f.radius = lon, lat, category, radiusM
	return f.facilities, nil
}

func TestChatPersistsBothSides(t *testing.T) {
	backend := &fakeLLM{reply: "Thanks for the details. How long has this lasted?"}
	history := &fakeHistory{}
	svc := core.NewChatService(backend, history, &fakePlaces{}, nil)

	reply, err := svc.Chat(context.Background(), "patient_123", "I have a headache")
	require.NoError(t, err)
	require.Equal(t, backend.reply, reply)

	// First contact opens the transcript with the greeting.
	require.Len(t, history.appended, 3)
	require.Equal(t, pkg.RoleAssistant, history.appended[0].Role)
	require.Equal(t, core.Greeting, history.appended[0].Message)
	require.Equal(t, pkg.RoleUser, history.appended[1].Role)
	require.Equal(t, "I have a headache", history.appended[1].Message)
	require.Equal(t, pkg.RoleAssistant, history.appended[2].Role)
	require.Equal(t, reply, history.appended[2].Message)
}

func TestChatGreetingOnlyOnFirstContact(t *testing.T) {
	backend := &fakeLLM{reply: "ok"}
	history := &fakeHistory{recent: []pkg.ChatRecord{
		{Role: pkg.RoleUser, Message: "earlier"},
	}}
	svc := core.NewChatService(backend, history, &fakePlaces{}, nil)

	_, err := svc.Chat(context.Background(), "p1", "hello again")
	require.NoError(t, err)
	for _, rec := range history.appended {
		require.NotEqual(t, core.Greeting, rec.Message)
	}
}

func TestChatPromptIncludesHistoryChronologically(t *testing.T) {
	backend := &fakeLLM{reply: "ok"}
	history := &fakeHistory{recent: []pkg.ChatRecord{
		// Most recent first, as the store returns them.
		{Role: pkg.RoleAssistant, Message: "second"},
		{Role: pkg.RoleUser, Message: "first"},
	}}
	svc := core.NewChatService(backend, history, &fakePlaces{}, nil)

	_, err := svc.Chat(context.Background(), "p1", "third")
	require.NoError(t, err)
	require.Contains(t, backend.prompt, "MedRock")
	require.Contains(t, backend.prompt, "third")
	require.Less(t, strings.Index(backend.prompt, "first"), strings.Index(backend.prompt, "second"))
}

func TestChatHistoryFailureBeforeCallFails(t *testing.T) {
	backend := &fakeLLM{reply: "ok"}
	history := &fakeHistory{err: context.DeadlineExceeded}
	svc := core.NewChatService(backend, history, &fakePlaces{}, nil)
	_, err := svc.Chat(context.Background(), "p1", "hello")
	require.Error(t, err)
}

func TestNearbyFacilitiesFormatsAndPersists(t *testing.T) {
	open := true
	places := &fakePlaces{facilities: []pkg.Facility{{
		Name:      "General Hospital",
		Category:  "Hospital",
		Address:   "1 Main St",
		Phone:     "+60123456789",
		OpenNow:   &open,
		DistanceM: 850,
	}}}
	history := &fakeHistory{}
	svc := core.NewChatService(&fakeLLM{}, history, places, nil)

	msg, facilities, err := svc.NearbyFacilities(context.Background(), "p1", 3.1390, 101.6869, "hospital", 5000)
	require.NoError(t, err)
	require.Len(t, facilities, 1)
	require.Contains(t, msg, "1. General Hospital (Hospital)")
	require.Contains(t, msg, "Address: 1 Main St")
	require.Contains(t, msg, "Open now: Yes")
	require.Contains(t, msg, "Distance: 850 meters")

	// Longitude comes first on the wire.
	require.InDelta(t, 101.6869, places.lon, 0.0001)
	require.InDelta(t, 3.1390, places.lat, 0.0001)
	require.Equal(t, "hospital", places.category)
	require.Equal(t, int32(5000), places.radius)

	require.Len(t, history.appended, 1)
	require.NotEmpty(t, history.appended[0].Facilities)
}

func TestFormatFacilitiesEmpty(t *testing.T) {
	require.Equal(t, core.NoFacilitiesMessage, core.FormatFacilities(nil))
}

func TestFormatFacilitiesOmitsUnknownOpenNow(t *testing.T) {
	msg := core.FormatFacilities([]pkg.Facility{{Name: "Clinic", Category: "Clinic"}})
	require.NotContains(t, msg, "Open now")
}
