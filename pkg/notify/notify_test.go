package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCenterPublishAndDismiss(t *testing.T) {
	ctx := context.Background()
	collector := NewCollector()
	center := NewCenter(collector, 20*time.Millisecond)

	center.Publish(ctx, Notification{Status: StatusSuccess, Title: "done", Message: "2 items"})

	notes := collector.All()
	require.Len(t, notes, 1)
	assert.Equal(t, StatusSuccess, notes[0].Status)
	assert.Equal(t, "done", notes[0].Title)
	assert.Len(t, center.Active(), 1)

	assert.Eventually(t, func() bool {
		return len(center.Active()) == 0
	}, time.Second, 5*time.Millisecond, "notification should auto-dismiss")
}

func TestCenterDefaultDismiss(t *testing.T) {
	center := NewCenter(nil, 0)
	assert.Equal(t, DefaultDismissAfter, center.dismiss)
}

func TestCenterNilSink(t *testing.T) {
	center := NewCenter(nil, time.Minute)
	center.Publish(context.Background(), Notification{Status: StatusInfo, Title: "ok"})
	assert.Len(t, center.Active(), 1)
}
