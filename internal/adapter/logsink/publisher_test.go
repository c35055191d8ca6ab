package logsink_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/neomorfeo/partnerflow/internal/adapter/logsink"
	"github.com/neomorfeo/partnerflow/internal/domain"
)

func TestPublisher_LogsByOutcome(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	pub := logsink.NewPublisher(zap.New(core))
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, pub.Publish(ctx, domain.Notification{
		Event: domain.EventPointsAccrued, EntityKind: domain.EntityMembership, EntityID: "client-1",
		Actor: "system", Success: true, At: at,
	}))
	require.NoError(t, pub.Publish(ctx, domain.Notification{
		Event: domain.EventOfferRedeemed, EntityKind: domain.EntityMembership, EntityID: "client-1",
		Actor: "system", Detail: "client client-1 has 10 points, 150 required", At: at,
	}))

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "notifications", entries[0].LoggerName)
	assert.Equal(t, "points_accrued", entries[0].ContextMap()["event"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "client client-1 has 10 points, 150 required", entries[1].ContextMap()["detail"])
}
