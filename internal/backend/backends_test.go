package backend

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fidmor2026/zaapar/internal/ledger"
)

func newTestConsumer(ml ledger.Ledger) *Consumer {
	processor := NewProcessor(ml, degradedExtractor(), testLogger())
	return NewConsumer(nil, ml, processor, "worker-test", 1, testLogger())
}

func TestConsumerHandleProcessesNotification(t *testing.T) {
	ml := newMemLedger()
	ctx := context.Background()

	text := "Go developer with docker experience"
	payload, _ := json.Marshal(Payload{Text: text, Filename: "cv.pdf"})
	id, err := ml.Enqueue(ctx, strptr("u7"), ledger.KindExtractProfile, string(payload))
	require.NoError(t, err)

	body, _ := json.Marshal(Notification{
		JobRowID: id,
		UserID:   strptr("u7"),
		Filename: "cv.pdf",
		Text:     text,
	})

	consumer := newTestConsumer(ml)
	decision := consumer.handle(ctx, body)

	assert.Equal(t, ackMessage, decision)

	got := ml.mustGet(id)
	assert.Equal(t, ledger.StatusDone, got.Status)

	var result ResultPayload
	require.NoError(t, json.Unmarshal([]byte(*got.Result), &result))
	assert.Equal(t, text, result.Profile.Raw)
}

func TestConsumerHandleDropsMalformedNotification(t *testing.T) {
	consumer := newTestConsumer(newMemLedger())

	assert.Equal(t, nackDrop, consumer.handle(context.Background(), []byte("{broken")))
	assert.Equal(t, nackDrop, consumer.handle(context.Background(), []byte(`{"jobRowId":0}`)))
}

func TestConsumerHandleAcksAlreadyClaimedEntry(t *testing.T) {
	ml := newMemLedger()
	ctx := context.Background()

	payload, _ := json.Marshal(Payload{Text: "text"})
	id, err := ml.Enqueue(ctx, nil, ledger.KindExtractProfile, string(payload))
	require.NoError(t, err)

	// another backend instance wins the claim first
	_, err = ml.Claim(ctx, id, "other-worker")
	require.NoError(t, err)

	body, _ := json.Marshal(Notification{JobRowID: id, Text: "text"})

	consumer := newTestConsumer(ml)
	decision := consumer.handle(ctx, body)

	// duplicate delivery is settled, not retried
	assert.Equal(t, ackMessage, decision)

	got := ml.mustGet(id)
	assert.Equal(t, ledger.StatusProcessing, got.Status)
	assert.Equal(t, "other-worker", *got.ClaimedBy)
}

func TestConsumerUsesNotificationPayloadNotLedgerRow(t *testing.T) {
	ml := newMemLedger()
	ctx := context.Background()

	// ledger row carries a different payload than the notification;
	// the notification is authoritative for the consumer
	rowPayload, _ := json.Marshal(Payload{Text: "stale row text"})
	id, err := ml.Enqueue(ctx, nil, ledger.KindExtractProfile, string(rowPayload))
	require.NoError(t, err)

	body, _ := json.Marshal(Notification{JobRowID: id, Text: "fresh notification text"})

	consumer := newTestConsumer(ml)
	require.Equal(t, ackMessage, consumer.handle(ctx, body))

	got := ml.mustGet(id)
	var result ResultPayload
	require.NoError(t, json.Unmarshal([]byte(*got.Result), &result))
	assert.Equal(t, "fresh notification text", result.Profile.Raw)
}

func TestPollerTickEmptyBacklog(t *testing.T) {
	ml := newMemLedger()
	processor := NewProcessor(ml, degradedExtractor(), testLogger())
	poller := NewPoller(ml, processor, time.Second, "worker-test", testLogger())

	require.NoError(t, poller.tick(context.Background()))
}

func TestPollerTickProcessesOldestFirst(t *testing.T) {
	ml := newMemLedger()
	ctx := context.Background()

	first, _ := json.Marshal(Payload{Text: "first document"})
	second, _ := json.Marshal(Payload{Text: "second document"})

	firstID, err := ml.Enqueue(ctx, nil, ledger.KindExtractProfile, string(first))
	require.NoError(t, err)
	secondID, err := ml.Enqueue(ctx, nil, ledger.KindExtractProfile, string(second))
	require.NoError(t, err)

	processor := NewProcessor(ml, degradedExtractor(), testLogger())
	poller := NewPoller(ml, processor, time.Second, "worker-test", testLogger())

	require.NoError(t, poller.tick(ctx))

	assert.Equal(t, ledger.StatusDone, ml.mustGet(firstID).Status)
	assert.Equal(t, ledger.StatusPending, ml.mustGet(secondID).Status)

	require.NoError(t, poller.tick(ctx))
	assert.Equal(t, ledger.StatusDone, ml.mustGet(secondID).Status)
}

func TestBothBackendsAgainstOneLedgerNeverDoubleProcess(t *testing.T) {
	ml := newMemLedger()
	ctx := context.Background()

	payload, _ := json.Marshal(Payload{Text: "contended document"})
	id, err := ml.Enqueue(ctx, strptr("u1"), ledger.KindExtractProfile, string(payload))
	require.NoError(t, err)

	processor := NewProcessor(ml, degradedExtractor(), testLogger())
	poller := NewPoller(ml, processor, time.Second, "poller", testLogger())
	consumer := newTestConsumer(ml)

	body, _ := json.Marshal(Notification{JobRowID: id, UserID: strptr("u1"), Text: "contended document"})

	done := make(chan struct{}, 2)
	go func() {
		_ = poller.tick(ctx)
		done <- struct{}{}
	}()
	go func() {
		consumer.handle(ctx, body)
		done <- struct{}{}
	}()
	<-done
	<-done

	got := ml.mustGet(id)
	assert.Equal(t, ledger.StatusDone, got.Status)

	// exactly one profile row regardless of which backend won
	assert.Equal(t, 1, ml.profileCount())
}
