package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"wisefido-sleep-alert/internal/evaluator"
	"wisefido-sleep-alert/internal/lock"
	"wisefido-sleep-alert/internal/models"
	"wisefido-sleep-alert/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	snapshot *models.SleepSnapshot
	err      error
	gotCode  string
	gotDate  string
}

func (f *fakeFetcher) GetDailySnapshot(ctx context.Context, deviceCode, date string) (*models.SleepSnapshot, error) {
	f.gotCode, f.gotDate = deviceCode, date
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

func newTestEvaluationService(t *testing.T, fetcher SnapshotFetcher) (*EvaluationService, *repository.AlertRecordsRepository, *recordingNotifier) {
	t.Helper()
	rules, records := setupRepos(t)
	seedRules(t, rules)
	n := &recordingNotifier{}
	svc := NewEvaluationService(rules, records, lock.NewLocalDayLock(), evaluator.NewEvaluator(testLogger()), n, fetcher, testLogger())
	return svc, records, n
}

func TestEvaluateSnapshot_CreatesAndPersistsRecords(t *testing.T) {
	svc, records, n := newTestEvaluationService(t, nil)
	ctx := context.Background()

	result, err := svc.EvaluateSnapshot(ctx, SourceHTTP, testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "BCG-0001", result.DeviceCode)
	assert.Equal(t, int64(1717171200000), result.SleepDateMillis)
	assert.Equal(t, 3, result.RulesEvaluated)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "睡眠质量过低", result.Records[0].RuleName)
	assert.Equal(t, 55.0, result.Records[0].TriggerValue)
	assert.Equal(t, "体动过多", result.Records[1].RuleName)
	assert.Equal(t, models.StatusUnprocessed, result.Records[1].Status)

	stored, err := records.ListDayRecords(ctx, 1717171200000)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	calls, notified := n.snapshot()
	assert.Equal(t, 1, calls)
	assert.Len(t, notified, 2)
}

func TestEvaluateSnapshot_SecondRunCreatesNothing(t *testing.T) {
	svc, records, n := newTestEvaluationService(t, nil)
	ctx := context.Background()

	_, err := svc.EvaluateSnapshot(ctx, SourceHTTP, testSnapshot())
	require.NoError(t, err)

	again, err := svc.EvaluateSnapshot(ctx, SourceHTTP, testSnapshot())
	require.NoError(t, err)
	assert.Empty(t, again.Records)

	stored, err := records.ListRecords(ctx, repository.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	calls, _ := n.snapshot()
	assert.Equal(t, 1, calls)
}

func TestEvaluateSnapshot_OtherDeviceSameDayIsDeduplicated(t *testing.T) {
	svc, records, n := newTestEvaluationService(t, nil)
	ctx := context.Background()

	_, err := svc.EvaluateSnapshot(ctx, SourceHTTP, testSnapshot())
	require.NoError(t, err)

	other := testSnapshot()
	other.DeviceCode = "BCG-0002"
	result, err := svc.EvaluateSnapshot(ctx, SourceHTTP, other)
	require.NoError(t, err)
	assert.Equal(t, "BCG-0002", result.DeviceCode)
	assert.Empty(t, result.Records)

	stored, err := records.ListRecords(ctx, repository.RecordFilter{})
	require.NoError(t, err)
	assertOneRecordPerDedupKey(t, stored)
	for _, rec := range stored {
		assert.Equal(t, "BCG-0001", rec.DeviceCode)
	}

	calls, _ := n.snapshot()
	assert.Equal(t, 1, calls)
}

func TestEvaluateSnapshot_ConcurrentSameDay(t *testing.T) {
	svc, records, _ := newTestEvaluationService(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap := testSnapshot()
			if i%2 == 1 {
				snap.DeviceCode = "BCG-0002"
			}
			_, err := svc.EvaluateSnapshot(ctx, SourceStream, snap)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := records.ListRecords(ctx, repository.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	assertOneRecordPerDedupKey(t, stored)
}

func assertOneRecordPerDedupKey(t *testing.T, records []models.AlertRecord) {
	t.Helper()
	seen := make(map[models.DedupKey]string)
	for _, rec := range records {
		if prev, ok := seen[rec.DedupKey()]; ok {
			t.Errorf("records %s and %s share dedup key %+v", prev, rec.ID, rec.DedupKey())
		}
		seen[rec.DedupKey()] = rec.ID
	}
}

func TestEvaluateSnapshot_InvalidSnapshot(t *testing.T) {
	svc, _, n := newTestEvaluationService(t, nil)

	_, err := svc.EvaluateSnapshot(context.Background(), SourceHTTP, nil)
	assert.ErrorIs(t, err, models.ErrInvalidSnapshot)

	bad := testSnapshot()
	bad.DeviceCode = " "
	_, err = svc.EvaluateSnapshot(context.Background(), SourceHTTP, bad)
	assert.ErrorIs(t, err, models.ErrInvalidSnapshot)

	calls, _ := n.snapshot()
	assert.Zero(t, calls)
}

func TestEvaluateDeviceDay(t *testing.T) {
	fetcher := &fakeFetcher{snapshot: testSnapshot()}
	svc, _, _ := newTestEvaluationService(t, fetcher)

	result, err := svc.EvaluateDeviceDay(context.Background(), SourceMQTT, "BCG-0001", "2024-06-01")
	require.NoError(t, err)
	assert.Len(t, result.Records, 2)
	assert.Equal(t, "BCG-0001", fetcher.gotCode)
	assert.Equal(t, "2024-06-01", fetcher.gotDate)
}

func TestEvaluateDeviceDay_Errors(t *testing.T) {
	fetchErr := errors.New("upstream down")
	svc, _, _ := newTestEvaluationService(t, &fakeFetcher{err: fetchErr})
	ctx := context.Background()

	_, err := svc.EvaluateDeviceDay(ctx, SourceHTTP, "BCG-0001", "2024/06/01")
	assert.ErrorIs(t, err, models.ErrInvalidSnapshot)

	_, err = svc.EvaluateDeviceDay(ctx, SourceHTTP, "", "2024-06-01")
	assert.ErrorIs(t, err, models.ErrInvalidSnapshot)

	_, err = svc.EvaluateDeviceDay(ctx, SourceHTTP, "BCG-0001", "2024-06-01")
	assert.ErrorIs(t, err, fetchErr)
}
