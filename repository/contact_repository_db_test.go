package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/occsec/secure-dialer/models"
	"github.com/occsec/secure-dialer/repository"
	apptesting "github.com/occsec/secure-dialer/testing"
	"github.com/occsec/secure-dialer/utils"
)

// setupDB provisions a throwaway database. Tests are skipped when no
// postgres server is reachable, so the suite stays runnable without one.
func setupDB(t *testing.T) (*apptesting.TestDB, *apptesting.TestFixtures) {
	t.Helper()
	tdb, err := apptesting.SetupTestDB()
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(func() {
		if err := tdb.TeardownTestDB(); err != nil {
			t.Logf("teardown failed: %v", err)
		}
	})
	return tdb, apptesting.NewTestFixtures(tdb)
}

func TestContactRepositoryStatusWrite(t *testing.T) {
	// Test that UpdateStatus writes status, status_updated_at, call_initiated
	// and last_called as one unit
	tdb, fixtures := setupDB(t)
	repo := repository.NewContactRepository(tdb.DB)

	contact, err := fixtures.CreateTestContact("user-1", nil)
	require.NoError(t, err)

	now := utils.UTCNow()
	updated, err := repo.UpdateStatus(context.Background(), contact.ID, models.CallStatusCalled, now, &now)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusCalled, updated.Status)
	require.NotNil(t, updated.StatusUpdatedAt)
	require.NotNil(t, updated.LastCalled)
	assert.True(t, updated.CallInitiated)

	reloaded, err := repo.ByUUID(context.Background(), contact.UUID.String())
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, models.CallStatusCalled, reloaded.Status)
	assert.NotNil(t, reloaded.StatusUpdatedAt)
}

func TestContactRepositoryUpdateFields(t *testing.T) {
	// Test that a partial update leaves untouched columns alone
	tdb, fixtures := setupDB(t)
	repo := repository.NewContactRepository(tdb.DB)

	contact, err := fixtures.CreateTestContact("user-1", nil)
	require.NoError(t, err)

	updated, err := repo.UpdateFields(context.Background(), contact.ID, map[string]any{
		"first_name": "Morgan",
	})
	require.NoError(t, err)
	assert.Equal(t, "Morgan", updated.FirstName)
	assert.Equal(t, "Rivera", updated.LastName)
	assert.Equal(t, models.CallStatusNotCalled, updated.Status)
}

func TestContactRepositoryByFilter(t *testing.T) {
	// Test filtering by status and user scope
	tdb, fixtures := setupDB(t)
	repo := repository.NewContactRepository(tdb.DB)

	_, err := fixtures.CreateContactsWithStatuses("user-1", nil, []models.CallStatus{
		models.CallStatusNotCalled,
		models.CallStatusCalled,
		models.CallStatusCalled,
		models.CallStatusBusy,
	})
	require.NoError(t, err)
	_, err = fixtures.CreateTestContact("user-2", nil)
	require.NoError(t, err)

	called := models.CallStatusCalled
	rows, err := repo.ByFilter(context.Background(), models.ContactFilter{
		UserID: utils.ToPtr("user-1"),
		Status: &called,
	}, "created_at ASC", 0, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	total, err := repo.Count(context.Background(), models.ContactFilter{UserID: utils.ToPtr("user-1")})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}

func TestSessionSMSRepositoryUpsert(t *testing.T) {
	// Test the one-record-per-session upsert invariant at the storage layer
	tdb, fixtures := setupDB(t)
	repo := repository.NewCallSessionSMSRepository(tdb.DB)

	session, err := fixtures.CreateTestSession("user-1", "Fall Outreach")
	require.NoError(t, err)
	_, err = fixtures.CreateTestSessionSMS(session.ID, "First version")
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(context.Background(), session.ID, "Second version"))

	record, err := repo.BySessionID(context.Background(), session.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "Second version", record.SMSContent)

	count, err := repo.Count(context.Background(), models.CallSessionSMSFilter{CallSessionID: &session.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestTelephonySettingsRepositoryUpsert(t *testing.T) {
	// Test the per-user caller number upsert
	tdb, fixtures := setupDB(t)
	repo := repository.NewTelephonySettingsRepository(tdb.DB)

	_, err := fixtures.CreateTestTelephonySettings("user-1", "+15551110000")
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(context.Background(), "user-1", "+15552220000"))

	settings, err := repo.ByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, "+15552220000", settings.CallerNumber)
}

func TestWithTransactionRollsBack(t *testing.T) {
	// Test that an error inside the transaction discards all of its writes
	tdb, _ := setupDB(t)
	sessionRepo := repository.NewCallSessionRepository(tdb.DB)

	boom := errors.New("boom")
	_, err := apptesting.NewTestFixtures(tdb).CreateTestSession("user-1", "Keeper")
	require.NoError(t, err)

	err = repository.WithTransaction(context.Background(), tdb.DB, func(ctx context.Context) error {
		if err := sessionRepo.Save(ctx, &models.CallSession{
			UUID:   uuid.New(),
			Name:   "Doomed",
			UserID: "user-1",
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	sessions, err := sessionRepo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}
