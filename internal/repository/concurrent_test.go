package repository

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alexanderramin/upf/internal/db"
	"github.com/alexanderramin/upf/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newConcurrentTestDB creates a file-backed database; unlike :memory:, all
// pooled connections share it, which the WAL tests need.
func newConcurrentTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err, "failed to create concurrent test database")
	t.Cleanup(func() { database.Close() })
	return database
}

// TestConcurrentAccess_ParallelWriters models a server recording many
// conversions at once.
func TestConcurrentAccess_ParallelWriters(t *testing.T) {
	database := newConcurrentTestDB(t)
	repo := NewSQLiteConversionRepo(database)
	ctx := context.Background()

	const writers, perWriter = 4, 10
	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				rec := testutil.NewTestRecord(fmt.Sprintf("w%d-%d.mpp", w, i))
				if err := repo.Create(ctx, rec); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, writers*perWriter, counts["succeeded"])
}

// TestConcurrentAccess_ReadDuringWrite checks readers see consistent rows
// while a writer is active.
func TestConcurrentAccess_ReadDuringWrite(t *testing.T) {
	database := newConcurrentTestDB(t)
	repo := NewSQLiteConversionRepo(database)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			if err := repo.Create(ctx, testutil.NewTestRecord(fmt.Sprintf("item-%d.mpp", i))); err != nil {
				t.Errorf("writer: %v", err)
				return
			}
		}
	}()

	for r := 0; r < 3; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				recs, err := repo.ListRecent(ctx, 50)
				if err != nil {
					t.Errorf("reader: %v", err)
					return
				}
				for _, rec := range recs {
					if rec.ID == "" || rec.Filename == "" {
						t.Errorf("reader saw partial row %+v", rec)
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	recs, err := repo.ListRecent(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, recs, 20)
}
