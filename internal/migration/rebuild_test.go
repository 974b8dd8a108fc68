package migration_test

import (
	"context"
	"errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operativa/gestionale/internal/migration"
)

var _ = Describe("Rebuild", func() {
	var (
		pool *sqlx.DB
		mock sqlmock.Sqlmock
		ctx  context.Context
		rb   *migration.Rebuild
	)

	expectBackupLookup := func(backup string) {
		rows := sqlmock.NewRows([]string{"table_name"})
		if backup != "" {
			rows.AddRow(backup)
		}
		mock.ExpectQuery(`SELECT table_name FROM information_schema\.tables`).
			WithArgs("rapportini_backup_%").
			WillReturnRows(rows)
	}
	expectTableExists := func(exists bool) {
		mock.ExpectQuery(`SELECT EXISTS \(\s*SELECT 1 FROM information_schema\.tables`).
			WithArgs("rapportini").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
	}
	expectMarkerExists := func(exists bool) {
		mock.ExpectQuery(`SELECT EXISTS \(\s*SELECT 1 FROM information_schema\.columns`).
			WithArgs("rapportini", "ore_fatturabili").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
	}

	BeforeEach(func() {
		mockDB, m, err := sqlmock.New()
		Expect(err).NotTo(HaveOccurred())
		pool = sqlx.NewDb(mockDB, "pgx")
		mock = m
		ctx = context.Background()

		rb = &migration.Rebuild{
			Table:        "rapportini",
			MarkerColumn: "ore_fatturabili",
			CreateNew: func(ctx context.Context, tx *sqlx.Tx) error {
				_, err := tx.ExecContext(ctx, `CREATE TABLE rapportini (ore_fatturabili numeric)`)
				return err
			},
			Backfill: func(ctx context.Context, tx *sqlx.Tx, backupTable string) error {
				_, err := tx.ExecContext(ctx, `INSERT INTO rapportini SELECT * FROM `+backupTable)
				return err
			},
		}
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	// Run executes inside the owning unit's transaction.
	runInTx := func() error {
		tx, err := pool.BeginTxx(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		runErr := rb.Run(ctx, tx)
		if runErr != nil {
			Expect(tx.Rollback()).To(Succeed())
			return runErr
		}
		Expect(tx.Commit()).To(Succeed())
		return nil
	}

	It("renames, recreates, backfills and drops the backup on the happy path", func() {
		mock.ExpectBegin()
		expectBackupLookup("")
		expectTableExists(true)
		expectMarkerExists(false)
		mock.ExpectExec(`ALTER TABLE rapportini RENAME TO rapportini_backup_\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE TABLE rapportini`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`SAVEPOINT rebuild_backfill`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO rapportini SELECT \* FROM rapportini_backup_\d+`).
			WillReturnResult(sqlmock.NewResult(0, 42))
		mock.ExpectExec(`RELEASE SAVEPOINT rebuild_backfill`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DROP TABLE rapportini_backup_\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		Expect(runInTx()).To(Succeed())
	})

	It("keeps the backup and still succeeds when the backfill fails", func() {
		rb.Backfill = func(ctx context.Context, tx *sqlx.Tx, backupTable string) error {
			return errors.New("incompatible rows")
		}

		mock.ExpectBegin()
		expectBackupLookup("")
		expectTableExists(true)
		expectMarkerExists(false)
		mock.ExpectExec(`ALTER TABLE rapportini RENAME TO rapportini_backup_\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE TABLE rapportini`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`SAVEPOINT rebuild_backfill`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`ROLLBACK TO SAVEPOINT rebuild_backfill`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		Expect(runInTx()).To(Succeed())
	})

	It("resumes after an interrupted run instead of renaming again", func() {
		mock.ExpectBegin()
		expectBackupLookup("rapportini_backup_1767225600")
		expectTableExists(false)
		mock.ExpectExec(`CREATE TABLE rapportini`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`SAVEPOINT rebuild_backfill`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO rapportini SELECT \* FROM rapportini_backup_1767225600`).
			WillReturnResult(sqlmock.NewResult(0, 7))
		mock.ExpectExec(`RELEASE SAVEPOINT rebuild_backfill`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DROP TABLE rapportini_backup_1767225600`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		Expect(runInTx()).To(Succeed())
	})

	It("is a no-op when the new shape is already live", func() {
		mock.ExpectBegin()
		expectBackupLookup("")
		expectTableExists(true)
		expectMarkerExists(true)
		mock.ExpectCommit()

		Expect(runInTx()).To(Succeed())
	})

	Describe("Applied", func() {
		It("is true when the marker column is live", func() {
			expectTableExists(true)
			expectMarkerExists(true)

			applied, err := rb.Applied(ctx, pool)
			Expect(err).NotTo(HaveOccurred())
			Expect(applied).To(BeTrue())
		})

		It("is false before the table exists at all", func() {
			expectTableExists(false)

			applied, err := rb.Applied(ctx, pool)
			Expect(err).NotTo(HaveOccurred())
			Expect(applied).To(BeFalse())
		})
	})
})
