package migration_test

import (
	"context"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operativa/gestionale/internal/migration"
)

var _ = Describe("Introspection", func() {
	var (
		pool *sqlx.DB
		mock sqlmock.Sqlmock
		ctx  context.Context
	)

	BeforeEach(func() {
		mockDB, m, err := sqlmock.New()
		Expect(err).NotTo(HaveOccurred())
		pool = sqlx.NewDb(mockDB, "pgx")
		mock = m
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	Describe("TableExists", func() {
		It("answers from the catalog scoped to the current schema", func() {
			mock.ExpectQuery(`SELECT EXISTS \(\s*SELECT 1 FROM information_schema\.tables`).
				WithArgs("commesse").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

			exists, err := migration.TableExists(ctx, pool, "commesse")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())
		})
	})

	Describe("ColumnExists", func() {
		It("checks a single column on a single table", func() {
			mock.ExpectQuery(`SELECT EXISTS \(\s*SELECT 1 FROM information_schema\.columns`).
				WithArgs("rapportini", "ore_fatturabili").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

			exists, err := migration.ColumnExists(ctx, pool, "rapportini", "ore_fatturabili")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())
		})
	})

	Describe("TableColumns", func() {
		It("returns the live columns in ordinal order", func() {
			mock.ExpectQuery(`SELECT column_name FROM information_schema\.columns`).
				WithArgs("companies").
				WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
					AddRow("id").AddRow("slug").AddRow("nome"))

			cols, err := migration.TableColumns(ctx, pool, "companies")
			Expect(err).NotTo(HaveOccurred())
			Expect(cols).To(Equal([]string{"id", "slug", "nome"}))
		})
	})

	Describe("LatestBackupTable", func() {
		It("finds the newest timestamped backup", func() {
			mock.ExpectQuery(`SELECT table_name FROM information_schema\.tables`).
				WithArgs("rapportini_backup_%").
				WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
					AddRow("rapportini_backup_1767225600"))

			backup, err := migration.LatestBackupTable(ctx, pool, "rapportini")
			Expect(err).NotTo(HaveOccurred())
			Expect(backup).To(Equal("rapportini_backup_1767225600"))
		})

		It("returns an empty name when no backup exists", func() {
			mock.ExpectQuery(`SELECT table_name FROM information_schema\.tables`).
				WithArgs("rapportini_backup_%").
				WillReturnRows(sqlmock.NewRows([]string{"table_name"}))

			backup, err := migration.LatestBackupTable(ctx, pool, "rapportini")
			Expect(err).NotTo(HaveOccurred())
			Expect(backup).To(BeEmpty())
		})
	})
})
