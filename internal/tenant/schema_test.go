package tenant_test

import (
	"context"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operativa/gestionale/internal/tenant"
)

var _ = Describe("SchemaHelper", func() {
	var (
		pool   *sqlx.DB
		mock   sqlmock.Sqlmock
		helper *tenant.SchemaHelper
		ctx    context.Context
	)

	columnsQuery := `SELECT column_name FROM information_schema\.columns`

	BeforeEach(func() {
		mockDB, m, err := sqlmock.New()
		Expect(err).NotTo(HaveOccurred())
		pool = sqlx.NewDb(mockDB, "pgx")
		mock = m
		helper = tenant.NewSchemaHelper()
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("returns live columns verbatim when all optional columns exist", func() {
		mock.ExpectQuery(columnsQuery).
			WithArgs("companies").
			WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
				AddRow("id").AddRow("slug").AddRow("pec_email").AddRow("sdi_code"))

		list, err := helper.SelectList(ctx, pool, "companies")
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(Equal("id, slug, pec_email, sdi_code"))
	})

	It("substitutes typed NULLs for optional columns the live schema lacks", func() {
		mock.ExpectQuery(columnsQuery).
			WithArgs("companies").
			WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
				AddRow("id").AddRow("slug"))

		list, err := helper.SelectList(ctx, pool, "companies")
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(Equal("id, slug, NULL::text AS pec_email, NULL::text AS sdi_code"))
	})

	It("never substitutes columns that are not registered as optional", func() {
		mock.ExpectQuery(columnsQuery).
			WithArgs("commesse").
			WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
				AddRow("id").AddRow("codice"))

		list, err := helper.SelectList(ctx, pool, "commesse")
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(Equal("id, codice"))
	})

	It("caches the list per table until Reset", func() {
		mock.ExpectQuery(columnsQuery).
			WithArgs("users").
			WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
				AddRow("id").AddRow("email"))

		first, err := helper.SelectList(ctx, pool, "users")
		Expect(err).NotTo(HaveOccurred())

		// Second call answers from cache, no query expected.
		second, err := helper.SelectList(ctx, pool, "users")
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))

		helper.Reset()
		mock.ExpectQuery(columnsQuery).
			WithArgs("users").
			WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
				AddRow("id").AddRow("email").AddRow("cognito_sub"))

		third, err := helper.SelectList(ctx, pool, "users")
		Expect(err).NotTo(HaveOccurred())
		Expect(third).To(Equal("id, email, cognito_sub"))
	})
})
