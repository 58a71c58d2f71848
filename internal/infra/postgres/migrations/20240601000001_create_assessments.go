package migrations

import _ "embed"

//go:embed 0001_create_assessments.sql
var createAssessmentsSQL string

func init() {
	Migrations.MustRegister(
		execSQL(createAssessmentsSQL),
		execSQL(`DROP TABLE IF EXISTS assessments`),
	)
}
