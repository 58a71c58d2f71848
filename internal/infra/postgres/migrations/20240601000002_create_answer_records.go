package migrations

import _ "embed"

//go:embed 0002_create_answer_records.sql
var createAnswerRecordsSQL string

func init() {
	Migrations.MustRegister(
		execSQL(createAnswerRecordsSQL),
		execSQL(`DROP TABLE IF EXISTS answer_records`),
	)
}
