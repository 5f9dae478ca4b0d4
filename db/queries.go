package db

import _ "embed"

//go:embed sql/create_tables.sql
var CreateTablesSQL string

//go:embed sql/upsert_recording.sql
var UpsertRecordingSQL string

//go:embed sql/select_recordings.sql
var SelectRecordingsSQL string

//go:embed sql/delete_recordings.sql
var DeleteRecordingsSQL string

//go:embed sql/insert_clip_request.sql
var InsertClipRequestSQL string

//go:embed sql/select_clip_requests.sql
var SelectClipRequestsSQL string

//go:embed sql/delete_clip_requests.sql
var DeleteClipRequestsSQL string

//go:embed sql/insert_run.sql
var InsertRunSQL string

//go:embed sql/finish_run.sql
var FinishRunSQL string

//go:embed sql/select_runs.sql
var SelectRunsSQL string

//go:embed sql/select_runs_by_prefix.sql
var SelectRunsByPrefixSQL string

//go:embed sql/upsert_run_job.sql
var UpsertRunJobSQL string

//go:embed sql/select_run_jobs.sql
var SelectRunJobsSQL string
