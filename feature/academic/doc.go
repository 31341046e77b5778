// Package academic manages the graduate school's student records: students,
// their publications and progress milestones, and thesis advisors.
//
// # Identity and merge
//
//   - Students match by student_id, which is also their storage key. A match is
//     updated field by field and a deleted student is restored.
//   - Publications match by student_id and normalized title. A match is skipped.
//   - Progress milestones match by student_id and milestone_type and are updated.
//   - Advisors match by advisor_id, then by normalized full name, and are updated.
//
// A blank or "-" incoming value never overwrites a stored one.
//
// # Backup and restore
//
// Export writes every live record as a versioned JSON envelope or as an Excel
// workbook with one sheet per kind. Restore accepts either, reconciles the four
// kinds in one session and writes one academic_restore summary. Backups can also
// be stored in and restored from the object storage archive.
//
// # Scopus auto-sync
//
// AutoSync searches Scopus once per student or advisor, by Scopus author id
// when known and otherwise by English name within the university, and adds the
// publications the person does not have yet. It writes one academic_autosync
// summary per run.
//
// # Purge
//
// Deleting a whole collection takes two people: one requests it, another confirms
// it with the issued token after the cooldown. See PurgeGuard.
//
// # HTTP Endpoints
//
//   - GET /academic/counts, GET /academic/:kind
//   - GET /academic/backup, GET/POST /academic/backup/archive
//   - POST /academic/restore, POST /academic/restore/archive, GET /academic/restore/history
//   - POST /academic/autosync/:kind, GET /academic/autosync/history
//   - GET /academic/purge, POST /academic/purge/:kind, POST /academic/purge/confirm/:token
package academic
