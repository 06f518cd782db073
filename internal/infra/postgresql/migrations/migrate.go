package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"faxrelay/internal/repository"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_submission_batches",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.BatchModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_batches_status_created ON submission_batches (status, created_at)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.BatchModel{})
			},
		},
		{
			ID: "000002_create_fax_submissions",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.SubmissionModel{}); err != nil {
					return err
				}
				stmts := []string{
					// Submissions live and die with their batch.
					`ALTER TABLE fax_submissions ADD CONSTRAINT fk_submissions_batch FOREIGN KEY (batch_id) REFERENCES submission_batches (id) ON DELETE CASCADE`,
					`CREATE INDEX IF NOT EXISTS idx_submissions_batch_id ON fax_submissions (batch_id)`,
					`CREATE INDEX IF NOT EXISTS idx_submissions_job_id ON fax_submissions (job_id) WHERE job_id IS NOT NULL`,
				}
				for _, sql := range stmts {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.SubmissionModel{})
			},
		},
		{
			ID: "000003_create_fax_completions",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.CompletionModel{}); err != nil {
					return err
				}
				stmts := []string{
					`ALTER TABLE fax_completions ADD CONSTRAINT fk_completions_submission FOREIGN KEY (submission_id) REFERENCES fax_submissions (id)`,
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_completions_job_id ON fax_completions (job_id)`,
					`CREATE INDEX IF NOT EXISTS idx_completions_completed_at ON fax_completions (completed_at)`,
				}
				for _, sql := range stmts {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.CompletionModel{})
			},
		},
	})

	return m.Migrate()
}
