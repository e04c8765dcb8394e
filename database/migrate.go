// database/migrate.go - Database Migration Runner
package database

import (
	"log"

	"prepclash/models"
)

// RunMigrations runs all database migrations
func RunMigrations() {
	db := GetDB()
	log.Println("Running database migrations...")

	if err := db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Challenge{},
		&models.Invite{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	createIndexes()

	log.Println("All migrations completed successfully")
}

// createIndexes creates indexes beyond what the model tags declare
func createIndexes() {
	db := GetDB()

	// Invite lookups: "my invites" and "my accepted invites" dominate reads
	db.Exec("CREATE INDEX IF NOT EXISTS idx_invites_user_response ON invites(invited_user_id, response)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_invites_challenge_user ON invites(challenge_id, invited_user_id)")

	// Challenge listings are keyed on creator and creation time
	db.Exec("CREATE INDEX IF NOT EXISTS idx_challenges_creator_created ON challenges(creator_id, created_at DESC)")

	// Recipient-containment queries over the JSON recipients column
	db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_recipients ON notifications USING gin ((recipients::jsonb))")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at DESC)")
}
