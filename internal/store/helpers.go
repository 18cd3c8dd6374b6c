package store

import (
	"database/sql"
	"fmt"

	"github.com/capshealth/healthbot/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nilIfZero returns nil if n is zero, otherwise returns n.
// Used for the nullable user_age column.
func nilIfZero(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}

// scanChatLog scans a ChatLog from sql.Rows.
func scanChatLog(rows *sql.Rows) (models.ChatLog, error) {
	var l models.ChatLog
	var firstName, lastName, dob sql.NullString
	var age sql.NullInt64
	err := rows.Scan(
		&l.ID, &l.SessionID, &l.HealthcareContext, &l.PrivacyStyle,
		&firstName, &lastName, &age, &dob,
		&l.UserInput, &l.BotReply, &l.Timestamp,
	)
	if err != nil {
		return l, fmt.Errorf("scan chat log failed: %w", err)
	}
	l.UserFirstName = firstName.String
	l.UserLastName = lastName.String
	l.UserDOB = dob.String
	if age.Valid {
		l.UserAge = int(age.Int64)
	}
	return l, nil
}
