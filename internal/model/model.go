package model

import "time"

// UserAccount is the per-user row stored in DynamoDB.
// EncryptedSpreadsheetID holds the codec blob for the user's dream
// spreadsheet; the plaintext id is never stored. A nil value means the
// user has no spreadsheet provisioned.
type UserAccount struct {
	Email                  string    `json:"email" dynamodbav:"email"`
	EncryptedSpreadsheetID *string   `json:"encrypted_spreadsheet_id" dynamodbav:"encrypted_spreadsheet_id"`
	CreatedAt              time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt              time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// ProvisionLock serializes first-time spreadsheet provisioning for a
// single user identity.
type ProvisionLock struct {
	Email     string `json:"email" dynamodbav:"email"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix timestamp)
}

// Entry is one appended dream row.
type Entry struct {
	Timestamp string
	Text      string
	Author    string
}

// HeaderSchema selects the header-row variant written to a fresh sheet.
type HeaderSchema int

const (
	// SchemaTwoColumn writes [Timestamp, Dream].
	SchemaTwoColumn HeaderSchema = iota
	// SchemaThreeColumn writes [Timestamp, Dream, Author].
	SchemaThreeColumn
)

// ParseHeaderSchema maps a config value to a schema, defaulting to the
// three-column variant.
func ParseHeaderSchema(s string) HeaderSchema {
	if s == "two-column" {
		return SchemaTwoColumn
	}
	return SchemaThreeColumn
}

// Columns returns the header row for the schema.
func (s HeaderSchema) Columns() []string {
	if s == SchemaTwoColumn {
		return []string{"Timestamp", "Dream"}
	}
	return []string{"Timestamp", "Dream", "Author"}
}

// Row renders an entry under the schema.
func (s HeaderSchema) Row(e Entry) []string {
	if s == SchemaTwoColumn {
		return []string{e.Timestamp, e.Text}
	}
	return []string{e.Timestamp, e.Text, e.Author}
}

// Range returns the A1-style column range for the schema, e.g. "Dreams!A:C".
func (s HeaderSchema) Range(sheetName string) string {
	if s == SchemaTwoColumn {
		return sheetName + "!A:B"
	}
	return sheetName + "!A:C"
}

// HeaderRange returns the first-row range the header occupies.
func (s HeaderSchema) HeaderRange(sheetName string) string {
	if s == SchemaTwoColumn {
		return sheetName + "!A1:B1"
	}
	return sheetName + "!A1:C1"
}
