// Package schema defines the Guard UP records read and written by the dashboard.
// Field names follow the documents stored in the hosted database.
package schema

import (
	"encoding/json"
	"time"

	"github.com/celerix-dev/guardup-admin/pkg/docstore"
)

// Collection names and document fields shared by the views and the query builder.
const (
	CollectionUsers         = "users"
	CollectionEntries       = "entries"
	CollectionReports       = "reports"
	CollectionNotifications = "notifications"

	FieldBuildingCode = "buildingCode"
	FieldTimestamp    = "timestamp"
	FieldUserEmail    = "userEmail"
	FieldMessage      = "message"
	FieldIsRead       = "isRead"
)

// User is a registered person. Written by the registration flow, read-only here.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Entry is one access-log record: who entered which building and when.
type Entry struct {
	ID           string    `json:"id"`
	UserEmail    string    `json:"userEmail"`
	BuildingCode string    `json:"buildingCode"`
	Timestamp    time.Time `json:"timestamp"`

	// Fields keeps every stored field, including ones without a typed counterpart.
	Fields map[string]any `json:"-"`
}

// MarshalJSON emits every stored field, with the typed fields taking precedence.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+4)
	for k, v := range e.Fields {
		out[k] = v
	}
	out["id"] = e.ID
	out[FieldUserEmail] = e.UserEmail
	out[FieldBuildingCode] = e.BuildingCode
	out[FieldTimestamp] = e.Timestamp
	return json.Marshal(out)
}

// Report is a self-reported health status.
type Report struct {
	ID                      string    `json:"id"`
	Email                   string    `json:"email"`
	ExposureDate            string    `json:"exposureDate"`
	Timestamp               time.Time `json:"timestamp"`
	TestedPositive          bool      `json:"testedPositive"`
	ExperiencingSymptoms    bool      `json:"experiencingSymptoms"`
	InQuarantine            bool      `json:"inQuarantine"`
	MedicalAssistanceNeeded bool      `json:"medicalAssistanceNeeded"`
}

// Notification is a message written under users/{userId}/notifications.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"isRead"`
}

// NotificationPath returns the document path of a user's notification.
func NotificationPath(userID, notificationID string) string {
	return CollectionUsers + "/" + userID + "/" + CollectionNotifications + "/" + notificationID
}

// UserPath returns the document path of a user.
func UserPath(userID string) string {
	return CollectionUsers + "/" + userID
}

// --- Document mapping ---

// UserFromDocument maps a stored document to a User.
func UserFromDocument(doc docstore.Document) (User, error) {
	u, err := docstore.Decode[User](doc)
	if err != nil {
		return User{}, err
	}
	u.ID = doc.ID
	return u, nil
}

// EntryFromDocument maps a stored document to an Entry.
func EntryFromDocument(doc docstore.Document) (Entry, error) {
	e, err := docstore.Decode[Entry](doc)
	if err != nil {
		return Entry{}, err
	}
	e.ID = doc.ID
	e.Fields = make(map[string]any, len(doc.Data))
	for k, v := range doc.Data {
		e.Fields[k] = v
	}
	return e, nil
}

// ReportFromDocument maps a stored document to a Report.
// A timestamp-typed exposure date is rendered as a calendar date.
func ReportFromDocument(doc docstore.Document) (Report, error) {
	data := doc.Data
	if ts, ok := data["exposureDate"].(time.Time); ok {
		data = make(map[string]any, len(doc.Data))
		for k, v := range doc.Data {
			data[k] = v
		}
		data["exposureDate"] = ts.Format(time.DateOnly)
	}
	r, err := docstore.Decode[Report](docstore.Document{ID: doc.ID, Data: data})
	if err != nil {
		return Report{}, err
	}
	r.ID = doc.ID
	return r, nil
}
