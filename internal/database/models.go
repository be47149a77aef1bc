package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document kinds. One document per user+kind is created lazily on first
// access.
const (
	KindBusinessPlan = "business-plan"
	KindCV           = "cv"
	KindCoverLetter  = "lettre-motivation"
)

// Document lifecycle. The draft→published transition is one-directional and
// driven by the completeness schema.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Evaluation lifecycle while the review task is in flight.
const (
	EvaluationPending   = "pending"
	EvaluationCompleted = "completed"
	EvaluationFailed    = "failed"
)

// User is an account. Deleting a user cascades to everything it owns.
type User struct {
	gorm.Model
	Username     string     `gorm:"uniqueIndex;size:64"`
	PasswordHash string     `gorm:"size:255"`
	Documents    []Document `gorm:"constraint:OnDelete:CASCADE"`
	Assets       []Asset    `gorm:"constraint:OnDelete:CASCADE"`
}

// Document is one user-owned artifact: business plan, CV or cover letter.
// Content is the nested section/field tree the merge engine operates on.
type Document struct {
	gorm.Model
	Kind    string         `gorm:"size:32;index:idx_documents_user_kind"`
	Title   string         `gorm:"size:255"`
	Content datatypes.JSON `gorm:"type:jsonb"`
	Status  string         `gorm:"size:32;default:draft"`
	PdfUrl  string         `gorm:"size:512"`
	UserID  uint           `gorm:"index:idx_documents_user_kind"`
	User    User           `gorm:"constraint:OnDelete:CASCADE"`

	Financial  *FinancialRecord `gorm:"constraint:OnDelete:CASCADE"`
	Evaluation *Evaluation      `gorm:"constraint:OnDelete:CASCADE"`
	Binding    *TemplateBinding `gorm:"constraint:OnDelete:CASCADE"`
}

// FinancialRecord holds the cost collections attached to one business plan.
// Produits and CapitalDemarrage carry computed totals; the remaining
// collections are stored as submitted.
type FinancialRecord struct {
	gorm.Model
	DocumentID       uint           `gorm:"uniqueIndex"`
	Produits         datatypes.JSON `gorm:"type:jsonb"`
	CapitalDemarrage datatypes.JSON `gorm:"type:jsonb"`
	Prets            datatypes.JSON `gorm:"type:jsonb"`
	Personnel        datatypes.JSON `gorm:"type:jsonb"`
	PrevisionsVentes datatypes.JSON `gorm:"type:jsonb"`
}

// Evaluation stores the questionnaire answers and the sectioned AI review.
// One per document, created or refreshed idempotently.
type Evaluation struct {
	gorm.Model
	DocumentID    uint           `gorm:"uniqueIndex"`
	Reponses      datatypes.JSON `gorm:"type:jsonb"`
	Status        string         `gorm:"size:32;default:pending"`
	Positifs      string         `gorm:"type:text"`
	Negatifs      string         `gorm:"type:text"`
	Ameliorations string         `gorm:"type:text"`
	ReportUrl     string         `gorm:"size:512"`
}

// Template is a reusable rendering template, private to its creator unless
// IsPublic.
type Template struct {
	gorm.Model
	Title           string         `gorm:"size:255"`
	PreviewImageURL string         `gorm:"size:512"`
	Content         datatypes.JSON `gorm:"type:jsonb"`
	IsPublic        bool           `gorm:"default:false"`
	UserID          uint           `gorm:"index"`
	User            User           `gorm:"constraint:OnDelete:CASCADE"`
}

// TemplateBinding associates a document with its chosen template plus
// free-form style overrides consumed by the renderer.
type TemplateBinding struct {
	gorm.Model
	DocumentID     uint           `gorm:"uniqueIndex"`
	TemplateID     uint           `gorm:"index"`
	Template       Template       `gorm:"constraint:OnDelete:CASCADE"`
	StyleOverrides datatypes.JSON `gorm:"type:jsonb"`
}

// Asset is one uploaded user file (logo, photo) living in object storage.
type Asset struct {
	gorm.Model
	UserID    uint   `gorm:"index"`
	ObjectKey string `gorm:"size:512;uniqueIndex"`
}
