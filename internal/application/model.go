package application

import (
	"time"

	"gorm.io/datatypes"
)

// StakeholderType is the applicant category. It determines which
// application types and categories apply.
type StakeholderType string

const (
	StakeholderMiller         StakeholderType = "miller"
	StakeholderImporter       StakeholderType = "importer"
	StakeholderExporter       StakeholderType = "exporter"
	StakeholderSugarDealer    StakeholderType = "sugar_dealer"
	StakeholderMolassesDealer StakeholderType = "molasses_dealer"
)

type ApplicationType string

const (
	TypeRegistration   ApplicationType = "registration"
	TypeLicense        ApplicationType = "license"
	TypePermit         ApplicationType = "permit"
	TypeLetterOfIntent ApplicationType = "letter_of_intent"
)

// Category applies to miller registrations only.
type Category string

const (
	CategoryMill    Category = "mill"
	CategoryJaggery Category = "jaggery"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// InvestmentBreakdown holds the seven line items of the proposed
// investment. The total is derived, never set directly.
type InvestmentBreakdown struct {
	PreExpenses       float64 `json:"pre_expenses"`
	LandBuildings     float64 `json:"land_buildings"`
	PlantEquipment    float64 `json:"plant_equipment"`
	Vehicles          float64 `json:"vehicles"`
	FurnitureFittings float64 `json:"furniture_fittings"`
	WorkingCapital    float64 `json:"working_capital"`
	Others            float64 `json:"others"`
	Total             float64 `json:"total"`
}

// Sum recomputes the derived total from the seven line items.
func (b InvestmentBreakdown) Sum() float64 {
	return b.PreExpenses + b.LandBuildings + b.PlantEquipment + b.Vehicles +
		b.FurnitureFittings + b.WorkingCapital + b.Others
}

// Application is a license/registration/permit application moving through
// the board's review pipeline.
type Application struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	StakeholderType StakeholderType `gorm:"size:30;not null;index" json:"stakeholder_type"`
	ApplicationType ApplicationType `gorm:"size:30;not null;index" json:"application_type"`
	Category        Category        `gorm:"size:20" json:"category,omitempty"`

	// Applicant company details
	CompanyName   string `gorm:"size:200" json:"company_name"`
	PostalAddress string `gorm:"size:200" json:"postal_address"`
	County        string `gorm:"size:100" json:"county"`
	Email         string `gorm:"size:150" json:"email"`
	Phone         string `gorm:"size:30" json:"phone"`

	// Capacity figures (tonnes cane per day / tonnes per year)
	CrushingCapacityTCD  float64 `json:"crushing_capacity_tcd"`
	AnnualCapacityTonnes float64 `json:"annual_capacity_tonnes"`

	// Investment breakdown, total derived
	Investment InvestmentBreakdown `gorm:"embedded;embeddedPrefix:inv_" json:"investment"`

	// Declarations. AgreeTerms is only required for permits.
	DeclarationAccuracy   bool `gorm:"default:false" json:"declaration_accuracy"`
	DeclarationCompliance bool `gorm:"default:false" json:"declaration_compliance"`
	DeclarationInspection bool `gorm:"default:false" json:"declaration_inspection"`
	AgreeTerms            bool `gorm:"default:false" json:"agree_terms"`

	// Company document slots: slot name -> file reference. One file per
	// slot, attaching again replaces.
	Documents datatypes.JSONMap `gorm:"type:jsonb" json:"documents"`

	Directors []Director `gorm:"foreignKey:ApplicationID" json:"directors"`

	Status  Status `gorm:"size:20;not null;index" json:"status"`
	Stage   *Stage `gorm:"size:20;index" json:"stage,omitempty"` // absent while draft
	Version int    `gorm:"not null;default:1" json:"version"`    // optimistic concurrency

	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`

	CreatedBy  uint  `gorm:"not null;index" json:"created_by"`
	ReviewedBy *uint `json:"reviewed_by,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Application) TableName() string {
	return "applications"
}

// Director is a company director sub-record. Each director carries three
// required document slots.
type Director struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ApplicationID string `gorm:"size:36;not null;index" json:"application_id"`
	FullName      string `gorm:"size:200;not null" json:"full_name"`
	Nationality   string `gorm:"size:100" json:"nationality"`

	// Required document slots
	IDCopyRef      string `gorm:"size:500" json:"id_copy_ref"`
	PINCertRef     string `gorm:"size:500" json:"pin_cert_ref"`
	ConductCertRef string `gorm:"size:500" json:"conduct_cert_ref"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Director) TableName() string {
	return "application_directors"
}

// FileRef describes an uploaded document held by the board's document
// store. Upload handling lives outside this service; only the reference
// is recorded here.
type FileRef struct {
	FileName    string    `json:"file_name"`
	FileURL     string    `json:"file_url"`
	FileSize    int64     `json:"file_size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// DraftPatch carries the mutable draft fields. Nil pointers leave the
// current value untouched. The investment total cannot be patched; it is
// recomputed after every apply.
type DraftPatch struct {
	CompanyName   *string `json:"company_name"`
	PostalAddress *string `json:"postal_address"`
	County        *string `json:"county"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`

	CrushingCapacityTCD  *float64 `json:"crushing_capacity_tcd"`
	AnnualCapacityTonnes *float64 `json:"annual_capacity_tonnes"`

	PreExpenses       *float64 `json:"pre_expenses"`
	LandBuildings     *float64 `json:"land_buildings"`
	PlantEquipment    *float64 `json:"plant_equipment"`
	Vehicles          *float64 `json:"vehicles"`
	FurnitureFittings *float64 `json:"furniture_fittings"`
	WorkingCapital    *float64 `json:"working_capital"`
	Others            *float64 `json:"others"`

	DeclarationAccuracy   *bool `json:"declaration_accuracy"`
	DeclarationCompliance *bool `json:"declaration_compliance"`
	DeclarationInspection *bool `json:"declaration_inspection"`
	AgreeTerms            *bool `json:"agree_terms"`
}

// ListFilter narrows application listings.
type ListFilter struct {
	Status          Status          `json:"status"`
	Stage           Stage           `json:"stage"`
	StakeholderType StakeholderType `json:"stakeholder_type"`
	ApplicationType ApplicationType `json:"application_type"`
	CreatedBy       uint            `json:"created_by"`
	Page            int             `json:"page"`
	Limit           int             `json:"limit"`
}

// StageProgress is one row of the progress tracker shown on the
// application status page.
type StageProgress struct {
	Stage  Stage  `json:"stage"`
	Status string `json:"status"` // completed | current | pending | skipped
}
