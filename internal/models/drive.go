package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// DriveStatus enumerates the lifecycle states of a placement drive.
type DriveStatus string

// Drive lifecycle states.
const (
	DriveStatusDraft            DriveStatus = "draft"
	DriveStatusPublished        DriveStatus = "published"
	DriveStatusOpen             DriveStatus = "open"
	DriveStatusOngoing          DriveStatus = "ongoing"
	DriveStatusCompleted        DriveStatus = "completed"
	DriveStatusResultsPublished DriveStatus = "results_published"
	DriveStatusCancelled        DriveStatus = "cancelled"
)

// Operation identifies a drive-level action gated by the lifecycle state.
type Operation string

// Operations gated by drive status.
const (
	OperationUpdate        Operation = "update"
	OperationRegister      Operation = "register"
	OperationUnregister    Operation = "unregister"
	OperationSubmitResults Operation = "submit_results"
	OperationUpdateResult  Operation = "update_result"
	OperationDelete        Operation = "delete"
)

// driveTransitions is the authoritative transition table. Cancellation is legal
// from any state that has not yet reached completion.
var driveTransitions = map[DriveStatus][]DriveStatus{
	DriveStatusDraft:            {DriveStatusPublished, DriveStatusCancelled},
	DriveStatusPublished:        {DriveStatusOpen, DriveStatusCancelled},
	DriveStatusOpen:             {DriveStatusOngoing, DriveStatusCancelled},
	DriveStatusOngoing:          {DriveStatusCompleted, DriveStatusCancelled},
	DriveStatusCompleted:        {DriveStatusResultsPublished},
	DriveStatusResultsPublished: {},
	DriveStatusCancelled:        {},
}

// driveOperations maps each status to the operations it admits. Withdrawal
// stays legal through ongoing; the drive-date check is the real gate there.
var driveOperations = map[DriveStatus][]Operation{
	DriveStatusDraft:            {OperationUpdate, OperationDelete},
	DriveStatusPublished:        {OperationUpdate, OperationDelete},
	DriveStatusOpen:             {OperationUpdate, OperationRegister, OperationUnregister},
	DriveStatusOngoing:          {OperationUnregister},
	DriveStatusCompleted:        {OperationSubmitResults, OperationUpdateResult},
	DriveStatusResultsPublished: {OperationUpdateResult},
	DriveStatusCancelled:        {},
}

// Valid reports whether the status is a known lifecycle state.
func (s DriveStatus) Valid() bool {
	_, ok := driveTransitions[s]
	return ok
}

// Terminal reports whether no further transition is possible.
func (s DriveStatus) Terminal() bool {
	return len(driveTransitions[s]) == 0 && s.Valid()
}

// CanTransition reports whether the drive may move from one status to another.
func CanTransition(from, to DriveStatus) bool {
	for _, next := range driveTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LegalOperations returns the operations admitted in the given status.
func LegalOperations(s DriveStatus) []Operation {
	ops := driveOperations[s]
	out := make([]Operation, len(ops))
	copy(out, ops)
	return out
}

// Allows reports whether the operation is legal in the given status.
func (s DriveStatus) Allows(op Operation) bool {
	for _, allowed := range driveOperations[s] {
		if allowed == op {
			return true
		}
	}
	return false
}

// Drive represents a company's job-opening campaign with eligibility criteria
// and a registration window, scoped to an account.
type Drive struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	AccountID            uint           `gorm:"index;not null" json:"account_id"`
	CompanyID            uint           `gorm:"index;not null" json:"company_id"`
	JobTitle             string         `gorm:"size:255;not null" json:"job_title"`
	Description          string         `gorm:"type:text" json:"description"`
	MinCGPA              float64        `gorm:"not null;default:0" json:"min_cgpa"`
	MaxBacklogs          int            `gorm:"not null;default:0" json:"max_backlogs"`
	BranchesRaw          datatypes.JSON `gorm:"column:eligible_branches;type:json" json:"-"`
	SemestersRaw         datatypes.JSON `gorm:"column:eligible_semesters;type:json" json:"-"`
	SkillsRaw            datatypes.JSON `gorm:"column:required_skills;type:json" json:"-"`
	CTC                  float64        `gorm:"not null;default:0" json:"ctc"`
	RegistrationDeadline time.Time      `gorm:"not null" json:"registration_deadline"`
	DriveDate            time.Time      `gorm:"not null" json:"drive_date"`
	Status               DriveStatus    `gorm:"size:32;not null;default:draft" json:"status"`
	CreatedBy            uint           `json:"created_by"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	Company              Company        `gorm:"foreignKey:CompanyID;references:ID" json:"company"`
}

// SetEligibleBranches serializes the branch restriction set. An empty set means
// no restriction.
func (d *Drive) SetEligibleBranches(branches []string) {
	d.BranchesRaw = encodeJSONColumn(branches)
}

// EligibleBranches deserializes the branch restriction set.
func (d Drive) EligibleBranches() []string {
	var branches []string
	decodeJSONColumn(d.BranchesRaw, &branches)
	return branches
}

// SetEligibleSemesters serializes the semester restriction set.
func (d *Drive) SetEligibleSemesters(semesters []int) {
	d.SemestersRaw = encodeJSONColumn(semesters)
}

// EligibleSemesters deserializes the semester restriction set.
func (d Drive) EligibleSemesters() []int {
	var semesters []int
	decodeJSONColumn(d.SemestersRaw, &semesters)
	return semesters
}

// SetRequiredSkills serializes the advisory skill list used for ranking.
func (d *Drive) SetRequiredSkills(skills []string) {
	d.SkillsRaw = encodeJSONColumn(skills)
}

// RequiredSkills deserializes the advisory skill list.
func (d Drive) RequiredSkills() []string {
	var skills []string
	decodeJSONColumn(d.SkillsRaw, &skills)
	return skills
}

// RegistrationClosed reports whether the registration deadline has passed.
func (d Drive) RegistrationClosed(now time.Time) bool {
	return now.After(d.RegistrationDeadline)
}

// Started reports whether the drive date has been reached.
func (d Drive) Started(now time.Time) bool {
	return !now.Before(d.DriveDate)
}

func encodeJSONColumn(value interface{}) datatypes.JSON {
	data, err := json.Marshal(value)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(data)
}

func decodeJSONColumn(raw datatypes.JSON, target interface{}) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, target)
}
