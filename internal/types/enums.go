package types

import "strings"

// Role is the job function of an operator account.
type Role string

const (
	RoleOperator          Role = "Operator"
	RoleSupervisor        Role = "Supervisor"
	RoleTechnician        Role = "Technician"
	RoleQualityController Role = "Quality Controller"
	RoleExecutive         Role = "Executive"
)

// Roles lists roles in form order.
var Roles = []Role{RoleOperator, RoleSupervisor, RoleTechnician, RoleQualityController, RoleExecutive}

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return contains(Roles, r) }

// ParseRole matches s against the known roles ignoring case and surrounding space.
func ParseRole(s string) (Role, bool) { return parseEnum(Roles, s) }

// System is the vehicle system a mold belongs to.
type System string

const (
	SystemSteering   System = "Steering"
	SystemBraking    System = "Braking"
	SystemSuspension System = "Suspension"
	SystemOther      System = "Other"
)

var Systems = []System{SystemSteering, SystemBraking, SystemSuspension, SystemOther}

func (s System) Valid() bool { return contains(Systems, s) }

func ParseSystem(s string) (System, bool) { return parseEnum(Systems, s) }

// MoldType is the silicone grade of a mold.
type MoldType string

const (
	MoldTypeSoftSilicon MoldType = "Soft Silicon"
	MoldTypeHardSilicon MoldType = "Hard Silicon"
)

var MoldTypes = []MoldType{MoldTypeSoftSilicon, MoldTypeHardSilicon}

func (t MoldType) Valid() bool { return contains(MoldTypes, t) }

func ParseMoldType(s string) (MoldType, bool) { return parseEnum(MoldTypes, s) }

// CreationType records why a mold was made.
type CreationType string

const (
	CreationPreviousLifeComplete CreationType = "Previous mold life complete"
	CreationNewPart              CreationType = "New part"
)

var CreationTypes = []CreationType{CreationPreviousLifeComplete, CreationNewPart}

func (c CreationType) Valid() bool { return contains(CreationTypes, c) }

func ParseCreationType(s string) (CreationType, bool) { return parseEnum(CreationTypes, s) }

// JobStatus is the lifecycle status of a job.
type JobStatus string

const (
	StatusNotStarted JobStatus = "Not Started"
	StatusInProgress JobStatus = "In Progress"
	StatusCompleted  JobStatus = "Completed"
)

var JobStatuses = []JobStatus{StatusNotStarted, StatusInProgress, StatusCompleted}

func (s JobStatus) Valid() bool { return contains(JobStatuses, s) }

// MixingRatios are the calibration ratio identifiers A through J.
var MixingRatios = []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}

// ChemicalTypes are the chemical identifiers A through D.
var ChemicalTypes = []string{"A", "B", "C", "D"}

func IsMixingRatio(s string) bool { return contains(MixingRatios, s) }

func IsChemicalType(s string) bool { return contains(ChemicalTypes, s) }

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func parseEnum[T ~string](set []T, s string) (T, bool) {
	s = strings.TrimSpace(s)
	for _, v := range set {
		if strings.EqualFold(string(v), s) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func enumStrings[T ~string](set []T) []string {
	out := make([]string, len(set))
	for i, v := range set {
		out[i] = string(v)
	}
	return out
}

func joinRoles() string { return strings.Join(enumStrings(Roles), ", ") }
