// Package types provides the shop floor records shared across rimworks packages.
// Records here are plain data with validation; persistence lives in the store
// package and screen logic lives in the wizard, filter and dashboard packages.
package types

import (
	"strconv"
	"strings"
)

// =============================================================================
// OPERATOR
// =============================================================================

// Operator is an account created by an engineer. All operators share one
// JSON array file; records are never edited once saved.
type Operator struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	EPFNumber string `json:"epf_number"`
	Role      Role   `json:"role"`
}

// Field returns the named field as text for filtering and sorting.
func (o Operator) Field(name string) string {
	switch name {
	case "name":
		return o.Name
	case "username":
		return o.Username
	case "epf_number":
		return o.EPFNumber
	case "role":
		return string(o.Role)
	}
	return ""
}

// Validate checks that every field was filled in and the role is known.
func (o Operator) Validate() error {
	var errs ValidationErrors
	errs.Required("name", o.Name)
	errs.Required("username", o.Username)
	errs.Required("password", o.Password)
	errs.Required("epf_number", o.EPFNumber)
	if !o.Role.Valid() {
		errs.Add("role", o.Role, "must be one of "+joinRoles())
	}
	return errs.Err()
}

// Assignment is the subset of an operator copied onto a job.
func (o Operator) Assignment() JobOperator {
	return JobOperator{
		Username:  o.Username,
		Name:      o.Name,
		EPFNumber: o.EPFNumber,
		Role:      o.Role,
	}
}

// =============================================================================
// MOLD
// =============================================================================

// Mold describes one mold specification. Key is the file stem the record was
// loaded from or saved under and is not part of the JSON document.
type Mold struct {
	Vehicle      string       `json:"vehicle"`
	System       System       `json:"system"`
	MoldName     string       `json:"mold_name"`
	MoldType     MoldType     `json:"mold_type"`
	MoldNumber   string       `json:"mold_number"`
	LifeSpan     int          `json:"life_span"`
	PartNumber   string       `json:"part_number"`
	CreationType CreationType `json:"creation_type"`
	MixingRatio  string       `json:"mixing_ratio"`
	ChemicalType string       `json:"chemical_type"`
	Timestamp    string       `json:"timestamp"`

	Key string `json:"-"`
}

// MaxLifeSpan bounds the mold life in cycles.
const MaxLifeSpan = 10000

// MoldName derives the display name of a mold from its vehicle and system.
func MoldName(vehicle string, system System) string {
	vehicle = strings.TrimSpace(vehicle)
	if vehicle == "" || system == "" {
		return ""
	}
	return vehicle + "_" + string(system)
}

// FileKey returns the key the mold is stored under.
func (m Mold) FileKey() string {
	if m.Key != "" {
		return m.Key
	}
	if m.MoldName == "" || m.Timestamp == "" {
		return m.MoldName
	}
	return m.MoldName + "_" + m.Timestamp
}

// Field returns the named field as text for filtering and sorting.
func (m Mold) Field(name string) string {
	switch name {
	case "vehicle":
		return m.Vehicle
	case "system":
		return string(m.System)
	case "mold_name":
		return m.MoldName
	case "mold_type":
		return string(m.MoldType)
	case "mold_number":
		return m.MoldNumber
	case "life_span":
		return strconv.Itoa(m.LifeSpan)
	case "part_number":
		return m.PartNumber
	case "creation_type":
		return string(m.CreationType)
	case "mixing_ratio":
		return m.MixingRatio
	case "chemical_type":
		return m.ChemicalType
	case "timestamp":
		return m.Timestamp
	case "date":
		return m.Date()
	}
	return ""
}

// Date returns the YYYY-MM-DD part of the creation timestamp.
func (m Mold) Date() string {
	if len(m.Timestamp) < 8 {
		return ""
	}
	ts := m.Timestamp
	return ts[0:4] + "-" + ts[4:6] + "-" + ts[6:8]
}

// Validate checks mandatory fields and enumerations.
func (m Mold) Validate() error {
	var errs ValidationErrors
	errs.Required("vehicle", m.Vehicle)
	if strings.ContainsAny(m.Vehicle, `/\`) || strings.Contains(m.Vehicle, "..") {
		errs.Add("vehicle", m.Vehicle, `must not contain "/", "\" or ".."`)
	}
	errs.Required("mold_name", m.MoldName)
	errs.Required("mold_number", m.MoldNumber)
	errs.Required("part_number", m.PartNumber)
	if !m.System.Valid() {
		errs.Add("system", m.System, "must be one of "+strings.Join(enumStrings(Systems), ", "))
	}
	if !m.MoldType.Valid() {
		errs.Add("mold_type", m.MoldType, "must be one of "+strings.Join(enumStrings(MoldTypes), ", "))
	}
	if m.CreationType != "" && !m.CreationType.Valid() {
		errs.Add("creation_type", m.CreationType, "must be one of "+strings.Join(enumStrings(CreationTypes), ", "))
	}
	if m.LifeSpan < 1 || m.LifeSpan > MaxLifeSpan {
		errs.Add("life_span", m.LifeSpan, "must be between 1 and "+strconv.Itoa(MaxLifeSpan))
	}
	if !IsMixingRatio(m.MixingRatio) {
		errs.Add("mixing_ratio", m.MixingRatio, "must be one of "+strings.Join(MixingRatios, ", "))
	}
	if !IsChemicalType(m.ChemicalType) {
		errs.Add("chemical_type", m.ChemicalType, "must be one of "+strings.Join(ChemicalTypes, ", "))
	}
	return errs.Err()
}

// =============================================================================
// JOB
// =============================================================================

// JobOperator is the operator snapshot stored on a job.
type JobOperator struct {
	Username  string `json:"username"`
	Name      string `json:"name"`
	EPFNumber string `json:"epf_number"`
	Role      Role   `json:"role"`
}

// Job is the aggregate the job wizard builds one step at a time.
type Job struct {
	JobID         string       `json:"job_id"`
	Operator      *JobOperator `json:"operator,omitempty"`
	Mold          *Mold        `json:"mold,omitempty"`
	PartCount     int          `json:"part_count,omitempty"`
	StartDatetime DateTime     `json:"start_datetime,omitempty"`
	EndDatetime   DateTime     `json:"end_datetime,omitempty"`
	Status        JobStatus    `json:"status,omitempty"`
}

// MaxPartCount bounds the number of parts on a single job.
const MaxPartCount = 10000

// UnknownChemical groups jobs whose mold carries no chemical type.
const UnknownChemical = "Unknown"

// ChemicalType returns the chemical type of the job's mold or UnknownChemical.
func (j Job) ChemicalType() string {
	if j.Mold == nil || strings.TrimSpace(j.Mold.ChemicalType) == "" {
		return UnknownChemical
	}
	return j.Mold.ChemicalType
}

// DisplayStatus returns the status to show for the job. A job written
// without one counts as Not Started.
func (j Job) DisplayStatus() JobStatus {
	if strings.TrimSpace(string(j.Status)) == "" {
		return StatusNotStarted
	}
	return j.Status
}

// Clone returns a deep copy so callers cannot mutate wizard state.
func (j Job) Clone() Job {
	out := j
	if j.Operator != nil {
		op := *j.Operator
		out.Operator = &op
	}
	if j.Mold != nil {
		m := *j.Mold
		out.Mold = &m
	}
	return out
}

// ValidateSchedule checks the part count and time window of a job.
func ValidateSchedule(partCount int, start, end DateTime) error {
	var errs ValidationErrors
	if partCount < 1 || partCount > MaxPartCount {
		errs.Add("part_count", partCount, "must be between 1 and "+strconv.Itoa(MaxPartCount))
	}
	if start.IsZero() {
		errs.Add("start_datetime", start, "is required")
	}
	if end.IsZero() {
		errs.Add("end_datetime", end, "is required")
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start.Time) {
		errs.Add("end_datetime", end, "must be after start_datetime")
	}
	return errs.Err()
}

// Validate checks that a job is complete enough to be written to disk.
func (j Job) Validate() error {
	var errs ValidationErrors
	errs.Required("job_id", j.JobID)
	if j.Operator == nil || strings.TrimSpace(j.Operator.Username) == "" {
		errs.Add("operator", nil, "is required")
	}
	if j.Mold == nil {
		errs.Add("mold", nil, "is required")
	}
	if err := ValidateSchedule(j.PartCount, j.StartDatetime, j.EndDatetime); err != nil {
		errs = append(errs, err.(ValidationErrors)...)
	}
	if !j.Status.Valid() {
		errs.Add("status", j.Status, "must be one of "+strings.Join(enumStrings(JobStatuses), ", "))
	}
	return errs.Err()
}
