// internal/domain/models/department.go
package models

import (
	"errors"
	"strings"
)

// Department selects the record schema and the physical collection an Entry
// lives in. The set is closed; every value must be registered in the schema
// registry.
type Department string

const (
	College      Department = "college"
	SeniorHigh   Department = "senior_high"
	JuniorHigh   Department = "junior_high"
	Elementary   Department = "elementary"
	Alumni       Department = "alumni"
	FacultyStaff Department = "faculty_staff"
	ARSisters    Department = "ar_sisters"
)

// Departments lists every department in display order.
var Departments = []Department{
	College,
	SeniorHigh,
	JuniorHigh,
	Elementary,
	Alumni,
	FacultyStaff,
	ARSisters,
}

// ErrUnknownDepartment is returned by ParseDepartment for unrecognized input.
var ErrUnknownDepartment = errors.New("unknown department")

// departmentAliases maps folded labels (lowercase, no spaces, dashes or
// underscores) to the canonical tag.
var departmentAliases = map[string]Department{
	"college":           College,
	"seniorhigh":        SeniorHigh,
	"seniorhighschool":  SeniorHigh,
	"shs":               SeniorHigh,
	"juniorhigh":        JuniorHigh,
	"juniorhighschool":  JuniorHigh,
	"jhs":               JuniorHigh,
	"elementary":        Elementary,
	"gradeschool":       Elementary,
	"alumni":            Alumni,
	"facultystaff":      FacultyStaff,
	"facultyandstaff":   FacultyStaff,
	"faculty":           FacultyStaff,
	"staff":             FacultyStaff,
	"arsisters":         ARSisters,

	"augustinianrecollectsisters": ARSisters,
}

// ParseDepartment accepts the canonical tag or a human label such as
// "Senior High" or "AR Sisters" (case-insensitive).
func ParseDepartment(s string) (Department, error) {
	folded := strings.ToLower(strings.TrimSpace(s))
	folded = strings.NewReplacer(" ", "", "-", "", "_", "", "&", "and").Replace(folded)
	if d, ok := departmentAliases[folded]; ok {
		return d, nil
	}
	return "", ErrUnknownDepartment
}

// Label returns a human-readable department name.
func (d Department) Label() string {
	switch d {
	case College:
		return "College"
	case SeniorHigh:
		return "Senior High"
	case JuniorHigh:
		return "Junior High"
	case Elementary:
		return "Elementary"
	case Alumni:
		return "Alumni"
	case FacultyStaff:
		return "Faculty & Staff"
	case ARSisters:
		return "AR Sisters"
	}
	return string(d)
}
