package schema

import "github.com/dalemusser/memoria/internal/domain/models"

// commonRequired is required by every department.
var commonRequired = []Field{
	{models.FieldFullName, String},
	{models.FieldEmail, String},
	{models.FieldSchoolYearID, String},
}

// personalOptional are the personal fields any department may carry.
var personalOptional = []Field{
	{"nickname", String},
	{"age", Int},
	{"gender", String},
	{"birthday", Date},
	{"address", String},
	{"phone", String},
	{"profile_picture", URL},
	{"father_guardian_name", String},
	{"mother_guardian_name", String},
	{"motto", String},
	{"hobbies", StringList},
	{"achievements", StringList},
	{"facebook", URL},
	{"instagram", URL},
	{"twitter", URL},
}

func required(extra ...Field) []Field {
	out := make([]Field, 0, len(commonRequired)+len(extra))
	out = append(out, commonRequired...)
	return append(out, extra...)
}

func optional(extra ...Field) []Field {
	out := make([]Field, 0, len(personalOptional)+len(extra))
	out = append(out, extra...)
	return append(out, personalOptional...)
}

var baseSearch = []string{models.FieldFullName, "nickname", models.FieldEmail}

func search(extra ...string) []string {
	out := make([]string, 0, len(baseSearch)+len(extra))
	out = append(out, baseSearch...)
	return append(out, extra...)
}

func defaultDescriptors() []Descriptor {
	return []Descriptor{
		{
			Department:   models.College,
			Store:        "college_entries",
			Required:     required(Field{"year_level", String}, Field{"course_program", String}, Field{"block_section", String}),
			Optional:     optional(Field{"major", String}),
			SearchFields: search("course_program", "major", "block_section"),
		},
		{
			Department:   models.SeniorHigh,
			Store:        "senior_high_entries",
			Required:     required(Field{"grade_level", String}, Field{"strand", String}, Field{"section", String}),
			Optional:     optional(),
			SearchFields: search("strand", "section"),
		},
		{
			Department:   models.JuniorHigh,
			Store:        "junior_high_entries",
			Required:     required(Field{"grade_level", String}, Field{"section", String}),
			Optional:     optional(),
			SearchFields: search("section"),
		},
		{
			Department:   models.Elementary,
			Store:        "elementary_entries",
			Required:     required(Field{"grade_level", String}, Field{"section", String}),
			Optional:     optional(),
			SearchFields: search("section"),
		},
		{
			Department: models.Alumni,
			Store:      "alumni_entries",
			Required:   required(Field{"graduation_year", Int}, Field{"course_program", String}),
			Optional: optional(
				Field{"batch", String},
				Field{"current_occupation", String},
				Field{"company", String},
			),
			SearchFields: search("course_program", "batch"),
		},
		{
			Department: models.FacultyStaff,
			Store:      "faculty_staff_entries",
			Required:   required(Field{"position", String}, Field{"office", String}),
			Optional: optional(
				Field{"years_of_service", Int},
				Field{"department_name", String},
				Field{"specialization", String},
			),
			SearchFields: search("position", "office", "department_name"),
		},
		{
			Department: models.ARSisters,
			Store:      "ar_sisters_entries",
			Required:   required(Field{"position", String}, Field{"community", String}),
			Optional: optional(
				Field{"years_of_service", Int},
				Field{"congregation_entry_year", Int},
				Field{"ministry", String},
			),
			SearchFields: search("position", "community", "ministry"),
		},
	}
}
