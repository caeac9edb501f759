package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FieldKind is the wire/CSV type of one profile field.
type FieldKind int

const (
	KindString FieldKind = iota
	KindInt
	KindFloat
)

// Field describes one column of the candidate profile. The ordered field
// table below is the single source of truth for the JSON-Schema constraint,
// local validation, the CSV column order, and the strict-prompt field
// enumeration, so none of those can drift apart.
type Field struct {
	Name string
	Kind FieldKind
	Desc string
}

// KeyField holds the work-item key. It is always the first column.
const KeyField = "resume_filename"

var profileFields = []Field{
	{KeyField, KindString, "Original filename of the resume"},
	{"candidate_name", KindString, "Full name of the candidate"},
	{"email", KindString, "Email address of the candidate"},
	{"github_link", KindString, "GitHub profile URL, empty string if not found"},
	{"linkedin_link", KindString, "LinkedIn profile URL, empty string if not found"},
	{"country", KindString, "Country of residence"},
	{"city", KindString, "City of residence"},
	{"estimated_job_level", KindString, "Estimated job level (Intern, AMTS, MTS, SMTS, LMTS, PMTS based on experience and skills)"},
	{"programming_experience_years", KindFloat, "Total years of programming/software development experience in industry"},
	{"ai_experience_years", KindFloat, "Years of AI/ML experience, 0 if none"},
	{"college_education_years", KindInt, "Total years of college education (4 for bachelors, 6 for masters, 8+ for PhD)"},
	{"highest_degree", KindString, "Highest degree obtained (e.g., Bachelors, Masters, PhD)"},
	{"bachelors_university", KindString, "University attended for bachelor's degree"},
	{"graduate_university", KindString, "University attended for graduate degree (Masters/PhD), empty if none"},
	{"university_tier", KindInt, "University tier for CS program (1=top tier like MIT/Stanford, 2=excellent, 3=good, 4=average, 5=below average)"},
	{"overall_world_ranking", KindInt, "Overall world ranking of best university attended (1-2000+, 0 if unknown)"},
	{"cs_world_ranking", KindInt, "CS program world ranking of best university attended (1-500+, 0 if unknown)"},
	{"bachelors_gpa", KindFloat, "GPA for bachelor's degree (0.0-4.0 scale, 0.0 if not mentioned)"},
	{"masters_gpa", KindFloat, "GPA for master's degree (0.0-4.0 scale, 0.0 if not mentioned or no masters)"},
	{"companies_worked", KindString, "List of companies worked at, ordered by recency, comma-separated"},
	{"company_tier", KindInt, "Tier of most impressive work experience (1=FAANG/top tech, 2=unicorn/well-known, 3=established company, 4=startup, 5=unknown)"},
	{"javascript_skill_level", KindInt, "JavaScript/TypeScript skill level (1=none, 2=basic, 3=intermediate, 4=advanced, 5=expert)"},
	{"python_skill_level", KindInt, "Python skill level (1=none, 2=basic, 3=intermediate, 4=advanced, 5=expert)"},
	{"cloud_skill_level", KindInt, "Cloud infrastructure skill level (1=none, 2=basic, 3=intermediate, 4=advanced, 5=expert)"},
	{"llm_skill_level", KindInt, "LLM/NLP skill level (1=none, 2=basic, 3=intermediate, 4=advanced, 5=expert)"},
	{"cs_internships", KindInt, "Number of CS-related internships"},
	{"cloud_experience_years", KindFloat, "Years of cloud experience (AWS, Azure, GCP), 0 if none"},
	{"llm_experience_years", KindFloat, "Years of LLM/NLP experience, 0 if none"},
	{"react_strength", KindInt, "React.js expertise level (1=none, 5=expert)"},
	{"typescript_strength", KindInt, "TypeScript expertise level (1=none, 5=expert)"},
	{"nextjs_strength", KindInt, "Next.js expertise level (1=none, 5=expert)"},
	{"api_design_strength", KindInt, "REST API design expertise (1=none, 5=designed complex APIs)"},
	{"tailwind_strength", KindInt, "Tailwind CSS expertise (1=none, 5=expert)"},
	{"git_strength", KindInt, "Git/GitHub expertise (1=none, 5=advanced workflows)"},
	{"agile_strength", KindInt, "Agile/Scrum expertise (1=none, 5=led sprints)"},
	{"aws_services_experience", KindString, "AWS services used (Lambda, S3, API Gateway, etc.)"},
	{"database_technologies", KindString, "Database technologies used (PostgreSQL, MongoDB, DynamoDB, etc.)"},
	{"ai_tools_experience", KindString, "AI developer tools used (Cursor, Copilot, etc.)"},
	{"llm_api_experience", KindString, "LLM APIs used (OpenAI, Anthropic, Gemini, etc.)"},
	{"startup_experience_strength", KindInt, "Startup experience level (1=none, 5=founded or early employee)"},
	{"open_source_strength", KindInt, "Open source contribution level (1=none, 5=maintainer)"},
	{"leadership_strength", KindInt, "Leadership experience level (1=none, 5=managed teams)"},
	{"autonomy_indicators", KindString, "Evidence of autonomous work (freelance, solo projects, etc.)"},
	{"algorithms_strength", KindInt, "Algorithm/data structure strength (1-5 based on projects, education, competitions)"},
	{"system_design_strength", KindInt, "System design/architecture expertise (1=none, 5=designed large systems)"},
	{"academic_strength", KindInt, "Academic strength relative to experience level (1-10)"},
	{"cs_strength", KindInt, "CS fundamentals strength relative to experience level (1-10)"},
	{"industry_strength", KindInt, "Industry experience strength relative to experience level (1-10)"},
	{"fullstack_strength", KindInt, "Full-stack development strength relative to experience level (1-10)"},
	{"opensource_strength", KindInt, "Open source contribution strength relative to experience level (1-10)"},
	{"accomplishments_strength", KindInt, "Accomplishments strength relative to experience level (1-10)"},
	{"overall_score", KindFloat, "Average of the 6 strength scores, one decimal"},
	{"accomplishment_1", KindString, "Most impressive accomplishment"},
	{"accomplishment_2", KindString, "Second most impressive accomplishment"},
	{"accomplishment_3", KindString, "Third most impressive accomplishment"},
}

// Fields returns the ordered profile field table.
func Fields() []Field {
	return profileFields
}

// FieldNames returns the schema-defined column order. This is the fixed
// CSV header for checkpoint, final and resume writes alike.
func FieldNames() []string {
	names := make([]string, len(profileFields))
	for i, f := range profileFields {
		names[i] = f.Name
	}
	return names
}

// FieldCount returns the exact number of fields the model must produce.
func FieldCount() int {
	return len(profileFields)
}

// BuildProfileJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass this to the provider as a structured output constraint
// and also use it locally to validate.
func BuildProfileJSONSchema() map[string]any {
	props := make(map[string]any, len(profileFields))
	required := make([]string, 0, len(profileFields))
	for _, f := range profileFields {
		props[f.Name] = map[string]any{
			"type":        jsonType(f.Kind),
			"description": f.Desc,
		}
		required = append(required, f.Name)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func jsonType(k FieldKind) string {
	switch k {
	case KindInt:
		return "integer"
	case KindFloat:
		return "number"
	default:
		return "string"
	}
}

// FlattenRecord converts a schema-valid JSON object into a Record with every
// value rendered as its CSV cell. Call only after schema validation.
func FlattenRecord(data []byte) (Record, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	rec := make(Record, len(profileFields))
	for _, f := range profileFields {
		v, ok := raw[f.Name]
		if !ok {
			return nil, fmt.Errorf("field %q missing from validated record", f.Name)
		}
		cell, err := formatCell(f, v)
		if err != nil {
			return nil, err
		}
		rec[f.Name] = cell
	}
	return rec, nil
}

func formatCell(f Field, v any) (string, error) {
	switch f.Kind {
	case KindInt:
		n, ok := v.(float64)
		if !ok {
			return "", fmt.Errorf("field %q: expected number, got %T", f.Name, v)
		}
		return strconv.FormatInt(int64(n), 10), nil
	case KindFloat:
		n, ok := v.(float64)
		if !ok {
			return "", fmt.Errorf("field %q: expected number, got %T", f.Name, v)
		}
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	default:
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("field %q: expected string, got %T", f.Name, v)
		}
		return s, nil
	}
}
