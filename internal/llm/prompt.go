package llm

import (
	"strconv"
	"strings"
)

// BuildPrompt composes the extraction instruction for one resume. The resume
// text is truncated to maxTextChars so long documents stay inside the
// provider's token budget; the full field set rides along as the JSON Schema
// the client appends to the request.
func BuildPrompt(resumeText, filename string, maxTextChars int) string {
	if maxTextChars > 0 && len(resumeText) > maxTextChars {
		resumeText = resumeText[:maxTextChars]
	}

	var b strings.Builder
	b.WriteString("Analyze this resume and extract the requested candidate profile. Be precise and realistic in your assessments.\n\n")
	b.WriteString("IMPORTANT:\n")
	b.WriteString("- Set resume_filename to: " + filename + "\n")
	b.WriteString("- ALL field names must match EXACTLY (no extra spaces or typos)\n")
	b.WriteString("- ALL required fields must be present - do not skip any fields\n")
	b.WriteString("- Use empty string \"\" for missing links, not null\n")
	b.WriteString("- Return VALID JSON only - no extra text, tags, or formatting\n\n")
	b.WriteString("RESUME TEXT:\n")
	b.WriteString(resumeText)
	b.WriteString("\n\nGuidance:\n")
	b.WriteString(strings.Join(promptGuidance, "\n"))
	return b.String()
}

// StrictSuffix returns the reinforcement appended after a schema-validation
// failure. It enumerates every required field name and the exact expected
// count, derived from the field table so the list can never go stale.
func StrictSuffix() string {
	names := FieldNames()
	var b strings.Builder
	b.WriteString("\n\nCRITICAL: Your response must include ALL these exact field names:\n")
	b.WriteString(strings.Join(names, ", "))
	b.WriteString("\n\nEXACT field count required: " + strconv.Itoa(len(names)) + " fields\n")
	b.WriteString("DO NOT add extra spaces, typos, or skip any fields.\n")
	b.WriteString("Return clean JSON without any extra tags or text.")
	return b.String()
}

var promptGuidance = []string{
	"1. Basic information: full name (fall back to the filename if unclear), email, GitHub and LinkedIn URLs (empty string if absent), country and city of residence.",
	"2. Job level: Intern (students, internships only), AMTS (0-2 years), MTS (2-4), SMTS (4-7), LMTS (7-10, tech lead), PMTS (10+, principal/architect).",
	"3. Experience years: use decimals like 2.5 where appropriate; professional experience only, not coursework; 0 for missing AI/cloud/LLM experience.",
	"4. Education: years of college, highest degree, bachelor's and graduate universities (full names), university tier for CS (1=MIT/Stanford/CMU class, 2=Purdue/UCLA class, 3=good state schools, 4=average, 5=below average or unknown), overall and CS world rankings (0 if completely unknown), GPAs on a 4.0 scale (0.0 if not mentioned).",
	"5. Companies: all employers most-recent first, comma-separated; company tier by the most impressive employer (1=FAANG/top tech, 2=well-known/unicorn, 3=established non-tech or consulting, 4=startup/small, 5=unknown or none).",
	"6. Skill levels are 1-5: 1=none, 2=basic (tutorials, simple projects), 3=intermediate (used professionally), 4=advanced (complex projects, mentors others), 5=expert (architect level, recognized contributor).",
	"7. Also list concrete AWS services, database technologies, AI developer tools, and LLM APIs the candidate has used.",
	"8. Work style: startup experience (5=founder/early employee), open source (5=maintainer), leadership (5=managed teams), plus evidence of autonomous work such as freelancing or solo projects.",
	"9. Aggregate scores are 1-10 and RELATIVE TO THE CANDIDATE'S JOB LEVEL: academic, CS fundamentals, industry, full-stack, open source, accomplishments. Compare an AMTS to other AMTS-level engineers, not to principals. Weight CS ranking over overall ranking. overall_score is the average of the six, rounded to one decimal.",
	"10. Extract the three most impressive accomplishments, favoring quantifiable impact, awards, publications, and leadership.",
	"Be accurate and conservative. When information is unclear, make reasonable inferences from context.",
}
