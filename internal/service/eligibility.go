package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/placement-go-api/internal/models"
)

// EligibilityResult is the outcome of checking one student against one drive's
// criteria. Reasons lists every unmet criterion, not just the first.
type EligibilityResult struct {
	Eligible bool
	Reasons  []string
}

// EvaluateEligibility checks a student against a drive's hard criteria. The
// evaluation is pure: same inputs, same outcome, no clock or store access.
// Empty branch or semester sets mean the criterion is unrestricted. A student
// already holding a placement is never eligible. Required skills are advisory
// only and never appear in the reasons.
func EvaluateEligibility(student models.Student, drive models.Drive) EligibilityResult {
	var reasons []string

	if student.CGPA < drive.MinCGPA {
		reasons = append(reasons, fmt.Sprintf("CGPA %.2f is below the required minimum %.2f", student.CGPA, drive.MinCGPA))
	}

	if student.Backlogs > drive.MaxBacklogs {
		reasons = append(reasons, fmt.Sprintf("%d backlogs exceed the allowed maximum %d", student.Backlogs, drive.MaxBacklogs))
	}

	if branches := drive.EligibleBranches(); len(branches) > 0 && !containsFold(branches, student.Branch) {
		reasons = append(reasons, fmt.Sprintf("branch %s is not among the eligible branches", student.Branch))
	}

	if semesters := drive.EligibleSemesters(); len(semesters) > 0 && !containsInt(semesters, student.Semester) {
		reasons = append(reasons, fmt.Sprintf("semester %d is not among the eligible semesters", student.Semester))
	}

	if student.IsPlaced {
		reasons = append(reasons, "student is already placed")
	}

	return EligibilityResult{Eligible: len(reasons) == 0, Reasons: reasons}
}

// SkillMatchScore ranks a student against a drive's advisory skill list. A
// required skill counts as matched when it appears, case-insensitively, as a
// substring of any of the student's technical or soft skills. The score is the
// matched fraction scaled to 0..100; a drive with no required skills scores 0
// for everyone.
func SkillMatchScore(student models.Student, drive models.Drive) (float64, []string) {
	required := drive.RequiredSkills()
	if len(required) == 0 {
		return 0, nil
	}

	studentSkills := student.AllSkills()
	var matched []string
	for _, want := range required {
		needle := strings.ToLower(strings.TrimSpace(want))
		if needle == "" {
			continue
		}
		for _, have := range studentSkills {
			if strings.Contains(strings.ToLower(have), needle) {
				matched = append(matched, want)
				break
			}
		}
	}

	score := float64(len(matched)) / float64(len(required)) * 100
	return score, matched
}

func containsFold(haystack []string, needle string) bool {
	for _, candidate := range haystack {
		if strings.EqualFold(strings.TrimSpace(candidate), strings.TrimSpace(needle)) {
			return true
		}
	}
	return false
}

func containsInt(haystack []int, needle int) bool {
	for _, candidate := range haystack {
		if candidate == needle {
			return true
		}
	}
	return false
}
