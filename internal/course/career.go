package course

import "strings"

// Career is the enrollment track of a course.
type Career int

// Careers in classification precedence order is defined by ClassifyDepartment,
// not by the numeric value.
const (
	CareerOther Career = iota
	CareerUndergraduate
	CareerMaster
	CareerDoctoral
	CareerContinuingEd
	CareerInService
	CareerGeneralEd
)

var careerNames = map[Career]string{
	CareerUndergraduate: "學士班",
	CareerMaster:        "碩士班",
	CareerDoctoral:      "博士班",
	CareerContinuingEd:  "進修部",
	CareerInService:     "在職專班",
	CareerGeneralEd:     "通識加體育課",
	CareerOther:         "其他",
}

// String returns the Chinese display name.
func (c Career) String() string {
	if name, ok := careerNames[c]; ok {
		return name
	}
	return careerNames[CareerOther]
}

// CareerCode pairs a catalog program-level code with its display name.
type CareerCode struct {
	Code   string
	Name   string
	Career Career
}

// CareerCodes lists the catalog codes in fetch order.
var CareerCodes = []CareerCode{
	{Code: "U", Name: "學士班", Career: CareerUndergraduate},
	{Code: "O", Name: "通識加體育課", Career: CareerGeneralEd},
	{Code: "N", Name: "進修部", Career: CareerContinuingEd},
	{Code: "W", Name: "在職專班", Career: CareerInService},
	{Code: "G", Name: "碩士班", Career: CareerMaster},
	{Code: "D", Name: "博士班", Career: CareerDoctoral},
}

// CareerName returns the display name of a catalog code, or "" if unknown.
func CareerName(code string) string {
	for _, cc := range CareerCodes {
		if strings.EqualFold(cc.Code, code) {
			return cc.Name
		}
	}
	return ""
}

// IsCareerCode reports whether code is a known catalog code.
func IsCareerCode(code string) bool {
	return CareerName(code) != ""
}

// CareerFromCode maps a catalog code to its Career.
func CareerFromCode(code string) Career {
	for _, cc := range CareerCodes {
		if strings.EqualFold(cc.Code, code) {
			return cc.Career
		}
	}
	return CareerOther
}

// ClassifyDepartment infers the career from department text.
// Overlapping keywords are resolved by check order:
// Doctoral > Master > InService > ContinuingEd > GeneralEd > Undergraduate > Other.
func ClassifyDepartment(dept string) Career {
	has := func(s string) bool { return strings.Contains(dept, s) }

	switch {
	case has("博士"):
		return CareerDoctoral
	case has("碩士"):
		return CareerMaster
	case has("在職專班") || has("碩專班"):
		return CareerInService
	case has("進修部") || has("進修學士班"):
		return CareerContinuingEd
	case has("通識") || has("體育") || has("外語教學") || has("軍訓") || has("藝術") ||
		(has("文學") && !has("學系")):
		return CareerGeneralEd
	case has("學士"):
		return CareerUndergraduate
	case !has("碩士") && !has("博士") && !has("進修") && !has("在職") &&
		(has("學系") || has("學院") || has("學程")):
		return CareerUndergraduate
	default:
		return CareerOther
	}
}
