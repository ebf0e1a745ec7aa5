// Package models defines the entities shared across the talent-flow
// backend: employees, job postings, their reference tables, and the
// aggregates the recommendation pipeline works with.
package models

import "time"

// Employee is one row of the employee table. The password column holds
// a bcrypt hash and is never serialized.
type Employee struct {
	ID                 int64     `db:"employee_id" json:"employee_id"`
	Name               string    `db:"name" json:"name"`
	PasswordHash       string    `db:"password" json:"-"`
	Birthdate          time.Time `db:"birthdate" json:"birthdate"`
	Gender             string    `db:"gender" json:"gender"`
	AcademicBackground string    `db:"academic_background" json:"academic_background"`
	HireDate           time.Time `db:"hire_date" json:"hire_date"`
	RecruitmentType    string    `db:"recruitment_type" json:"recruitment_type"`
}

// Skill is one row of skill_list.
type Skill struct {
	ID       int64  `db:"skill_id" json:"skill_id"`
	Category string `db:"skill_category" json:"skill_category"`
	Name     string `db:"skill_name" json:"skill_name"`
}

// SpiScores holds the five personality trait scores from a structured
// personality test.
type SpiScores struct {
	ID                int64 `db:"spi_id" json:"-"`
	EmployeeID        int64 `db:"employee_id" json:"-"`
	Extraversion      int   `db:"extraversion" json:"extraversion"`
	Agreeableness     int   `db:"agreebleness" json:"agreeableness"`
	Conscientiousness int   `db:"conscientiousness" json:"conscientiousness"`
	Neuroticism       int   `db:"neuroticism" json:"neuroticism"`
	Openness          int   `db:"openness" json:"openness"`
}

// Grade is one row of the grade reference table.
type Grade struct {
	ID   int64  `db:"grade_id" json:"grade_id"`
	Name string `db:"grade_name" json:"grade_name"`
}

// Department is one row of the department table.
type Department struct {
	ID     int64  `db:"department_id" json:"department_id"`
	Name   string `db:"department_name" json:"department_name"`
	Detail string `db:"department_detail" json:"department_detail,omitempty"`
}

// Evaluation is one yearly evaluation record for an employee.
type Evaluation struct {
	ID         int64  `db:"evaluation_id" json:"-"`
	EmployeeID int64  `db:"employee_id" json:"-"`
	Year       int    `db:"evaluation_year" json:"year"`
	Evaluation string `db:"evaluation" json:"evaluation"`
	Comment    string `db:"evaluation_comment" json:"comment"`
}

// EmployeeProfile aggregates an employee with all related records. It
// is the unit the write path turns into profile text and the read path
// hands to the recommendation composer.
type EmployeeProfile struct {
	Employee    Employee     `json:"employee_info"`
	Grades      []Grade      `json:"grades"`
	Skills      []Skill      `json:"skills"`
	Spi         *SpiScores   `json:"spi,omitempty"`
	Evaluations []Evaluation `json:"evaluations"`
	Departments []Department `json:"departments"`
}

// SkillNames returns the flat skill name list used in prompts.
func (p *EmployeeProfile) SkillNames() []string {
	names := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		names = append(names, s.Name)
	}
	return names
}

// Facts reduces the profile to the attributes embedded in the
// recommendation prompt.
func (p *EmployeeProfile) Facts() ProfileFacts {
	return ProfileFacts{
		EmployeeID:         p.Employee.ID,
		Name:               p.Employee.Name,
		Skills:             p.SkillNames(),
		AcademicBackground: p.Employee.AcademicBackground,
		RecruitmentType:    p.Employee.RecruitmentType,
	}
}

// ProfileFacts is the structured subset of an employee profile the
// composer serializes into the generative prompt.
type ProfileFacts struct {
	EmployeeID         int64    `json:"employee_id"`
	Name               string   `json:"name"`
	Skills             []string `json:"skills"`
	AcademicBackground string   `json:"academic_background"`
	RecruitmentType    string   `json:"recruitment_type"`
}

// JobPost is one row of the job_post table.
type JobPost struct {
	ID           int64  `db:"job_post_id" json:"job_post_id"`
	DepartmentID int64  `db:"department_id" json:"department_id"`
	JobTitle     string `db:"job_title" json:"job_title"`
	JobDetail    string `db:"job_detail" json:"job_detail"`
}
