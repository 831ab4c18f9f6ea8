// Command seed provisions a development database with a handful of demo
// accounts so the kiosk and portals have something to scan against.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-attendance-api/internal/models"
	"github.com/noah-isme/school-attendance-api/internal/repository"
	"github.com/noah-isme/school-attendance-api/pkg/config"
	"github.com/noah-isme/school-attendance-api/pkg/database"
)

func main() {
	password := flag.String("password", "changeme-dev", "password assigned to every seeded account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer db.Close() //nolint:errcheck

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	students := repository.NewStudentRepository(db)
	teachers := repository.NewTeacherRepository(db)
	employees := repository.NewEmployeeRepository(db)

	demoStudents := []models.Student{
		{
			Person:         person("1001", "Alex", "Cruz", "alex.cruz@school.local", string(hash)),
			StudentNumber:  "S-0001",
			EducationLevel: "High School",
			GradeYearLevel: "Grade 10",
			Section:        "A",
			Subjects:       []string{"Math", "Science", "English"},
		},
		{
			Person:         person("1002", "Bea", "Santos", "bea.santos@school.local", string(hash)),
			StudentNumber:  "S-0002",
			EducationLevel: "High School",
			GradeYearLevel: "Grade 10",
			Section:        "A",
			Subjects:       []string{"Math", "Science", "English"},
		},
	}
	for i := range demoStudents {
		if err := students.Create(ctx, &demoStudents[i]); err != nil {
			log.Fatalf("seed student %s: %v", demoStudents[i].Code, err)
		}
	}

	teacher := models.Teacher{
		Person:   person("2001", "Carla", "Dizon", "carla.dizon@school.local", string(hash)),
		Subjects: []string{"Math"},
	}
	if err := teachers.Create(ctx, &teacher); err != nil {
		log.Fatalf("seed teacher: %v", err)
	}

	assignments := repository.NewAssignmentRepository(db)
	if err := assignments.Create(ctx, &models.TeachingAssignment{
		TeacherID:      teacher.ID,
		EducationLevel: "High School",
		GradeYearLevel: "Grade 10",
		Section:        "A",
	}); err != nil {
		log.Fatalf("seed assignment: %v", err)
	}

	employee := models.Employee{
		Person:   person("3001", "Dan", "Ines", "dan.ines@school.local", string(hash)),
		Position: "Registrar",
	}
	if err := employees.Create(ctx, &employee); err != nil {
		log.Fatalf("seed employee: %v", err)
	}

	fmt.Println("seeded 2 students, 1 teacher, 1 assignment, 1 employee")
	fmt.Printf("all accounts use password %q\n", *password)
}

func person(code, first, last, email, hash string) models.Person {
	return models.Person{
		ID:           uuid.NewString(),
		Code:         code,
		FirstName:    first,
		LastName:     last,
		Email:        email,
		PasswordHash: hash,
	}
}
