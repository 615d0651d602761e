package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/lumilearn/tutor-backend/internal/config"
	"github.com/lumilearn/tutor-backend/internal/database"
	"github.com/lumilearn/tutor-backend/internal/logger"
	"github.com/lumilearn/tutor-backend/internal/model"
	"github.com/lumilearn/tutor-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	studentRepo := repository.NewStudentRepository(pool)

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Student ===")

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	fmt.Print("Enter Grade (p5/p6, default p6): ")
	grade, _ := reader.ReadString('\n')
	grade = strings.TrimSpace(grade)
	if grade == "" {
		grade = "p6"
	}
	if grade != "p5" && grade != "p6" {
		fmt.Println("Error: Grade must be p5 or p6")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 8 {
		fmt.Println("Error: Password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		fmt.Printf("Error hashing password: %v\n", err)
		return
	}

	student := &model.Student{
		Email:        email,
		Name:         name,
		Grade:        grade,
		PasswordHash: string(hash),
	}
	if err := studentRepo.Create(ctx, student); err != nil {
		fmt.Printf("Error creating student: %v\n", err)
		return
	}

	fmt.Printf("Student created with ID %d\n", student.ID)
}
