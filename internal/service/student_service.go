package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/lumilearn/tutor-backend/internal/model"
	"github.com/lumilearn/tutor-backend/internal/repository"
)

// ErrEmailTaken indicates a registration attempt with an email already in use.
var ErrEmailTaken = errors.New("email already registered")

// StudentService handles student accounts.
type StudentService struct {
	students *repository.StudentRepository
	auth     *AuthService
}

// NewStudentService creates a new StudentService.
func NewStudentService(students *repository.StudentRepository, auth *AuthService) *StudentService {
	return &StudentService{students: students, auth: auth}
}

// Register creates a student account and returns it with a session token.
func (s *StudentService) Register(ctx context.Context, req *model.RegisterRequest) (*model.Student, string, error) {
	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	student := &model.Student{
		Email:        req.Email,
		Name:         req.Name,
		Grade:        req.Grade,
		PasswordHash: hash,
	}
	if err := s.students.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, err := s.auth.GenerateStudentToken(ctx, student.ID, student.Grade)
	if err != nil {
		return nil, "", err
	}
	return student, token, nil
}

// Login checks credentials and returns the student with a session token.
func (s *StudentService) Login(ctx context.Context, req *model.LoginRequest) (*model.Student, string, error) {
	student, err := s.students.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := s.auth.CheckPassword(student.PasswordHash, req.Password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.auth.GenerateStudentToken(ctx, student.ID, student.Grade)
	if err != nil {
		return nil, "", err
	}
	return student, token, nil
}

// GetByID retrieves a student profile.
func (s *StudentService) GetByID(ctx context.Context, id int) (*model.Student, error) {
	return s.students.GetByID(ctx, id)
}
