package model

import "time"

// Student represents a registered test-prep student.
type Student struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	TargetScore  int       `json:"target_score"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StudentLoginRequest is the payload for student authentication.
type StudentLoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// StudentLoginResponse is returned after successful student login.
type StudentLoginResponse struct {
	Token   string  `json:"token"`
	Student Student `json:"student"`
}

// CreateStudentRequest is the payload for creating a new student account.
type CreateStudentRequest struct {
	Email       string `json:"email" binding:"required,email,max=254"`
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Password    string `json:"password" binding:"required,min=6,max=128"`
	TargetScore int    `json:"target_score" binding:"omitempty,min=400,max=1600"`
}
