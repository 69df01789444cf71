package model

import (
	"context"
	"time"
)

// DefaultQuestionCount is the number of blank questions a fresh exam starts with.
const DefaultQuestionCount = 22

// Unanswered marks a question the student deliberately left blank.
const Unanswered = "-"

// Letters is the answer alphabet, in display order.
var Letters = []string{"A", "B", "C", "D", "E"}

// Tag classifies a single answer cell against the key.
type Tag string

const (
	// TagNeutral means the answer or the key slot is empty.
	TagNeutral Tag = "neutral"
	// TagCorrect means the answer matches the key (case-insensitive).
	TagCorrect Tag = "correct"
	// TagIncorrect means both values are present and differ.
	TagIncorrect Tag = "incorrect"
)

// ExamMetadata labels an exam. It is not used for scoring.
type ExamMetadata struct {
	Subject string `json:"subject"`
	Grade   string `json:"grade"`
}

// Student is one registered answer sheet. Identity is its position in the roster.
type Student struct {
	Name    string   `json:"name"`
	Answers []string `json:"answers"`
}

// Clone returns a deep copy of the student.
func (s Student) Clone() Student {
	answers := make([]string, len(s.Answers))
	copy(answers, s.Answers)
	return Student{Name: s.Name, Answers: answers}
}

// ScoredStudent is a student with its derived score. It is never persisted.
type ScoredStudent struct {
	Student
	Position   int   // index in the roster
	Correct    int   // number of correct answers
	Percentage int   // 0..100
	Tags       []Tag // one per question
}

// Snapshot is the whole persisted exam state.
type Snapshot struct {
	QuestionCount int       `json:"question_count"`
	Key           []string  `json:"key"`
	Roster        []Student `json:"roster"`
	Subject       string    `json:"subject"`
	Grade         string    `json:"grade"`
}

// DefaultSnapshot returns the state of a brand new exam.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		QuestionCount: DefaultQuestionCount,
		Key:           make([]string, DefaultQuestionCount),
		Roster:        []Student{},
	}
}

// Metadata returns the snapshot's labels.
func (s Snapshot) Metadata() ExamMetadata {
	return ExamMetadata{Subject: s.Subject, Grade: s.Grade}
}

// AuthSession represents an operator login session.
type AuthSession struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ImportRecord is one entry of the import history.
type ImportRecord struct {
	Name       string
	SHA256     string
	Questions  int
	Students   int
	ImportedAt time.Time
}

// Config holds runtime parameters set via CLI flags.
type Config struct {
	Lang          string // UI language and collation locale (e.g. "pt-BR")
	BasePath      string // URL prefix for sub-path deployments (e.g. "/prova")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	AuthEnabled   bool   // Require the operator password
}

type operatorCtxKey struct{}

// ContextWithOperator marks the request as authenticated.
func ContextWithOperator(ctx context.Context, sess *AuthSession) context.Context {
	return context.WithValue(ctx, operatorCtxKey{}, sess)
}

// OperatorFromContext returns the operator session, or nil.
func OperatorFromContext(ctx context.Context) *AuthSession {
	s, _ := ctx.Value(operatorCtxKey{}).(*AuthSession)
	return s
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}
