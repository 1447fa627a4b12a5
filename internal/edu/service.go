// Package edu serves read access to student records and course material.
package edu

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/aimentor/internal/blob"
	"github.com/abhisek/aimentor/internal/logger"
	"github.com/abhisek/aimentor/internal/store"
)

// EduPlan selects a topic's education plan; any other content type tag
// selects the topic introduction.
const EduPlan = "edu-plan"

// ErrNoContent is returned when the entity has no file attached.
var ErrNoContent = errors.New("no content attached")

// Download is a course material file ready to be streamed.
type Download struct {
	Name        string
	ContentType string
	Data        []byte
}

// Service exposes students and course material to the HTTP layer.
type Service struct {
	students store.StudentRepo
	content  store.ContentRepo
	blobs    blob.Store
	log      *logger.Logger
}

func NewService(students store.StudentRepo, content store.ContentRepo, blobs blob.Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{students: students, content: content, blobs: blobs, log: log}
}

// GetStudent returns the student record.
func (s *Service) GetStudent(ctx context.Context, id int64) (*store.Student, error) {
	return s.students.Get(ctx, id)
}

// CreateGuestStudent starts a student with no account. The registrator
// picks up the dialogue from there.
func (s *Service) CreateGuestStudent(ctx context.Context) (*store.Student, error) {
	st, err := s.students.Create(ctx, nil)
	if err != nil {
		return nil, err
	}
	s.log.Info("guest student created", "student_id", st.ID)
	return st, nil
}

// DownloadTopicContent returns the topic's education plan for the
// EduPlan tag and its introduction otherwise.
func (s *Service) DownloadTopicContent(ctx context.Context, contentType string, topicID int64) (*Download, error) {
	t, err := s.content.Topic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	fileID := t.IntroFileID
	if contentType == EduPlan {
		fileID = t.EduPlanFileID
	}
	return s.download(ctx, t.Name, fileID)
}

// DownloadBlockContent returns the block's content file.
func (s *Service) DownloadBlockContent(ctx context.Context, blockID int64) (*Download, error) {
	b, err := s.content.Block(ctx, blockID)
	if err != nil {
		return nil, err
	}
	return s.download(ctx, b.Name, b.ContentFileID)
}

func (s *Service) download(ctx context.Context, name, fileID string) (*Download, error) {
	if fileID == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrNoContent)
	}
	obj, err := s.blobs.Download(ctx, fileID)
	if err != nil {
		s.log.Warn("content download failed", "name", name, "file_id", fileID, "error", err)
		return nil, fmt.Errorf("download %s: %w", fileID, err)
	}
	return &Download{Name: name, ContentType: obj.ContentType, Data: obj.Data}, nil
}
