package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Marga-Ghale/ora-tracker/internal/notification"
	"github.com/Marga-Ghale/ora-tracker/internal/policy"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
	"github.com/Marga-Ghale/ora-tracker/internal/socket"
)

// ============================================
// Comment Service
// ============================================

type CommentService interface {
	// Create stores the comment and its notifications in one transaction.
	Create(ctx context.Context, actor policy.Actor, taskID, content string) (*repository.Comment, error)
	Get(ctx context.Context, actor policy.Actor, id string) (*repository.Comment, error)
	ListByTask(ctx context.Context, actor policy.Actor, taskID string) ([]*repository.Comment, error)
	Update(ctx context.Context, actor policy.Actor, id, content string) (*repository.Comment, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error
}

type commentService struct {
	access      *accessLoader
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	notifSvc    *notification.Service
	broadcaster *socket.Broadcaster
}

func NewCommentService(repos *repository.Repositories, notifSvc *notification.Service, broadcaster *socket.Broadcaster) CommentService {
	return &commentService{
		access:      newAccessLoader(repos),
		commentRepo: repos.CommentRepo,
		userRepo:    repos.UserRepo,
		notifSvc:    notifSvc,
		broadcaster: broadcaster,
	}
}

const maxCommentLength = 5000

func validateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", invalidField("content", "is required")
	}
	if err := validateVar("content", content, fmt.Sprintf("max=%d", maxCommentLength)); err != nil {
		return "", err
	}
	return content, nil
}

func (s *commentService) Create(ctx context.Context, actor policy.Actor, taskID, content string) (*repository.Comment, error) {
	task, pt, err := s.access.task(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewTask(actor, pt) {
		return nil, forbidden("You are not a member of this project.", projectsPath)
	}

	content, err = validateCommentContent(content)
	if err != nil {
		return nil, err
	}

	author, err := s.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("load author: %w", err)
	}
	if author == nil {
		return nil, notFound("user")
	}

	notifications, err := s.notifSvc.BuildCommentNotifications(ctx, task, author)
	if err != nil {
		return nil, err
	}

	comment := &repository.Comment{
		Content: content,
		TaskID:  taskID,
		UserID:  actor.UserID,
		User:    author,
	}
	if err := s.commentRepo.CreateWithNotifications(ctx, comment, notifications); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.notifSvc.Publish(notifications...)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastCommentAdded(task.ProjectID, map[string]interface{}{
			"id":      comment.ID,
			"taskId":  taskID,
			"userId":  actor.UserID,
			"content": comment.Content,
		}, actor.UserID)
	}
	return comment, nil
}

func (s *commentService) Get(ctx context.Context, actor policy.Actor, id string) (*repository.Comment, error) {
	comment, _, pc, err := s.access.comment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewComment(actor, pc) {
		return nil, forbidden("You are not a member of this project.", projectsPath)
	}
	return comment, nil
}

// ListByTask returns comments newest first.
func (s *commentService) ListByTask(ctx context.Context, actor policy.Actor, taskID string) ([]*repository.Comment, error) {
	_, pt, err := s.access.task(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewTask(actor, pt) {
		return nil, forbidden("You are not a member of this project.", projectsPath)
	}
	return s.commentRepo.FindByTaskID(ctx, taskID)
}

func (s *commentService) Update(ctx context.Context, actor policy.Actor, id, content string) (*repository.Comment, error) {
	comment, _, pc, err := s.access.comment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanModifyComment(actor, pc) {
		return nil, forbidden("You can only edit your own comments.", taskPath(comment.TaskID))
	}

	content, err = validateCommentContent(content)
	if err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return comment, nil
}

func (s *commentService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	comment, _, pc, err := s.access.comment(ctx, actor, id)
	if err != nil {
		return err
	}
	if !policy.CanDeleteComment(actor, pc) {
		return forbidden("You can only delete your own comments.", taskPath(comment.TaskID))
	}

	if err := s.commentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
