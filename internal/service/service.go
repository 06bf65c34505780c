package service

import (
	"github.com/Marga-Ghale/ora-tracker/internal/config"
	"github.com/Marga-Ghale/ora-tracker/internal/logutils"
	"github.com/Marga-Ghale/ora-tracker/internal/notification"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
	"github.com/Marga-Ghale/ora-tracker/internal/socket"
	"github.com/Marga-Ghale/ora-tracker/internal/summary"
)

var log = logutils.Component("service")

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth         AuthService
	User         UserService
	Project      ProjectService
	Membership   MembershipService
	Task         TaskService
	Comment      CommentService
	Notification NotificationService
	Dashboard    DashboardService
	Admin        AdminService
	Broadcaster  *socket.Broadcaster
}

// ServiceDeps contains all dependencies needed to create services.
// Mailer, Presence, Broadcaster and Cache are optional.
type ServiceDeps struct {
	Config      *config.Config
	Repos       *repository.Repositories
	NotifSvc    *notification.Service
	Mailer      InviteMailer
	Presence    Presence
	Broadcaster *socket.Broadcaster
	Summarizer  summary.Generator
	Cache       summary.Cache
}

func NewServices(deps *ServiceDeps) *Services {
	cache := deps.Cache
	if cache == nil {
		cache = summary.NewRedisCache(nil, 0)
	}

	// Membership first, notifications delegate invite acceptance to it.
	membership := NewMembershipService(
		deps.Repos,
		deps.NotifSvc,
		deps.Mailer,
		deps.Presence,
		deps.Broadcaster,
		deps.Config.FrontendURL,
	)

	return &Services{
		Auth:         NewAuthService(deps.Config, deps.Repos.UserRepo),
		User:         NewUserService(deps.Repos.UserRepo),
		Project:      NewProjectService(deps.Repos, deps.Summarizer, cache, deps.Broadcaster),
		Membership:   membership,
		Task:         NewTaskService(deps.Repos, cache, deps.Broadcaster),
		Comment:      NewCommentService(deps.Repos, deps.NotifSvc, deps.Broadcaster),
		Notification: NewNotificationService(deps.Repos.NotificationRepo, membership, deps.Broadcaster),
		Dashboard:    NewDashboardService(deps.Repos),
		Admin:        NewAdminService(deps.Repos, cache, deps.Broadcaster),
		Broadcaster:  deps.Broadcaster,
	}
}
