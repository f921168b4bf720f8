package main // Entry point package

import (
    "context"
    "log"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/project-task-tracker/internal/config"
    "github.com/iliyamo/project-task-tracker/internal/database"
    "github.com/iliyamo/project-task-tracker/internal/handler"
    "github.com/iliyamo/project-task-tracker/internal/middleware"
    "github.com/iliyamo/project-task-tracker/internal/oauth"
    "github.com/iliyamo/project-task-tracker/internal/queue"
    "github.com/iliyamo/project-task-tracker/internal/repository"
    "github.com/iliyamo/project-task-tracker/internal/router"
    "github.com/iliyamo/project-task-tracker/internal/service"
    "github.com/iliyamo/project-task-tracker/internal/storage"
    "github.com/iliyamo/project-task-tracker/internal/utils"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Repositories.
    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    projects := repository.NewProjectRepo(db)
    sprints := repository.NewSprintRepo(db)
    tasks := repository.NewTaskRepo(db)
    comments := repository.NewCommentRepo(db)
    timeLogs := repository.NewTimeLogRepo(db)
    attachments := repository.NewAttachmentRepo(db)
    activity := repository.NewActivityRepo(db)

    // OAuth verifiers are optional; a provider without credentials simply
    // is not offered.
    verifiers := map[string]oauth.Verifier{}
    if cfg.GoogleClientID != "" {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        gv, err := oauth.NewGoogleVerifier(ctx, cfg.GoogleClientID)
        cancel()
        if err != nil {
            log.Fatalf("google verifier: %v", err)
        }
        verifiers["google"] = gv
    }
    if cfg.FacebookAppID != "" && cfg.FacebookAppSecret != "" {
        verifiers["facebook"] = oauth.NewFacebookVerifier(cfg.FacebookAppID, cfg.FacebookAppSecret)
    }

    identity := service.NewIdentityService(users, verifiers, cfg)
    issuer := utils.NewIssuer(cfg.AccessSecret, cfg.RefreshSecret,
        utils.ExpiryPolicy{Access: cfg.CredAccessTTL, Refresh: cfg.CredRefreshTTL},
        utils.ExpiryPolicy{Access: cfg.OAuthAccessTTL, Refresh: cfg.OAuthRefreshTTL},
    )

    uploads, err := storage.NewDiskStorage(cfg.UploadDir, cfg.UploadBaseURL)
    if err != nil {
        log.Fatalf("storage: %v", err)
    }

    // Handlers.
    authHandler := handler.NewAuthHandler(cfg, identity, users, tokens, issuer)
    userHandler := handler.NewUserHandler(users, tokens, identity, uploads)
    projectHandler := handler.NewProjectHandler(projects)
    sprintHandler := handler.NewSprintHandler(sprints, projects)
    taskHandler := handler.NewTaskHandler(tasks, sprints, users, activity)
    commentHandler := handler.NewCommentHandler(comments, tasks, activity)
    timeLogHandler := handler.NewTimeLogHandler(timeLogs, tasks, activity)
    attachmentHandler := handler.NewAttachmentHandler(attachments, tasks, activity, uploads)

    // The limiter degrades to a no-op when Redis is not reachable.
    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), config.NewRedisClient())

    e := echo.New()
    e.HideBanner = true
    router.RegisterRoutes(e)
    router.RegisterAuth(e, authHandler, issuer, limiter)
    router.RegisterUsers(e, userHandler, issuer)
    router.RegisterProjects(e, projectHandler, sprintHandler, issuer)
    router.RegisterTasks(e, taskHandler, commentHandler, timeLogHandler, attachmentHandler, issuer)

    // Serve uploaded files when they live on local disk.
    e.Static(cfg.UploadBaseURL, cfg.UploadDir)

    // Invite notifications drain in the background; the consumer
    // reconnects on its own if the broker drops.
    go queue.StartInviteConsumer()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
