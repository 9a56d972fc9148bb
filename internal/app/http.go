package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/hqdung24/Nestjs-auth/internal/auth/handler"
	"github.com/hqdung24/Nestjs-auth/internal/auth/provider"
	"github.com/hqdung24/Nestjs-auth/internal/auth/provider/google"
	"github.com/hqdung24/Nestjs-auth/internal/auth/resolver"
	"github.com/hqdung24/Nestjs-auth/internal/auth/token"
	"github.com/hqdung24/Nestjs-auth/internal/auth/verifier"
	"github.com/hqdung24/Nestjs-auth/internal/config"
	"github.com/hqdung24/Nestjs-auth/internal/directory"
	"github.com/hqdung24/Nestjs-auth/internal/middleware"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	userDirectory := directory.NewPostgresDirectory(infra.DB)
	identityResolver := resolver.NewDirectoryResolver(userDirectory)

	googleVerifier, err := verifier.NewGoogleVerifier(
		ctx,
		cfg.GoogleIssuer,
		cfg.GoogleClientID,
		cfg.KeyCacheTTL,
	)
	if err != nil {
		return nil, nil, err
	}

	signer, err := token.NewSigner(token.SignerConfig{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	if err != nil {
		return nil, nil, err
	}

	var rotations token.RotationStore = token.NewMemoryRotationStore()
	if infra.Redis != nil {
		rotations = token.NewRedisRotationStore(infra.Redis.Client)
	}

	issuer := token.NewIssuer(signer, userDirectory, rotations, cfg.RefreshRotation)

	var registry *provider.Registry
	if cfg.GoogleClientSecret != "" && cfg.GoogleRedirectURL != "" {
		googleProvider, err := google.New(
			ctx,
			cfg.GoogleIssuer,
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
		)
		if err != nil {
			return nil, nil, err
		}
		registry = provider.NewRegistry(googleProvider)
	} else {
		registry = provider.NewRegistry()
	}

	authHandler := handler.NewHandler(
		googleVerifier,
		identityResolver,
		issuer,
		registry,
		userDirectory,
	)

	authMiddleware := middleware.NewAuthMiddleware(signer)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.GinRequireAuth(authMiddleware))

	api.GET("/me", authHandler.Me)

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		if infra.Redis != nil {
			_ = infra.Redis.Close()
		}
		return infra.DB.Close()
	}, nil
}
