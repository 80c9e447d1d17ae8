package router

import "github.com/gin-gonic/gin"

func (r *Router) authRoutes(version *gin.RouterGroup) {
	auth := version.Group("/auth")
	{
		// Public routes (no authentication required)
		auth.POST("/register", r.authHandler.Register)
		auth.POST("/login", r.authHandler.Login)
		auth.POST("/reset/request", r.authHandler.RequestReset)

		// Protected routes (bearer token required)
		protected := auth.Group("")
		protected.Use(r.jwtMw.RequireAuth())
		{
			protected.POST("/reset/confirm", r.authHandler.ResetPassword)
			protected.POST("/verify", r.authHandler.VerifyCode)
			protected.POST("/logout", r.authHandler.Logout)
		}
	}
}
