package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/univeil/univeil/internal/api/handlers"
	"github.com/univeil/univeil/internal/api/middleware"
)

type Deps struct {
	Auth    *handlers.AuthHandler
	Profile *handlers.ProfileHandler
	Feed    *handlers.FeedHandler
	Event   *handlers.EventHandler
	Wallet  *handlers.WalletHandler
	Blind   *handlers.BlindHandler
	WS      *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/auth/register", d.Auth.Register)
	r.POST("/auth/login", d.Auth.Login)

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.GET("/profile/me", d.Profile.Me)
	auth.PUT("/profile/update", d.Profile.Update)

	auth.POST("/feed/post", d.Feed.Create)
	auth.GET("/feed", d.Feed.List)
	auth.POST("/feed/:post_id/like", d.Feed.Like)
	auth.DELETE("/feed/:post_id/like", d.Feed.Unlike)

	auth.POST("/events", d.Event.Create)
	auth.GET("/events", d.Event.List)
	auth.POST("/events/:event_id/rsvp", d.Event.RSVP)
	auth.DELETE("/events/:event_id/rsvp", d.Event.CancelRSVP)

	auth.GET("/wallet/balance", d.Wallet.Balance)
	auth.GET("/wallet/ledger", d.Wallet.Ledger)
	auth.POST("/wallet/credit", middleware.RequireAdmin(), d.Wallet.Credit)

	// blind dating: the seven operations the session controller consumes
	auth.POST("/blind/queue/join", d.Blind.JoinQueue)
	auth.POST("/blind/queue/leave", d.Blind.LeaveQueue)
	auth.GET("/blind/session/status", d.Blind.Status)
	auth.GET("/blind/session/:session_id/messages", d.Blind.Messages)
	auth.POST("/blind/session/:session_id/message", d.Blind.SendMessage)
	auth.POST("/blind/session/:session_id/choice", d.Blind.RecordChoice)
	auth.POST("/blind/session/:session_id/end", d.Blind.EndSession)

	// WebSocket (identified conversation after a mutual match)
	auth.GET("/ws/conversation/:session_id", d.WS.ConversationWS)
}
