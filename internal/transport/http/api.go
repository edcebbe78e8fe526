package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"quizzardo-service/internal/app"
	"quizzardo-service/internal/auth"
	"quizzardo-service/internal/domain"
)

const identityKey = "identity"

// API serves the REST side of the quiz service.
type API struct {
	service *app.QuizService
	auth    auth.Provider
}

func NewAPI(service *app.QuizService, provider auth.Provider) *API {
	return &API{service: service, auth: provider}
}

type joinRequest struct {
	PaymentRef string `json:"paymentRef"`
}

// Register mounts the routes under r.
func (a *API) Register(r gin.IRouter) {
	api := r.Group("/api", a.authenticate)
	{
		api.POST("/quizzes", a.CreateQuiz)
		api.GET("/quizzes/:id", a.GetQuiz)
		api.POST("/quizzes/:id/join", a.JoinQuiz)
		api.GET("/quizzes/:id/leaderboard", a.GetLeaderboard)
	}
}

func (a *API) authenticate(c *gin.Context) {
	who, err := a.auth.Identify(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.Set(identityKey, who)
	c.Next()
}

func (a *API) CreateQuiz(c *gin.Context) {
	var draft domain.Quiz
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := a.service.CreateQuiz(c.Request.Context(), identity(c), draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quiz)
}

func (a *API) GetQuiz(c *gin.Context) {
	quiz, err := a.service.GetQuiz(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz.View())
}

func (a *API) JoinQuiz(c *gin.Context) {
	var req joinRequest
	// an empty body is fine for free quizzes
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	quizID := c.Param("id")
	if err := a.service.Join(c.Request.Context(), quizID, identity(c), req.PaymentRef); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quizId": quizID, "joined": true})
}

func (a *API) GetLeaderboard(c *gin.Context) {
	lb, err := a.service.Leaderboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lb)
}

func identity(c *gin.Context) domain.Identity {
	who, _ := c.Get(identityKey)
	id, _ := who.(domain.Identity)
	return id
}

func writeError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body["problems"] = verr.Problems
	}
	c.JSON(statusFor(err), body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuiz), errors.Is(err, domain.ErrNotEnoughQuestions),
		errors.Is(err, domain.ErrOptionOutOfRange), errors.Is(err, domain.ErrUnknownSignal):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrPaymentRequired):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrQuizFull), errors.Is(err, domain.ErrAlreadyAttempted),
		errors.Is(err, domain.ErrResultExists), errors.Is(err, domain.ErrSessionActive),
		errors.Is(err, domain.ErrQuizNotStarted), errors.Is(err, domain.ErrSessionNotStarted),
		errors.Is(err, domain.ErrSessionEnded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrReadOnlyCatalog):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
